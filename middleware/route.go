package middleware

import (
	"github.com/gin-gonic/gin"
)

// RouteOpt configures how a route is mounted.
type RouteOpt struct {
	Auth gin.HandlerFunc // nil mounts the route unauthenticated
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.Auth != nil {
		r.POST(path, opt.Auth, handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.Auth != nil {
		r.GET(path, opt.Auth, handler)
	} else {
		r.GET(path, handler)
	}
}
