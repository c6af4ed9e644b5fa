package main

import (
	"context"

	"EasyChat/global"
	"EasyChat/logger"
	mid "EasyChat/middleware"
	midsec "EasyChat/middleware/security"
	chatsvc "EasyChat/module/chat/service"
	"EasyChat/service/chat"
	"EasyChat/service/mgo"
	"EasyChat/service/storage"
	redisstore "EasyChat/service/storage/redis"
	"EasyChat/tools/ids"
	"EasyChat/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := global.LoadConfig()
	if err != nil {
		logger.Log.Fatal("load config: " + err.Error())
	}
	ids.SetNodeID(cfg.SnowNodeID)

	if err := redisstore.Init(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Log.Fatal("init redis: " + err.Error())
	}

	ctx := context.Background()
	db, err := mgo.Connect(ctx, mgo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
	if err != nil {
		logger.Log.Fatal("connect mongo: " + err.Error())
	}
	defer func() { _ = mgo.Disconnect(ctx, db) }()

	presence := storage.NewPresenceStore(redisstore.Client(), cfg.ActiveChatTTL)
	store := chatsvc.NewMessageStore(db)
	membership := chatsvc.NewGroupMembership(db)
	users := chatsvc.NewUserService(db)

	reg := chat.NewRegistry()
	router := chat.NewRouter(reg, store, membership, presence, chat.RouterConfig{
		DeliverOnPresenceOutage: cfg.DeliverOnPresenceOutage,
	})
	srv := chat.NewServer(cfg, reg, router, presence, store, users)

	auth := midsec.Middleware(security.DefaultOptions([]byte(cfg.JWTSecret), cfg.JWTTTL))

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/chat", srv.HandleWS) // ws://host/chat?token=...
	mid.POST(r, "/login", srv.HandleLogin, mid.RouteOpt{})
	mid.POST(r, "/active", srv.HandleSetActive, mid.RouteOpt{Auth: auth})
	mid.POST(r, "/read", srv.HandleMarkRead, mid.RouteOpt{Auth: auth})
	mid.GET(r, "/unread", srv.HandleUnread, mid.RouteOpt{Auth: auth})
	mid.GET(r, "/history", srv.HandleHistory, mid.RouteOpt{Auth: auth})

	logger.Infof("[http] listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Log.Fatal("http server: " + err.Error())
	}
}
