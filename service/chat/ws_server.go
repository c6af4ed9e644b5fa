package chat

import (
	"context"
	"net"
	"net/http"

	"EasyChat/global"
	"EasyChat/logger"
	chatsvc "EasyChat/module/chat/service"
	"EasyChat/service/storage"
	"EasyChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the live-connection side of the service: the WebSocket
// endpoint, the registry of open sessions and the HTTP side channel for
// presence and unread queries.
type Server struct {
	cfg      *global.AppConfig
	reg      *Registry
	router   *Router
	presence *storage.PresenceStore
	store    *chatsvc.MessageStore
	users    *chatsvc.UserService
	auth     security.Options
}

func NewServer(cfg *global.AppConfig, reg *Registry, router *Router,
	presence *storage.PresenceStore, store *chatsvc.MessageStore, users *chatsvc.UserService) *Server {
	return &Server{
		cfg:      cfg,
		reg:      reg,
		router:   router,
		presence: presence,
		store:    store,
		users:    users,
		auth:     security.DefaultOptions([]byte(cfg.JWTSecret), cfg.JWTTTL),
	}
}

func (s *Server) Registry() *Registry { return s.reg }

// HandleWS upgrades /chat?token=... into a live connection.
//
// Connection lifecycle: the handshake resolves the token to a user id
// (failure rejects the upgrade, terminal); a successful upgrade
// registers the session and the connection participates in fan-out
// until the read loop ends, which unregisters it best-effort.
func (s *Server) HandleWS(c *gin.Context) {
	userID, err := security.ResolveUserID(s.auth, c.Query("token"))
	if err != nil {
		logger.Warnf("[ws] handshake rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[ws] upgrade failed user=%d err=%v", userID, err)
		return
	}

	sess := NewSession(userID, ws, s.cfg.SendQueueSize, s.cfg.WriteDeadline)
	s.reg.Register(userID, sess)
	logger.Infof("[ws] connected user=%d online=%d", userID, s.reg.Count())

	go sess.WritePump()

	defer func() {
		s.reg.Unregister(userID, sess)
		sess.Close()
		logger.Infof("[ws] disconnected user=%d online=%d", userID, s.reg.Count())
	}()

	s.readLoop(sess)
}

// readLoop processes the connection's inbound frames sequentially, so a
// user's own messages fan out in the order they were sent.
func (s *Server) readLoop(sess *Session) {
	ctx := context.Background()
	for {
		mt, data, err := sess.ws.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived):
				logger.Infof("[ws] peer closed user=%d", sess.UserID)
			default:
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					logger.Infof("[ws] read timeout user=%d err=%v", sess.UserID, err)
				} else {
					logger.Warnf("[ws] read error user=%d err=%v", sess.UserID, err)
				}
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, err := ParseInbound(data)
		if err != nil {
			s.sendError(sess, err)
			continue
		}

		if _, err := s.router.Send(ctx, sess.UserID, frame); err != nil {
			s.sendError(sess, err)
		}
	}
}

// sendError answers a failed send with a single error frame; the
// connection stays open.
func (s *Server) sendError(sess *Session, cause error) {
	if err := sess.Push(MarshalErrorFrame(userMessage(cause))); err != nil {
		logger.Warnf("[ws] error frame dropped user=%d err=%v", sess.UserID, err)
	}
}
