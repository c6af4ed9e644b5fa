package chat

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"EasyChat/logger"
	"EasyChat/module/chat/conv"
	midsec "EasyChat/middleware/security"
	"EasyChat/tools/security"

	"github.com/gin-gonic/gin"
)

// REST side channel next to the wire protocol: declaring the active
// conversation, unread counts for conversation-list rendering, history
// for reconnect catch-up, and a bootstrap login issuing tokens.

type loginRequest struct {
	UserID    int64  `json:"userId" binding:"required"`
	Nickname  string `json:"nickname" binding:"required"`
	AvatarURL string `json:"avatarUrl"`
}

// HandleLogin upserts the profile and issues a token for the user id.
// Real credential checking belongs to the surrounding account system.
func (s *Server) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.users.Upsert(c.Request.Context(), req.UserID, req.Nickname, req.AvatarURL); err != nil {
		logger.Errorf("[http] login upsert failed user=%d err=%v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	token, expireAt, err := security.Generate(s.auth, req.UserID)
	if err != nil {
		logger.Errorf("[http] token issue failed user=%d err=%v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expireAt": expireAt.UnixMilli()})
}

type activeChatRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
}

// HandleSetActive records "I am viewing conversation C now". Subsequent
// deliveries into C will not bump this user's unread counter while the
// marker lives.
func (s *Server) HandleSetActive(c *gin.Context) {
	userID := midsec.UserID(c)
	var req activeChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !conv.IsWellFormed(req.ConversationID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed conversation id"})
		return
	}
	if err := s.presence.SetActive(c.Request.Context(), userID, req.ConversationID); err != nil {
		logger.Errorf("[http] set active failed user=%d err=%v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandleUnread answers ?conversationIds=s_1_2,g_9 with a counter per id
// in one backend round trip.
func (s *Server) HandleUnread(c *gin.Context) {
	userID := midsec.UserID(c)
	raw := strings.Split(c.Query("conversationIds"), ",")
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !conv.IsWellFormed(id) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed conversation id: " + id})
			return
		}
		ids = append(ids, id)
	}
	counts, err := s.presence.BatchGetUnread(c.Request.Context(), userID, ids)
	if err != nil {
		logger.Errorf("[http] unread query failed user=%d err=%v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

type readRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
}

// HandleMarkRead clears the unread counter when the user opens the
// conversation.
func (s *Server) HandleMarkRead(c *gin.Context) {
	userID := midsec.UserID(c)
	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !conv.IsWellFormed(req.ConversationID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed conversation id"})
		return
	}
	if err := s.presence.ClearUnread(c.Request.Context(), userID, req.ConversationID); err != nil {
		logger.Errorf("[http] clear unread failed user=%d err=%v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandleHistory serves the catch-up read after a reconnect: messages of
// one conversation before the given unix-millis instant, newest first.
func (s *Server) HandleHistory(c *gin.Context) {
	userID := midsec.UserID(c)
	conversationID := c.Query("conversationId")

	if err := s.authorizeConversation(c, userID, conversationID); err != nil {
		return // response already written
	}

	before := time.Time{}
	if raw := c.Query("before"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad before timestamp"})
			return
		}
		before = time.UnixMilli(ms)
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	views, err := s.store.History(c.Request.Context(), conversationID, before, limit)
	if err != nil {
		logger.Errorf("[http] history failed user=%d conv=%s err=%v", userID, conversationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// authorizeConversation rejects callers who are not part of the
// conversation they are reading.
func (s *Server) authorizeConversation(c *gin.Context, userID int64, conversationID string) error {
	kind, err := conv.Classify(conversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed conversation id"})
		return err
	}
	switch kind {
	case conv.KindSingle:
		if _, err := conv.CounterpartOf(conversationID, userID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
			return err
		}
	case conv.KindGroup:
		gid, _ := conv.GroupOf(conversationID)
		ok, err := s.router.membership.IsMember(c.Request.Context(), gid, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return err
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
			return ErrNotAMember
		}
	}
	return nil
}
