package service

import (
	"context"
	"time"

	"EasyChat/module/chat/model"
	"EasyChat/tools/ids"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collMessages = "messages"
	collUsers    = "users"
)

// MessageStore durably records messages and serves history reads. A
// client that missed live delivery catches up through History after
// reconnecting.
type MessageStore struct {
	db *mongo.Database
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{db: db}
}

// CreateMessage persists the draft and returns the immutable view that
// fan-out pushes to recipients. Nothing is ever delivered for a message
// that was not durably recorded first.
func (s *MessageStore) CreateMessage(ctx context.Context, senderID int64, conversationID string, draft *model.MessageDraft) (*model.MessageView, error) {
	var sender model.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": senderID}).Decode(&sender)
	if err != nil {
		return nil, errors.Wrapf(err, "load sender %d", senderID)
	}

	msg := model.Message{
		ID:             ids.Generate(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           draft.Type,
		Kind:           draft.Kind,
		Content:        draft.Content,
		MediaURL:       draft.MediaURL,
		FileName:       draft.FileName,
		FileSize:       draft.FileSize,
		Status:         model.StatusNormal,
		CreatedAt:      time.Now(),
	}
	if _, err := s.db.Collection(collMessages).InsertOne(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "insert message")
	}

	return &model.MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderNickname: sender.Nickname,
		SenderAvatar:   sender.AvatarURL,
		Type:           msg.Type,
		Kind:           msg.Kind,
		Content:        msg.Content,
		MediaURL:       msg.MediaURL,
		FileName:       msg.FileName,
		FileSize:       msg.FileSize,
		Status:         msg.Status,
		CreatedAt:      msg.CreatedAt.UnixMilli(),
	}, nil
}

// History returns messages of one conversation created before the given
// instant, newest first. Ordering follows the durable creation
// timestamp, not arrival order.
func (s *MessageStore) History(ctx context.Context, conversationID string, before time.Time, limit int64) ([]model.MessageView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	filter := bson.M{
		"conversation_id": conversationID,
		"status":          bson.M{"$ne": model.StatusDeleted},
	}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cur, err := s.db.Collection(collMessages).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	var msgs []model.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}

	profiles, err := s.loadProfiles(ctx, lo.Uniq(lo.Map(msgs, func(m model.Message, _ int) int64 {
		return m.SenderID
	})))
	if err != nil {
		return nil, err
	}

	views := make([]model.MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := model.MessageView{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			Type:           m.Type,
			Kind:           m.Kind,
			Content:        m.Content,
			MediaURL:       m.MediaURL,
			FileName:       m.FileName,
			FileSize:       m.FileSize,
			Status:         m.Status,
			CreatedAt:      m.CreatedAt.UnixMilli(),
		}
		if u, ok := profiles[m.SenderID]; ok {
			v.SenderNickname = u.Nickname
			v.SenderAvatar = u.AvatarURL
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *MessageStore) loadProfiles(ctx context.Context, userIDs []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.db.Collection(collUsers).Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
