// Package storage talks to the external key/value backend holding the
// two delivery-bookkeeping namespaces: TTL'd active-conversation markers
// and durable per-(user, conversation) unread counters.
package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultActiveTTL = 60 * time.Second

// active marker key: active_chat:<user>
// value: conversation id, sliding TTL controls "currently viewing"
func activeChatKey(userID int64) string {
	return "active_chat:" + strconv.FormatInt(userID, 10)
}

// unread counter key: unread:<user>:<conversation>
// value: integer, no TTL, cleared explicitly when the user reads
func unreadKey(userID int64, conversationID string) string {
	return "unread:" + strconv.FormatInt(userID, 10) + ":" + conversationID
}

// PresenceStore is the client for markers and counters. All counter
// mutations are single atomic round trips; marker writes are
// last-writer-wins by design.
type PresenceStore struct {
	rdb       redis.Cmdable
	activeTTL time.Duration
}

func NewPresenceStore(rdb redis.Cmdable, activeTTL time.Duration) *PresenceStore {
	if activeTTL <= 0 {
		activeTTL = DefaultActiveTTL
	}
	return &PresenceStore{rdb: rdb, activeTTL: activeTTL}
}

// SetActive declares the conversation the user is viewing right now,
// replacing any previous marker.
func (s *PresenceStore) SetActive(ctx context.Context, userID int64, conversationID string) error {
	err := s.rdb.Set(ctx, activeChatKey(userID), conversationID, s.activeTTL).Err()
	return errors.Wrap(err, "set active chat")
}

// GetActive returns the marker conversation id, or "" when it expired or
// was never set.
func (s *PresenceStore) GetActive(ctx context.Context, userID int64) (string, error) {
	val, err := s.rdb.Get(ctx, activeChatKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "get active chat")
	}
	return val, nil
}

// RenewActive resets the marker expiry without touching the value. A
// missing marker is left missing.
func (s *PresenceStore) RenewActive(ctx context.Context, userID int64) error {
	err := s.rdb.Expire(ctx, activeChatKey(userID), s.activeTTL).Err()
	return errors.Wrap(err, "renew active chat")
}

// IncrementUnread bumps the counter by one and returns the new value.
// INCR keeps concurrent senders from losing updates.
func (s *PresenceStore) IncrementUnread(ctx context.Context, userID int64, conversationID string) (int64, error) {
	n, err := s.rdb.Incr(ctx, unreadKey(userID, conversationID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "increment unread")
	}
	return n, nil
}

// ClearUnread deletes the counter, back to implicit zero.
func (s *PresenceStore) ClearUnread(ctx context.Context, userID int64, conversationID string) error {
	err := s.rdb.Del(ctx, unreadKey(userID, conversationID)).Err()
	return errors.Wrap(err, "clear unread")
}

// GetUnread returns the counter, 0 when absent.
func (s *PresenceStore) GetUnread(ctx context.Context, userID int64, conversationID string) (int64, error) {
	val, err := s.rdb.Get(ctx, unreadKey(userID, conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "get unread")
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse unread counter")
	}
	return n, nil
}

// BatchGetUnread fetches counters for many conversations in one MGET
// round trip; absent counters come back as 0. Used for conversation-list
// rendering, so N sequential GETs are deliberately avoided.
func (s *PresenceStore) BatchGetUnread(ctx context.Context, userID int64, conversationIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(conversationIDs))
	for i, cid := range conversationIDs {
		keys[i] = unreadKey(userID, cid)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "batch get unread")
	}

	for i, cid := range conversationIDs {
		out[cid] = 0
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		if str, ok := vals[i].(string); ok {
			if n, perr := strconv.ParseInt(str, 10, 64); perr == nil {
				out[cid] = n
			}
		}
	}
	return out, nil
}
