package chat

import (
	"context"
	"encoding/json"

	"EasyChat/logger"
	"EasyChat/module/chat/conv"
	"EasyChat/module/chat/model"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// MessageStore is the persistence collaborator: a durable create that
// yields the immutable view fan-out works with.
type MessageStore interface {
	CreateMessage(ctx context.Context, senderID int64, conversationID string, draft *model.MessageDraft) (*model.MessageView, error)
}

// Membership is the group-membership collaborator.
type Membership interface {
	ListMembers(ctx context.Context, groupID int64) ([]int64, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Presence is the slice of the marker/counter store fan-out consults
// per recipient.
type Presence interface {
	GetActive(ctx context.Context, userID int64) (string, error)
	RenewActive(ctx context.Context, userID int64) error
	IncrementUnread(ctx context.Context, userID int64, conversationID string) (int64, error)
}

// RouterConfig selects the behavior when the presence backend is down.
// Deliver-anyway trades unread accuracy for availability; the strict
// mode withholds delivery until bookkeeping succeeds.
type RouterConfig struct {
	DeliverOnPresenceOutage bool
}

// Router turns one inbound message into a durable record plus a
// per-recipient delivery/bookkeeping decision:
//
//	offline            -> unread+1, no push
//	online, viewing    -> push, renew marker, unread untouched
//	online, elsewhere  -> push and unread+1
//
// Persist-first is the consistency boundary: a recorded message that
// never got pushed is recovered by history fetch; the reverse must
// never happen.
type Router struct {
	reg        *Registry
	store      MessageStore
	membership Membership
	presence   Presence
	cfg        RouterConfig
}

func NewRouter(reg *Registry, store MessageStore, membership Membership, presence Presence, cfg RouterConfig) *Router {
	return &Router{reg: reg, store: store, membership: membership, presence: presence, cfg: cfg}
}

// Send runs the full pipeline for one message from an authenticated
// sender. Validation and membership failures abort with no side
// effects; push failures after the durable create are per-recipient and
// never abort the rest of the fan-out.
func (r *Router) Send(ctx context.Context, senderID int64, frame *InboundFrame) (*model.MessageView, error) {
	if frame == nil {
		return nil, errors.Wrap(ErrInvalidMessage, "nil frame")
	}
	if err := validate.Struct(frame); err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "validate frame: %v", err)
	}

	var conversationID string
	switch frame.ConversationType {
	case model.ConversationSingle:
		if frame.ReceiverID == senderID {
			return nil, errors.Wrap(ErrInvalidMessage, "cannot send to self")
		}
		conversationID = conv.Single(senderID, frame.ReceiverID)
	case model.ConversationGroup:
		ok, err := r.membership.IsMember(ctx, frame.GroupID, senderID)
		if err != nil {
			return nil, errors.Wrap(err, "membership check")
		}
		if !ok {
			return nil, errors.Wrapf(ErrNotAMember, "user %d group %d", senderID, frame.GroupID)
		}
		conversationID = conv.Group(frame.GroupID)
	default:
		return nil, errors.Wrapf(ErrInvalidMessage, "conversation type %d", frame.ConversationType)
	}

	view, err := r.store.CreateMessage(ctx, senderID, conversationID, frame.Draft())
	if err != nil {
		return nil, errors.Wrapf(ErrPersistence, "%v", err)
	}

	recipients, err := r.recipients(ctx, senderID, frame)
	if err != nil {
		// The message is durably recorded; recipients catch up via
		// history. Treated like a failed push, not a failed send.
		logger.Errorf("[router] recipient set failed conv=%s err=%v", conversationID, err)
		return view, nil
	}

	payload, err := json.Marshal(view)
	if err != nil {
		logger.Errorf("[router] marshal view failed conv=%s err=%v", conversationID, err)
		return view, nil
	}

	for _, rid := range recipients {
		r.deliver(ctx, rid, conversationID, payload)
	}
	return view, nil
}

// recipients computes the point-in-time recipient set; the sender never
// receives its own message.
func (r *Router) recipients(ctx context.Context, senderID int64, frame *InboundFrame) ([]int64, error) {
	if frame.ConversationType == model.ConversationSingle {
		return []int64{frame.ReceiverID}, nil
	}
	members, err := r.membership.ListMembers(ctx, frame.GroupID)
	if err != nil {
		return nil, errors.Wrap(err, "list group members")
	}
	return lo.Uniq(lo.Filter(members, func(uid int64, _ int) bool {
		return uid != senderID
	})), nil
}

// deliver applies the three-way policy for one recipient. Failures are
// logged and isolated; an earlier bookkeeping decision is never rolled
// back because of a later push failure.
func (r *Router) deliver(ctx context.Context, recipientID int64, conversationID string, payload []byte) {
	sess := r.reg.Lookup(recipientID)

	if sess == nil {
		if _, err := r.presence.IncrementUnread(ctx, recipientID, conversationID); err != nil {
			logger.Errorf("[router] unread skipped (backend down) user=%d conv=%s err=%v",
				recipientID, conversationID, err)
		}
		return
	}

	active, err := r.presence.GetActive(ctx, recipientID)
	if err != nil {
		if r.cfg.DeliverOnPresenceOutage {
			// Degraded mode: keep the live push, drop the bookkeeping.
			logger.Errorf("[router] presence lookup failed, delivering without bookkeeping user=%d conv=%s err=%v",
				recipientID, conversationID, err)
			r.push(sess, recipientID, conversationID, payload)
		} else {
			logger.Errorf("[router] presence lookup failed, withholding delivery user=%d conv=%s err=%v",
				recipientID, conversationID, err)
		}
		return
	}

	if active == conversationID {
		// Recipient is looking at this conversation: no unread bump,
		// and a successful push refreshes the marker.
		if r.push(sess, recipientID, conversationID, payload) {
			if err := r.presence.RenewActive(ctx, recipientID); err != nil {
				logger.Errorf("[router] renew marker failed user=%d err=%v", recipientID, err)
			}
		}
		return
	}

	if !r.cfg.DeliverOnPresenceOutage {
		// Strict mode: bookkeeping must land before the push.
		if _, err := r.presence.IncrementUnread(ctx, recipientID, conversationID); err != nil {
			logger.Errorf("[router] unread failed, withholding delivery user=%d conv=%s err=%v",
				recipientID, conversationID, err)
			return
		}
		r.push(sess, recipientID, conversationID, payload)
		return
	}

	r.push(sess, recipientID, conversationID, payload)
	if _, err := r.presence.IncrementUnread(ctx, recipientID, conversationID); err != nil {
		logger.Errorf("[router] unread skipped (backend down) user=%d conv=%s err=%v",
			recipientID, conversationID, err)
	}
}

func (r *Router) push(sess Peer, recipientID int64, conversationID string, payload []byte) bool {
	if err := sess.Push(payload); err != nil {
		logger.Warnf("[router] push failed user=%d conv=%s err=%v", recipientID, conversationID, err)
		return false
	}
	return true
}
