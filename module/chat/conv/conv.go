// Package conv encodes and decodes canonical conversation identifiers.
//
// A conversation id is self-describing so routing never needs a lookup
// table: single chats are "s_{min}_{max}" with the two participant ids
// ordered numerically, group chats are "g_{groupId}".
package conv

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind tags the two conversation shapes.
type Kind int

const (
	KindSingle Kind = iota + 1
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

const (
	singlePrefix = "s_"
	groupPrefix  = "g_"
	separator    = "_"
)

var (
	ErrMalformedIdentity = errors.New("malformed conversation id")
	ErrNotAParticipant   = errors.New("user is not a participant of this conversation")
)

// Single returns the canonical id for a two-party chat. The result is
// identical regardless of argument order; rejecting a == b is the
// caller's job.
func Single(a, b int64) string {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return singlePrefix + strconv.FormatInt(lo, 10) + separator + strconv.FormatInt(hi, 10)
}

// Group returns the canonical id for a group chat.
func Group(groupID int64) string {
	return groupPrefix + strconv.FormatInt(groupID, 10)
}

// Classify reports whether id addresses a single or a group chat.
func Classify(id string) (Kind, error) {
	switch {
	case strings.HasPrefix(id, singlePrefix):
		if _, _, err := singleParticipants(id); err != nil {
			return 0, err
		}
		return KindSingle, nil
	case strings.HasPrefix(id, groupPrefix):
		if _, err := GroupOf(id); err != nil {
			return 0, err
		}
		return KindGroup, nil
	default:
		return 0, errors.Wrapf(ErrMalformedIdentity, "id %q", id)
	}
}

// CounterpartOf extracts the other participant of a single chat.
func CounterpartOf(id string, selfID int64) (int64, error) {
	a, b, err := singleParticipants(id)
	if err != nil {
		return 0, err
	}
	switch selfID {
	case a:
		return b, nil
	case b:
		return a, nil
	default:
		return 0, errors.Wrapf(ErrNotAParticipant, "user %d in %q", selfID, id)
	}
}

// GroupOf extracts the group identity from a group chat id.
func GroupOf(id string) (int64, error) {
	if !strings.HasPrefix(id, groupPrefix) {
		return 0, errors.Wrapf(ErrMalformedIdentity, "id %q is not a group chat", id)
	}
	gid, err := strconv.ParseInt(id[len(groupPrefix):], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedIdentity, "id %q", id)
	}
	return gid, nil
}

// IsWellFormed is the total-function validator used by request-layer
// guards; it never returns an error.
func IsWellFormed(id string) bool {
	_, err := Classify(id)
	return err == nil
}

func singleParticipants(id string) (int64, int64, error) {
	if !strings.HasPrefix(id, singlePrefix) {
		return 0, 0, errors.Wrapf(ErrMalformedIdentity, "id %q is not a single chat", id)
	}
	parts := strings.Split(id, separator)
	if len(parts) != 3 {
		return 0, 0, errors.Wrapf(ErrMalformedIdentity, "id %q", id)
	}
	a, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrMalformedIdentity, "id %q", id)
	}
	b, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrMalformedIdentity, "id %q", id)
	}
	return a, b, nil
}
