package chat

import "github.com/pkg/errors"

// userMessage maps a send failure onto the text of the error frame.
// Internal detail stays in the logs.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotAMember):
		return "you are not a member of this group"
	case errors.Is(err, ErrPersistence):
		return "message could not be saved, please retry"
	case errors.Is(err, ErrPresenceUnavailable):
		return "service temporarily degraded, please retry"
	case errors.Is(err, ErrInvalidMessage):
		return "invalid message: " + err.Error()
	default:
		return "message send failed"
	}
}

// Failure taxonomy of one send. Every router step returns one of these
// as an explicit value; nothing here is process-fatal.
var (
	// ErrInvalidMessage: malformed or incomplete draft. Reported to the
	// sender as an error frame; the connection stays open and nothing
	// was persisted.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrNotAMember: the sender is not currently in the target group.
	// Rejected before persistence.
	ErrNotAMember = errors.New("sender is not a member of the group")

	// ErrPersistence: the durable create failed; the whole send aborts
	// and nothing is fanned out.
	ErrPersistence = errors.New("message persistence failed")

	// ErrPresenceUnavailable: the marker/counter backend is unreachable.
	// Only surfaced when the degraded deliver-anyway policy is off.
	ErrPresenceUnavailable = errors.New("presence backend unavailable")
)
