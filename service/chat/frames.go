package chat

import (
	"encoding/json"

	"EasyChat/module/chat/model"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// InboundFrame is a client's "send this message" request, received as
// one JSON text frame on the live connection.
type InboundFrame struct {
	MessageType      model.MessageType      `json:"messageType" validate:"required,oneof=1 2 3 4 5 6 7"`
	ConversationType model.ConversationKind `json:"conversationType" validate:"required,oneof=1 2"`
	ReceiverID       int64                  `json:"receiverId,omitempty" validate:"required_if=ConversationType 1"`
	GroupID          int64                  `json:"groupId,omitempty" validate:"required_if=ConversationType 2"`
	Content          string                 `json:"content,omitempty"`
	MediaURL         string                 `json:"mediaUrl,omitempty"`
	FileName         string                 `json:"fileName,omitempty"`
	FileSize         int64                  `json:"fileSize,omitempty"`
}

// ParseInbound decodes and validates a raw text frame. All failures map
// to ErrInvalidMessage so the caller can answer with one error frame.
func ParseInbound(raw []byte) (*InboundFrame, error) {
	var f InboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "decode frame: %v", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "validate frame: %v", err)
	}
	return &f, nil
}

// Draft converts the frame into the persistence draft.
func (f *InboundFrame) Draft() *model.MessageDraft {
	return &model.MessageDraft{
		Type:     f.MessageType,
		Kind:     f.ConversationType,
		Content:  f.Content,
		MediaURL: f.MediaURL,
		FileName: f.FileName,
		FileSize: f.FileSize,
	}
}

// ErrorFrame is pushed to the sender when a send fails; the connection
// remains open.
type ErrorFrame struct {
	Error string `json:"error"`
}

func MarshalErrorFrame(msg string) []byte {
	b, err := json.Marshal(ErrorFrame{Error: msg})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return b
}
