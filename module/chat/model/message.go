package model

import "time"

// MessageType enumerates what a message carries.
type MessageType int32

const (
	MessageText     MessageType = 1
	MessageImage    MessageType = 2
	MessageVoice    MessageType = 3
	MessageVideo    MessageType = 4
	MessageFile     MessageType = 5
	MessageLocation MessageType = 6
	MessageSystem   MessageType = 7
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageVoice, MessageVideo,
		MessageFile, MessageLocation, MessageSystem:
		return true
	default:
		return false
	}
}

func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageImage:
		return "image"
	case MessageVoice:
		return "voice"
	case MessageVideo:
		return "video"
	case MessageFile:
		return "file"
	case MessageLocation:
		return "location"
	case MessageSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ConversationKind is the wire-level conversation type.
type ConversationKind int32

const (
	ConversationSingle ConversationKind = 1
	ConversationGroup  ConversationKind = 2
)

func (k ConversationKind) Valid() bool {
	switch k {
	case ConversationSingle, ConversationGroup:
		return true
	default:
		return false
	}
}

// MessageStatus tracks message lifecycle in storage.
type MessageStatus int32

const (
	StatusWithdrawn MessageStatus = 0
	StatusNormal    MessageStatus = 1
	StatusDeleted   MessageStatus = 2
)

// Message is the durable message record.
type Message struct {
	ID             int64            `bson:"_id"`
	ConversationID string           `bson:"conversation_id"`
	SenderID       int64            `bson:"sender_id"`
	Type           MessageType      `bson:"message_type"`
	Kind           ConversationKind `bson:"conversation_type"`
	Content        string           `bson:"content"`
	MediaURL       string           `bson:"media_url,omitempty"`
	FileName       string           `bson:"file_name,omitempty"`
	FileSize       int64            `bson:"file_size,omitempty"`
	Status         MessageStatus    `bson:"status"`
	CreatedAt      time.Time        `bson:"created_at"`
}

// MessageDraft is what a sender asks to have recorded; the store fills
// in identity, status and timestamps.
type MessageDraft struct {
	Type     MessageType
	Kind     ConversationKind
	Content  string
	MediaURL string
	FileName string
	FileSize int64
}

// MessageView is the immutable snapshot pushed to recipients over the
// wire. Field names follow the client protocol; never mutated after the
// durable create.
type MessageView struct {
	ID             int64            `json:"id"`
	ConversationID string           `json:"conversationId"`
	SenderID       int64            `json:"senderId"`
	SenderNickname string           `json:"senderNickname"`
	SenderAvatar   string           `json:"senderAvatar"`
	Type           MessageType      `json:"messageType"`
	Kind           ConversationKind `json:"conversationType"`
	Content        string           `json:"content,omitempty"`
	MediaURL       string           `json:"mediaUrl,omitempty"`
	FileName       string           `json:"fileName,omitempty"`
	FileSize       int64            `json:"fileSize,omitempty"`
	Status         MessageStatus    `json:"status"`
	CreatedAt      int64            `json:"createdAt"` // unix millis
}
