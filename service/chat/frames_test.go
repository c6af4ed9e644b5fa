package chat

import (
	"testing"

	"EasyChat/module/chat/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInboundSingle(t *testing.T) {
	raw := []byte(`{"messageType":1,"conversationType":1,"receiverId":42,"content":"hi"}`)
	f, err := ParseInbound(raw)
	require.NoError(t, err)
	assert.Equal(t, model.MessageText, f.MessageType)
	assert.Equal(t, model.ConversationSingle, f.ConversationType)
	assert.EqualValues(t, 42, f.ReceiverID)

	d := f.Draft()
	assert.Equal(t, "hi", d.Content)
	assert.Equal(t, model.MessageText, d.Type)
}

func TestParseInboundGroupFile(t *testing.T) {
	raw := []byte(`{"messageType":5,"conversationType":2,"groupId":9,"mediaUrl":"https://cdn/x.pdf","fileName":"x.pdf","fileSize":1024}`)
	f, err := ParseInbound(raw)
	require.NoError(t, err)
	assert.Equal(t, model.MessageFile, f.MessageType)
	assert.EqualValues(t, 9, f.GroupID)
	assert.EqualValues(t, 1024, f.FileSize)
}

func TestParseInboundRejects(t *testing.T) {
	cases := map[string][]byte{
		"bad json":           []byte(`{"messageType":`),
		"missing type":       []byte(`{"conversationType":1,"receiverId":1}`),
		"unknown type":       []byte(`{"messageType":9,"conversationType":1,"receiverId":1}`),
		"missing kind":       []byte(`{"messageType":1,"receiverId":1}`),
		"unknown kind":       []byte(`{"messageType":1,"conversationType":3,"receiverId":1}`),
		"single no receiver": []byte(`{"messageType":1,"conversationType":1}`),
		"group no group":     []byte(`{"messageType":1,"conversationType":2}`),
	}
	for name, raw := range cases {
		_, err := ParseInbound(raw)
		assert.Truef(t, errors.Is(err, ErrInvalidMessage), "%s: %v", name, err)
	}
}

func TestMarshalErrorFrame(t *testing.T) {
	assert.JSONEq(t, `{"error":"boom"}`, string(MarshalErrorFrame("boom")))
}
