package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "active_chat:42", activeChatKey(42))
	assert.Equal(t, "unread:42:s_1_42", unreadKey(42, "s_1_42"))
	assert.Equal(t, "unread:7:g_100", unreadKey(7, "g_100"))
}

func TestNewPresenceStoreDefaultsTTL(t *testing.T) {
	s := NewPresenceStore(nil, 0)
	assert.Equal(t, DefaultActiveTTL, s.activeTTL)
}
