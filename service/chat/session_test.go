package chat

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSessionPushQueueBound(t *testing.T) {
	sess := NewSession(1, nil, 2, time.Second)

	assert.NoError(t, sess.Push([]byte("a")))
	assert.NoError(t, sess.Push([]byte("b")))
	// queue full: drop, not block
	assert.True(t, errors.Is(sess.Push([]byte("c")), ErrSendQueueFull))
}

func TestSessionPushAfterClose(t *testing.T) {
	sess := NewSession(1, nil, 2, time.Second)
	sess.closeOnce.Do(func() { close(sess.done) })

	assert.True(t, sess.Closed())
	assert.True(t, errors.Is(sess.Push([]byte("a")), ErrSessionClosed))
}
