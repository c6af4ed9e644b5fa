package chat

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"EasyChat/module/chat/conv"
	"EasyChat/module/chat/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakePeer struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (p *fakePeer) Push(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return ErrSendQueueFull
	}
	p.frames = append(p.frames, payload)
	return nil
}

func (p *fakePeer) received() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

type fakeStore struct {
	mu      sync.Mutex
	fail    bool
	nextID  int64
	created int
}

func (s *fakeStore) CreateMessage(_ context.Context, senderID int64, conversationID string, draft *model.MessageDraft) (*model.MessageView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("mongo down")
	}
	s.nextID++
	s.created++
	return &model.MessageView{
		ID:             s.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderNickname: "user-" + strconv.FormatInt(senderID, 10),
		Type:           draft.Type,
		Kind:           draft.Kind,
		Content:        draft.Content,
		Status:         model.StatusNormal,
	}, nil
}

type fakeMembership struct {
	members  map[int64][]int64
	failList bool
}

func (m *fakeMembership) ListMembers(_ context.Context, groupID int64) ([]int64, error) {
	if m.failList {
		return nil, errors.New("mongo down")
	}
	return m.members[groupID], nil
}

func (m *fakeMembership) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	for _, uid := range m.members[groupID] {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakePresence struct {
	mu            sync.Mutex
	active        map[int64]string
	unread        map[string]int64
	renews        map[int64]int
	failGetActive bool
	failIncrement bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		active: make(map[int64]string),
		unread: make(map[string]int64),
		renews: make(map[int64]int),
	}
}

func unreadMapKey(userID int64, conversationID string) string {
	return strconv.FormatInt(userID, 10) + ":" + conversationID
}

func (p *fakePresence) GetActive(_ context.Context, userID int64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failGetActive {
		return "", errors.New("redis down")
	}
	return p.active[userID], nil
}

func (p *fakePresence) RenewActive(_ context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renews[userID]++
	return nil
}

func (p *fakePresence) IncrementUnread(_ context.Context, userID int64, conversationID string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failIncrement {
		return 0, errors.New("redis down")
	}
	k := unreadMapKey(userID, conversationID)
	p.unread[k]++
	return p.unread[k], nil
}

func (p *fakePresence) unreadOf(userID int64, conversationID string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread[unreadMapKey(userID, conversationID)]
}

func (p *fakePresence) renewsOf(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renews[userID]
}

type routerFixture struct {
	router     *Router
	reg        *Registry
	store      *fakeStore
	membership *fakeMembership
	presence   *fakePresence
}

func newFixture(deliverOnOutage bool) *routerFixture {
	reg := NewRegistry()
	store := &fakeStore{}
	membership := &fakeMembership{members: map[int64][]int64{}}
	presence := newFakePresence()
	return &routerFixture{
		router:     NewRouter(reg, store, membership, presence, RouterConfig{DeliverOnPresenceOutage: deliverOnOutage}),
		reg:        reg,
		store:      store,
		membership: membership,
		presence:   presence,
	}
}

func singleText(receiverID int64) *InboundFrame {
	return &InboundFrame{
		MessageType:      model.MessageText,
		ConversationType: model.ConversationSingle,
		ReceiverID:       receiverID,
		Content:          "hello",
	}
}

func groupText(groupID int64) *InboundFrame {
	return &InboundFrame{
		MessageType:      model.MessageText,
		ConversationType: model.ConversationGroup,
		GroupID:          groupID,
		Content:          "hello all",
	}
}

// ---- scenarios ----

func TestSendSingleActiveRecipient(t *testing.T) {
	f := newFixture(true)
	cid := conv.Single(1, 2)

	peer := &fakePeer{}
	f.reg.Register(2, peer)
	f.presence.active[2] = cid

	view, err := f.router.Send(context.Background(), 1, singleText(2))
	require.NoError(t, err)
	assert.Equal(t, cid, view.ConversationID)

	assert.Equal(t, 1, peer.received())
	assert.EqualValues(t, 0, f.presence.unreadOf(2, cid))
	assert.Equal(t, 1, f.presence.renewsOf(2))
}

func TestSendSingleInactiveRecipient(t *testing.T) {
	f := newFixture(true)
	cid := conv.Single(1, 2)

	peer := &fakePeer{}
	f.reg.Register(2, peer)
	f.presence.active[2] = conv.Group(99) // viewing something else

	_, err := f.router.Send(context.Background(), 1, singleText(2))
	require.NoError(t, err)

	assert.Equal(t, 1, peer.received())
	assert.EqualValues(t, 1, f.presence.unreadOf(2, cid))
	assert.Equal(t, 0, f.presence.renewsOf(2))
}

func TestSendSingleOfflineRecipient(t *testing.T) {
	f := newFixture(true)
	cid := conv.Single(1, 2)

	_, err := f.router.Send(context.Background(), 1, singleText(2))
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.presence.unreadOf(2, cid))
}

func TestSendRejectsSelfChat(t *testing.T) {
	f := newFixture(true)
	_, err := f.router.Send(context.Background(), 1, singleText(1))
	assert.True(t, errors.Is(err, ErrInvalidMessage))
	assert.Equal(t, 0, f.store.created)
}

func TestSendRejectsNonMember(t *testing.T) {
	f := newFixture(true)
	f.membership.members[5] = []int64{2, 3}

	_, err := f.router.Send(context.Background(), 1, groupText(5))
	assert.True(t, errors.Is(err, ErrNotAMember))
	assert.Equal(t, 0, f.store.created)
}

func TestSendAbortsOnPersistenceFailure(t *testing.T) {
	f := newFixture(true)
	f.store.fail = true

	peer := &fakePeer{}
	f.reg.Register(2, peer)

	_, err := f.router.Send(context.Background(), 1, singleText(2))
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, 0, peer.received())
	assert.EqualValues(t, 0, f.presence.unreadOf(2, conv.Single(1, 2)))
}

func TestGroupFanout(t *testing.T) {
	f := newFixture(true)
	const sender, active, inactive, offline = 1, 2, 3, 4
	f.membership.members[9] = []int64{sender, active, inactive, offline}
	cid := conv.Group(9)

	senderPeer := &fakePeer{}
	activePeer := &fakePeer{}
	inactivePeer := &fakePeer{}
	f.reg.Register(sender, senderPeer)
	f.reg.Register(active, activePeer)
	f.reg.Register(inactive, inactivePeer)
	f.presence.active[active] = cid

	_, err := f.router.Send(context.Background(), sender, groupText(9))
	require.NoError(t, err)

	// sender is never its own recipient
	assert.Equal(t, 0, senderPeer.received())
	assert.EqualValues(t, 0, f.presence.unreadOf(sender, cid))

	assert.Equal(t, 1, activePeer.received())
	assert.EqualValues(t, 0, f.presence.unreadOf(active, cid))
	assert.Equal(t, 1, f.presence.renewsOf(active))

	assert.Equal(t, 1, inactivePeer.received())
	assert.EqualValues(t, 1, f.presence.unreadOf(inactive, cid))

	assert.EqualValues(t, 1, f.presence.unreadOf(offline, cid))
}

func TestPushFailureDoesNotAbortFanout(t *testing.T) {
	f := newFixture(true)
	f.membership.members[9] = []int64{1, 2, 3}
	cid := conv.Group(9)

	broken := &fakePeer{fail: true}
	healthy := &fakePeer{}
	f.reg.Register(2, broken)
	f.reg.Register(3, healthy)

	_, err := f.router.Send(context.Background(), 1, groupText(9))
	require.NoError(t, err)

	assert.Equal(t, 1, healthy.received())
	// the bookkeeping decision stands even though the push failed
	assert.EqualValues(t, 1, f.presence.unreadOf(2, cid))
	assert.EqualValues(t, 1, f.presence.unreadOf(3, cid))
}

func TestPresenceOutageDegradedDelivery(t *testing.T) {
	f := newFixture(true)
	f.presence.failGetActive = true
	f.presence.failIncrement = true

	peer := &fakePeer{}
	f.reg.Register(2, peer)

	_, err := f.router.Send(context.Background(), 1, singleText(2))
	require.NoError(t, err)

	// delivered live, bookkeeping skipped
	assert.Equal(t, 1, peer.received())
	assert.EqualValues(t, 0, f.presence.unreadOf(2, conv.Single(1, 2)))
}

func TestPresenceOutageStrictWithholdsDelivery(t *testing.T) {
	f := newFixture(false)
	f.presence.failGetActive = true

	peer := &fakePeer{}
	f.reg.Register(2, peer)

	_, err := f.router.Send(context.Background(), 1, singleText(2))
	require.NoError(t, err) // message is durably recorded either way

	assert.Equal(t, 0, peer.received())
}

func TestConcurrentSendsKeepEveryUnread(t *testing.T) {
	f := newFixture(true)
	cid := conv.Single(1, 2)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.router.Send(context.Background(), 1, singleText(2))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, n, f.presence.unreadOf(2, cid))
	assert.Equal(t, n, f.store.created)
}
