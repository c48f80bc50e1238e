package websocket

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	id string

	mu       sync.Mutex
	messages [][]byte
	fail     bool
	closed   int
}

func newFakeSubscriber(id string) *fakeSubscriber {
	return &fakeSubscriber{id: id}
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeSubscriber) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeSubscriber) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, b := newFakeSubscriber("a"), newFakeSubscriber("b")
	require.NoError(t, hub.Subscribe(a))
	require.NoError(t, hub.Subscribe(b))

	delivered := hub.Broadcast([]byte(`{"type":"rooms_updated"}`))

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
}

func TestHub_FailingSubscriberIsDroppedOthersStillReceive(t *testing.T) {
	hub := NewHub()
	good := newFakeSubscriber("good")
	bad := newFakeSubscriber("bad")
	bad.fail = true
	require.NoError(t, hub.Subscribe(good))
	require.NoError(t, hub.Subscribe(bad))

	delivered := hub.Broadcast([]byte("x"))

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, good.received())
	assert.Equal(t, 1, bad.closeCount())
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast([]byte("y"))
	assert.Equal(t, 2, good.received())
	assert.Equal(t, 1, bad.closeCount())
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	a := newFakeSubscriber("a")
	require.NoError(t, hub.Subscribe(a))

	hub.Unsubscribe(a)
	hub.Unsubscribe(a)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.Broadcast([]byte("x")))
	assert.Equal(t, 0, a.received())
}

func TestHub_UnsubscribeStaleInstanceKeepsReplacement(t *testing.T) {
	hub := NewHub()
	old := newFakeSubscriber("same")
	fresh := newFakeSubscriber("same")
	require.NoError(t, hub.Subscribe(old))
	require.NoError(t, hub.Subscribe(fresh))

	hub.Unsubscribe(old)

	assert.Equal(t, 1, hub.ClientCount())
	hub.Broadcast([]byte("x"))
	assert.Equal(t, 1, fresh.received())
}

func TestHub_CloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub()
	a := newFakeSubscriber("a")
	require.NoError(t, hub.Subscribe(a))

	hub.Close()
	hub.Close()

	assert.Equal(t, 1, a.closeCount())
	assert.Equal(t, 0, hub.ClientCount())
	assert.ErrorIs(t, hub.Subscribe(newFakeSubscriber("late")), ErrHubClosed)
}

func TestHub_ConcurrentSubscribeBroadcastUnsubscribe(t *testing.T) {
	hub := NewHub()
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := newFakeSubscriber(fmt.Sprintf("sub-%d", i))
			if err := hub.Subscribe(sub); err != nil {
				t.Error(err)
				return
			}
			hub.Broadcast([]byte("tick"))
			hub.Unsubscribe(sub)
			hub.Unsubscribe(sub)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}
