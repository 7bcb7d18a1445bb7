package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu        sync.Mutex
	msgs      []interface{}
	closed    bool
	failWrite bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("connection reset")
	}
	f.msgs = append(f.msgs, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHubBroadcastsToMatchingClientsOnly(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	leadConn := &fakeConn{}
	rescuerConn := &fakeConn{}
	hub.Register(leadConn, 1, "household_lead")
	hub.Register(rescuerConn, 2, "rescuer")

	hub.BroadcastTo(func(id uint, _ string) bool { return id == 1 },
		Message{Subject: "hello", Body: "world"})

	assert.Eventually(t, func() bool { return leadConn.messageCount() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, rescuerConn.messageCount())

	require.Len(t, leadConn.msgs, 1)
	msg, ok := leadConn.msgs[0].(Message)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Subject)
}

func TestHubBroadcastByRole(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	a := &fakeConn{}
	b := &fakeConn{}
	c := &fakeConn{}
	hub.Register(a, 1, "rescuer")
	hub.Register(b, 2, "rescuer")
	hub.Register(c, 3, "household_lead")

	hub.BroadcastTo(func(_ uint, role string) bool { return role == "rescuer" },
		Message{Subject: "alert", Body: "flood warning"})

	assert.Eventually(t, func() bool {
		return a.messageCount() == 1 && b.messageCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, c.messageCount())
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := &fakeConn{}
	client := hub.Register(conn, 1, "rescuer")
	hub.Unregister(client)
	assert.True(t, conn.isClosed())

	hub.BroadcastTo(func(uint, string) bool { return true }, Message{Subject: "x"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, conn.messageCount())
}

func TestHubDropsUnreachableClient(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	broken := &fakeConn{failWrite: true}
	hub.Register(broken, 1, "rescuer")

	hub.BroadcastTo(func(uint, string) bool { return true }, Message{Subject: "x"})

	assert.Eventually(t, broken.isClosed, time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub()

	a := &fakeConn{}
	b := &fakeConn{}
	hub.Register(a, 1, "rescuer")
	hub.Register(b, 2, "household_lead")

	hub.Close()
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())

	// Closing twice is safe.
	hub.Close()
}

func TestNotifierTargetsSingleUser(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	target := &fakeConn{}
	other := &fakeConn{}
	hub.Register(target, 7, "household_lead")
	hub.Register(other, 8, "household_lead")

	n := Notifier{Hub: hub}
	require.NoError(t, n.Send(7, "Welcome", "Your account has been created."))

	assert.Eventually(t, func() bool { return target.messageCount() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, other.messageCount())
}
