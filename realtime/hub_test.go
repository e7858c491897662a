package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tasknest/models"
)

type fakeSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *fakeSink) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeSink) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func TestPersonalChannelOnConnect(t *testing.T) {
	h := NewHub(nil)
	sink := &fakeSink{}
	s := h.Connect(7, sink)
	defer h.Disconnect(s)

	h.Publish(UserTopic(7), Event{Name: EventTaskCreated}, nil)
	h.Publish(UserTopic(8), Event{Name: EventTaskCreated}, nil)

	require.Len(t, sink.received(), 1)
}

func TestRoomDelivery(t *testing.T) {
	h := NewHub(nil)
	a, b, c := &fakeSink{}, &fakeSink{}, &fakeSink{}
	sa := h.Connect(1, a)
	sb := h.Connect(2, b)
	h.Connect(3, c)

	h.Subscribe(sa, WorkspaceTopic(10))
	h.Subscribe(sb, WorkspaceTopic(10))

	h.Publish(WorkspaceTopic(10), Event{Name: EventTaskUpdated}, nil)

	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
	assert.Empty(t, c.received(), "session outside the room sees nothing")
}

func TestPublishSkipsOriginator(t *testing.T) {
	h := NewHub(nil)
	origin, other := &fakeSink{}, &fakeSink{}
	so := h.Connect(1, origin)
	st := h.Connect(2, other)
	h.Subscribe(so, WorkspaceTopic(5))
	h.Subscribe(st, WorkspaceTopic(5))

	h.Publish(WorkspaceTopic(5), Event{Name: EventTaskCreated}, so)

	assert.Empty(t, origin.received())
	assert.Len(t, other.received(), 1)
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	h := NewHub(nil)
	sink := &fakeSink{}
	s := h.Connect(1, sink)
	h.Subscribe(s, WorkspaceTopic(3))
	require.Equal(t, 1, h.Subscribers(WorkspaceTopic(3)))

	h.Unsubscribe(s, WorkspaceTopic(3))
	assert.Equal(t, 0, h.Subscribers(WorkspaceTopic(3)))

	h.Disconnect(s)
	assert.Equal(t, 0, h.Subscribers(UserTopic(1)))

	h.Publish(UserTopic(1), Event{Name: EventTaskDeleted}, nil)
	assert.Empty(t, sink.received())
}

func TestWriteFailureDoesNotStopFanout(t *testing.T) {
	h := NewHub(nil)
	broken := &fakeSink{err: errors.New("gone")}
	ok := &fakeSink{}
	sb := h.Connect(1, broken)
	so := h.Connect(2, ok)
	h.Subscribe(sb, WorkspaceTopic(1))
	h.Subscribe(so, WorkspaceTopic(1))

	h.Publish(WorkspaceTopic(1), Event{Name: EventTaskUpdated}, nil)

	assert.Len(t, ok.received(), 1)
}

func TestTaskTopicRouting(t *testing.T) {
	wsID := uint(4)
	shared := &models.Task{Model: gorm.Model{ID: 1}, OwnerID: 9, WorkspaceID: &wsID}
	personal := &models.Task{Model: gorm.Model{ID: 2}, OwnerID: 9}

	assert.Equal(t, "workspace:4", TaskTopic(shared))
	assert.Equal(t, "user:9", TaskTopic(personal))
}

// slowSink counts frames that arrive while another frame is still being
// written. The real connection panics in that situation, so any overlap at
// all is a defect.
type slowSink struct {
	inFlight int32
	overlaps int32
}

func (o *slowSink) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&o.inFlight, 1) > 1 {
		atomic.AddInt32(&o.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&o.inFlight, -1)
	return nil
}

func TestPublishSerializesWritesPerSession(t *testing.T) {
	h := NewHub(nil)
	sink := &slowSink{}
	s := h.Connect(1, sink)
	defer h.Disconnect(s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(UserTopic(1), Event{Name: EventTaskUpdated}, nil)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&sink.overlaps),
		"one session must never see two frames written at once")
}

func TestSessionWriteJSONSharedWithAcks(t *testing.T) {
	// Direct session writes (the join/leave acks) and hub publishes go
	// through the same lock.
	h := NewHub(nil)
	sink := &slowSink{}
	s := h.Connect(3, sink)
	defer h.Disconnect(s)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(UserTopic(3), Event{Name: EventTaskCreated}, nil)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WriteJSON(Event{Name: "ack"})
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&sink.overlaps))
}

func TestConcurrentSubscribePublish(t *testing.T) {
	h := NewHub(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n uint) {
			defer wg.Done()
			s := h.Connect(n, &fakeSink{})
			h.Subscribe(s, WorkspaceTopic(1))
			h.Publish(WorkspaceTopic(1), Event{Name: EventTaskUpdated}, nil)
			h.Unsubscribe(s, WorkspaceTopic(1))
			h.Disconnect(s)
		}(uint(i))
	}
	wg.Wait()
	assert.Equal(t, 0, h.Subscribers(WorkspaceTopic(1)))
}
