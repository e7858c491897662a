// Package realtime fans domain events out to connected websocket sessions.
// Delivery is best effort: there is no backlog and no replay, a client that
// misses events re-fetches state on reconnect.
package realtime

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink is the write half of a connected session. *websocket.Conn satisfies
// it; tests use an in-memory implementation.
type Sink interface {
	WriteJSON(v interface{}) error
}

// Session is one connected client. A session always listens on its user's
// personal channel and on the rooms of the workspaces it has joined.
type Session struct {
	UserID uint

	mu   sync.Mutex
	sink Sink
}

// WriteJSON sends one frame to the session. Frames are serialized through
// the session mutex: the underlying websocket connection tolerates only one
// writer at a time, and publishes arrive from arbitrary request goroutines.
func (s *Session) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.WriteJSON(v)
}

// Event is what goes over the wire, verbatim, to every subscriber of a topic.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub is the process-wide subscriber registry. It is safe for concurrent
// connect, disconnect and publish from any number of sessions.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Session]struct{}
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Session]struct{}),
		logger: logger,
	}
}

// WorkspaceTopic is the room for a workspace's events.
func WorkspaceTopic(workspaceID uint) string {
	return fmt.Sprintf("workspace:%d", workspaceID)
}

// UserTopic is a user's implicit personal channel.
func UserTopic(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// Connect registers a session and subscribes it to its personal channel.
func (h *Hub) Connect(userID uint, sink Sink) *Session {
	s := &Session{UserID: userID, sink: sink}
	h.Subscribe(s, UserTopic(userID))
	return s
}

// Disconnect removes the session from every topic.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, subs := range h.topics {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) Subscribe(s *Session, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Session]struct{})
		h.topics[topic] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) Unsubscribe(s *Session, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Subscribers returns the current subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish delivers ev to every current subscriber of topic. skip, when not
// nil, excludes the originating session so the initiator does not re-apply
// its own optimistic update. Write failures are logged and never propagate.
func (h *Hub) Publish(topic string, ev Event, skip *Session) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.topics[topic]))
	for s := range h.topics[topic] {
		if s == skip {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.WriteJSON(ev); err != nil && h.logger != nil {
			h.logger.WithFields(logrus.Fields{
				"topic":   topic,
				"event":   ev.Name,
				"user_id": s.UserID,
			}).WithError(err).Warn("realtime delivery failed")
		}
	}
}
