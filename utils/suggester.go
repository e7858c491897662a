package utils

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Suggestion is the assistant's guess at priority and due date for a task
// being drafted. It is advisory only; the client may ignore it.
type Suggestion struct {
	Priority string    `json:"priority"`
	DueDate  time.Time `json:"due_date"`
}

// Suggester produces priority/deadline suggestions from a task title.
// Results are cached per user+title; any failure falls back to defaults so
// the request never fails on the suggestion path.
type Suggester struct {
	cache *Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewSuggester(cache *Cache) *Suggester {
	return &Suggester{cache: cache, ttl: 24 * time.Hour, now: time.Now}
}

func (s *Suggester) Suggest(ctx context.Context, userID uint, title string) Suggestion {
	key := s.cacheKey(userID, title)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached Suggestion
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached
		}
	}

	sug := s.heuristic(title)
	if raw, err := json.Marshal(sug); err == nil {
		s.cache.Set(ctx, key, raw, s.ttl)
	}
	return sug
}

func (s *Suggester) cacheKey(userID uint, title string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(title))))
	return fmt.Sprintf("suggest:%d:%s", userID, hex.EncodeToString(sum[:]))
}

var urgentWords = []string{"urgent", "asap", "immediately", "critical", "blocker", "today", "fix", "bug", "outage"}
var relaxedWords = []string{"someday", "maybe", "idea", "eventually", "nice to have", "backlog"}

// heuristic is the default suggester. A model-backed implementation can
// replace it behind the same cache without touching callers.
func (s *Suggester) heuristic(title string) Suggestion {
	lower := strings.ToLower(title)

	priority := "Medium"
	days := 3
	for _, w := range urgentWords {
		if strings.Contains(lower, w) {
			priority = "High"
			days = 1
			break
		}
	}
	if priority == "Medium" {
		for _, w := range relaxedWords {
			if strings.Contains(lower, w) {
				priority = "Low"
				days = 14
				break
			}
		}
	}

	return Suggestion{
		Priority: priority,
		DueDate:  s.now().AddDate(0, 0, days).Truncate(24 * time.Hour),
	}
}
