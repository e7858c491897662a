package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedSuggester() *Suggester {
	s := NewSuggester(&Cache{}) // disabled cache
	s.now = func() time.Time {
		return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSuggestUrgentTitle(t *testing.T) {
	s := fixedSuggester()
	sug := s.Suggest(context.Background(), 1, "URGENT: fix login outage")

	assert.Equal(t, "High", sug.Priority)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), sug.DueDate)
}

func TestSuggestRelaxedTitle(t *testing.T) {
	s := fixedSuggester()
	sug := s.Suggest(context.Background(), 1, "someday: reorganize bookmarks")

	assert.Equal(t, "Low", sug.Priority)
}

func TestSuggestDefault(t *testing.T) {
	s := fixedSuggester()
	sug := s.Suggest(context.Background(), 1, "write meeting notes")

	assert.Equal(t, "Medium", sug.Priority)
	assert.Equal(t, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), sug.DueDate)
}

func TestCacheKeyPerUserAndTitle(t *testing.T) {
	s := fixedSuggester()

	assert.Equal(t, s.cacheKey(1, "Plan sprint"), s.cacheKey(1, "  plan sprint "),
		"key is case and whitespace insensitive")
	assert.NotEqual(t, s.cacheKey(1, "plan sprint"), s.cacheKey(2, "plan sprint"))
	assert.NotEqual(t, s.cacheKey(1, "plan sprint"), s.cacheKey(1, "plan retro"))
}
