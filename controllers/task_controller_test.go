package controller

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tasknest/utils"
)

func TestClampPagination(t *testing.T) {
	cases := []struct {
		name                         string
		page, limit                  int
		wantPage, wantLimit, wantOff int
	}{
		{"defaults pass through", 1, 20, 1, 20, 0},
		{"zero page floors to 1", 0, 10, 1, 10, 0},
		{"negative page floors to 1", -3, 10, 1, 10, 0},
		{"zero limit floors to 1", 1, 0, 1, 1, 0},
		{"limit capped at 100", 1, 500, 1, 100, 0},
		{"page 2 limit 5 skips first 5", 2, 5, 2, 5, 5},
	}
	for _, tc := range cases {
		page, limit, offset := clampPagination(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page, tc.name)
		assert.Equal(t, tc.wantLimit, limit, tc.name)
		assert.Equal(t, tc.wantOff, offset, tc.name)
	}
}

func TestPaginationWindowOverTwelveTasks(t *testing.T) {
	// 12 tasks at limit 5: page 2 covers ranks 6 through 10 of the
	// newest-first ordering, and the listing reports 3 pages.
	page, limit, offset := clampPagination(2, 5)

	assert.Equal(t, 5, offset, "page 2 starts at the sixth task")
	assert.Equal(t, 10, offset+limit, "and ends at the tenth")
	assert.Equal(t, 3, utils.TotalPages(12, limit))
	assert.Equal(t, 2, page)
}

func TestDueDateFilterBoundary(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	cutoff := dueDateUpperBound(day)

	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), cutoff)

	endOfDay := time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)
	assert.True(t, endOfDay.Before(cutoff), "last second of the day is included")
	assert.False(t, cutoff.Before(cutoff), "a task due exactly at the next midnight is excluded")
}

func TestLockTaskSerializesSameTask(t *testing.T) {
	tc := &TaskController{}

	var inFlight, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := tc.lockTask(42)
			defer unlock()
			if atomic.AddInt32(&inFlight, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps), "critical sections for one task must not interleave")
}

func TestLockTaskIndependentTasks(t *testing.T) {
	tc := &TaskController{}

	unlockA := tc.lockTask(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := tc.lockTask(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different task blocked")
	}
}
