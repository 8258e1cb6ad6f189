package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newFakeClock(start time.Time) (*Service, func(d time.Duration)) {
	current := start
	s := New()
	s.now = func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return s, advance
}

func TestRemainingBeforeConsumeIsZero(t *testing.T) {
	s, _ := newFakeClock(time.Unix(1000, 0))
	assert.Equal(t, 0, s.Remaining("daily", "123"))
}

func TestRemainingCountsDown(t *testing.T) {
	s, advance := newFakeClock(time.Unix(1000, 0))
	s.Consume("daily", "123", 5)

	assert.Equal(t, 5, s.Remaining("daily", "123"))
	advance(2 * time.Second)
	assert.Equal(t, 3, s.Remaining("daily", "123"))
	advance(3 * time.Second)
	assert.Equal(t, 0, s.Remaining("daily", "123"))
}

func TestRemainingRoundsUp(t *testing.T) {
	s, advance := newFakeClock(time.Unix(1000, 0))
	s.Consume("daily", "123", 5)

	advance(4500 * time.Millisecond)
	assert.Equal(t, 1, s.Remaining("daily", "123"))
}

func TestCooldownsAreScopedPerUserAndCommand(t *testing.T) {
	s, _ := newFakeClock(time.Unix(1000, 0))
	s.Consume("daily", "123", 5)

	assert.Equal(t, 0, s.Remaining("daily", "456"))
	assert.Equal(t, 0, s.Remaining("profile", "123"))
	assert.Equal(t, 5, s.Remaining("daily", "123"))
}

func TestConsumeResetsExpiry(t *testing.T) {
	s, advance := newFakeClock(time.Unix(1000, 0))
	s.Consume("daily", "123", 5)
	advance(4 * time.Second)
	s.Consume("daily", "123", 5)

	assert.Equal(t, 5, s.Remaining("daily", "123"))
}

func TestExpiredEntryIsEvictedOnLookup(t *testing.T) {
	s, advance := newFakeClock(time.Unix(1000, 0))
	s.Consume("daily", "123", 1)
	advance(2 * time.Second)

	assert.Equal(t, 0, s.Remaining("daily", "123"))
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.entries)
}

func TestSweepEvictsExpiredEntries(t *testing.T) {
	s := New()
	s.Consume("daily", "123", 0)
	s.Consume("profile", "456", 600)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Sweep(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, expired := s.entries[key("daily", "123")]
		_, live := s.entries[key("profile", "456")]
		return !expired && live
	}, time.Second, 10*time.Millisecond)
	cancel()
}
