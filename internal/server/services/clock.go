package services

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing UTC timestamps with microsecond
// resolution, the precision PostgreSQL keeps. Diaries created within the
// same microsecond still get distinct, ordered dates.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
