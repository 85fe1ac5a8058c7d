package app

import (
	"time"

	"github.com/go-chi/httprate"
)

// fixedWindowCounter hides the previous window from httprate, turning its
// sliding estimate into a plain per-window count that resets on rollover.
type fixedWindowCounter struct {
	httprate.LimitCounter
}

func newFixedWindowCounter(window time.Duration) fixedWindowCounter {
	return fixedWindowCounter{LimitCounter: httprate.NewLocalLimitCounter(window)}
}

func (c fixedWindowCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	curr, _, err := c.LimitCounter.Get(key, currentWindow, previousWindow)
	return curr, 0, err
}
