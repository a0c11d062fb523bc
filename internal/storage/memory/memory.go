// Package memory provides in-process catalog and order stores for local runs
// and tests. Documents are kept in insertion order.
package memory

import (
	"time"

	"github.com/google/uuid"
)

type settings struct {
	newID   func() string
	nowFunc func() time.Time
}

// Option customises a memory store.
type Option func(*settings)

// WithIDs replaces the UUID generator used for new documents.
func WithIDs(newID func() string) Option {
	return func(s *settings) { s.newID = newID }
}

// WithClock replaces the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.nowFunc = now }
}

func newSettings(opts []Option) settings {
	s := settings{newID: uuid.NewString, nowFunc: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// window returns the [offset, offset+limit) slice bounds clamped to n.
func window(n, offset, limit int) (int, int) {
	if offset >= n {
		return n, n
	}
	if limit >= n-offset {
		return offset, n
	}
	return offset, offset + limit
}
