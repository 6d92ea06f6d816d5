package history

import (
	"time"

	"golang.org/x/text/language"
)

// DefaultMaxDepth is the default number of records kept.
const DefaultMaxDepth = 10

// Option configures a History during creation.
type Option func(*History)

// WithMaxDepth sets the maximum number of records kept.
// Values below 1 select DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxDepth = n
		}
	}
}

// WithReleaseHook sets a function called for every value the history frees.
func WithReleaseHook(fn func(Release)) Option {
	return func(h *History) {
		if fn != nil {
			h.onRelease = fn
		}
	}
}

// WithLanguage sets the language of action descriptions.
func WithLanguage(tag language.Tag) Option {
	return func(h *History) {
		h.lang = tag
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}
