// Package models holds the rate limit result and policy types shared by the
// bucket stores and the HTTP middleware.
package models

import (
	"strings"
	"time"
)

// Policy is a sliding window: at most Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool { return p.Limit > 0 && p.Window > 0 }

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}

// SanitizeKeySegment replaces the key delimiter so a caller-supplied segment
// cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds a bucket key of the form "rl:<class>:<subject>".
func Key(class, subject string) string {
	return "rl:" + SanitizeKeySegment(class) + ":" + SanitizeKeySegment(subject)
}

// RetryAfterSeconds rounds the wait up to whole seconds, minimum one.
func RetryAfterSeconds(now, resetAt time.Time) int {
	wait := resetAt.Sub(now)
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
