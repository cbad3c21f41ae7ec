// Package watermark persists the last-seen publication and modification times.
package watermark

import "time"

const (
	// Layout is the on-disk timestamp format.
	Layout = "2006-01-02T15:04:05"

	KeyLastNew      = "LAST_NEW_CVE"
	KeyLastModified = "LAST_MODIFIED_CVE"

	// DefaultLookback is how far back a fresh installation starts.
	DefaultLookback = 24 * time.Hour
)

// Watermark records the newest timestamps already reported, per category.
type Watermark struct {
	LastNew      time.Time
	LastModified time.Time
}

// Default returns the starting watermark relative to now.
func Default(now time.Time) time.Time {
	return now.UTC().Add(-DefaultLookback).Truncate(time.Second)
}

// Max returns the field-wise maximum of w and other.
func (w Watermark) Max(other Watermark) Watermark {
	if other.LastNew.After(w.LastNew) {
		w.LastNew = other.LastNew
	}
	if other.LastModified.After(w.LastModified) {
		w.LastModified = other.LastModified
	}
	return w
}

// Values renders w in its persisted form.
func (w Watermark) Values() map[string]string {
	return map[string]string{
		KeyLastNew:      w.LastNew.UTC().Format(Layout),
		KeyLastModified: w.LastModified.UTC().Format(Layout),
	}
}

func parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}
