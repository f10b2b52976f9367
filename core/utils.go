package core

import (
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates (joining dates, attendance days...).
const DateLayout = "2006-01-02"

// NowFunc is mockable.
var NowFunc = func() time.Time { return time.Now().UTC() }

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Today returns the current date in DateLayout.
func Today() string {
	return NowFunc().Format(DateLayout)
}
