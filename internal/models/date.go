package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate is returned for dates that are neither YYYY-MM-DD nor RFC 3339
var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts a calendar date (YYYY-MM-DD, read as UTC midnight) or a
// full RFC 3339 timestamp
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}
