package models

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-09", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), false},
		{" 2026-03-09 ", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), false},
		{"2026-03-09T10:30:00Z", time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC), false},
		{"09/03/2026", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
