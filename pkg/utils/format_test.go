package utils

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 512, "512 B"},
		{"one kilobyte", 1024, "1.0 KB"},
		{"kilobytes", 2048, "2.0 KB"},
		{"megabytes", 5 * 1024 * 1024, "5.0 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.0 GB"},
		{"fractional", 1536, "1.5 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2023, 8, 19, 12, 5, 7, 0, time.UTC)
	if got, want := FormatTime(ts), "2023-08-19T12:05:07Z"; got != want {
		t.Errorf("FormatTime() = %q, want %q", got, want)
	}
}

func TestPrintJSON(t *testing.T) {
	if err := PrintJSON(map[string]string{"status": "ok"}); err != nil {
		t.Errorf("PrintJSON() error: %v", err)
	}
	// channels cannot be marshalled
	if err := PrintJSON(make(chan int)); err == nil {
		t.Error("PrintJSON() with unmarshallable value succeeded, want error")
	}
}
