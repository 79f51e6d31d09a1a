package main

import (
	"testing"
	"time"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{1, "1"},
		{100, "100"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-45230, "-45,230"},
	}

	for _, tt := range tests {
		if got := formatCount(tt.input); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "$0"},
		{605.8, "$606"},
		{52247.25, "$52,247"},
		{-1500, "-$1,500"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.input); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0.0%"},
		{0.149, "14.9%"},
		{1, "100.0%"},
		{37.5, "37.5%"},
	}
	for _, tt := range tests {
		if got := formatRate(tt.input); got != tt.want {
			t.Errorf("formatRate(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatPointers(t *testing.T) {
	f, i := 52000.5, 3
	if got := formatFloatPtr(&f); got != "52000.5" {
		t.Errorf("formatFloatPtr = %q", got)
	}
	if got := formatFloatPtr(nil); got != "-" {
		t.Errorf("formatFloatPtr(nil) = %q", got)
	}
	if got := formatIntPtr(&i); got != "3" {
		t.Errorf("formatIntPtr = %q", got)
	}
	if got := formatIntPtr(nil); got != "-" {
		t.Errorf("formatIntPtr(nil) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{12 * time.Second, "12s"},
		{4*time.Minute + 30*time.Second, "4m"},
		{3*time.Hour + 12*time.Minute, "3h12m"},
		{26 * time.Hour, "26h00m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.input); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{-1, "-"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long segment name", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestFlagName(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"income", "income"},
		{"mntWines", "mnt-wines"},
		{"numWebPurchases", "num-web-purchases"},
		{"acceptedCmp1", "accepted-cmp-1"},
	}
	for _, tt := range tests {
		if got := flagName(tt.input); got != tt.want {
			t.Errorf("flagName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
