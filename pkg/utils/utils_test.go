package utils

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseInvariant(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3.45", 3.45, true},
		{" 270 ", 270, true},
		{"-12.5", -12.5, true},
		{"+7", 7, true},
		{"3,45", 0, false},
		{"1,000.5", 0, false},
		{".5", 0, false},
		{"5.", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInvariant(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseInvariant(%q) = (%v, %v), esperado (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatInvariant(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3.45, "3.45"},
		{270, "270"},
		{-0.5, "-0.5"},
		{1234567.25, "1234567.25"},
	}
	for _, tt := range tests {
		if got := FormatInvariant(tt.in); got != tt.want {
			t.Errorf("FormatInvariant(%v) = %q, esperado %q", tt.in, got, tt.want)
		}
	}

	if got := FormatOptional(1.5, false); got != "" {
		t.Errorf("FormatOptional ausente = %q, esperado vazio", got)
	}
}

func TestFormatSortable(t *testing.T) {
	ts := time.Date(2026, 3, 7, 9, 5, 1, 999, time.Local)
	if got := FormatSortable(ts); got != "2026-03-07T09:05:01" {
		t.Errorf("FormatSortable = %q", got)
	}
}

func TestDatedFileName(t *testing.T) {
	ts := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	want := filepath.Join("dados", "wind_2026-10-19.csv")
	if got := DatedFileName("dados", "wind", ".csv", ts); got != want {
		t.Errorf("DatedFileName = %q, esperado %q", got, want)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Millisecond, "2s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Second, "2h 0m 5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, esperado %q", tt.in, got, tt.want)
		}
	}
}
