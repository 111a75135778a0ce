package models

import (
	"testing"
	"time"
)

func TestRaceKey_StringRoundtrip(t *testing.T) {
	tests := []struct {
		key  RaceKey
		want string
	}{
		{RaceKey{Date: "20260901", Venue: 12, Race: 7}, "20260901_12_7"},
		{RaceKey{Date: "20260901", Venue: 1, Race: 12}, "20260901_1_12"},
		{RaceKey{Date: "20261231", Venue: 24, Race: 1}, "20261231_24_1"},
	}
	for _, tt := range tests {
		got := tt.key.String()
		if got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseRaceKey(got)
		if err != nil {
			t.Fatalf("ParseRaceKey(%q) error: %v", got, err)
		}
		if parsed != tt.key {
			t.Errorf("ParseRaceKey(%q) = %+v, want %+v", got, parsed, tt.key)
		}
	}
}

func TestParseRaceKey_Invalid(t *testing.T) {
	for _, id := range []string{"", "20260901", "20260901_12", "20260901_x_7", "20260901_12_y", "2026_12_7"} {
		if _, err := ParseRaceKey(id); err == nil {
			t.Errorf("ParseRaceKey(%q) should fail", id)
		}
	}
}

func TestVenueName(t *testing.T) {
	if got := VenueName(1); got != "桐生" {
		t.Errorf("VenueName(1) = %q", got)
	}
	if got := VenueName(24); got != "大村" {
		t.Errorf("VenueName(24) = %q", got)
	}
	if got := VenueName(99); got != "会場99" {
		t.Errorf("VenueName(99) = %q", got)
	}
}

func TestOperatingDay_JST(t *testing.T) {
	// 16:30 UTC is already 01:30 next day in JST.
	utc := time.Date(2026, 9, 1, 16, 30, 0, 0, time.UTC)
	if got := OperatingDay(utc); got != "20260902" {
		t.Errorf("OperatingDay = %q, want 20260902", got)
	}

	jstMorning := time.Date(2026, 9, 1, 9, 0, 0, 0, JST)
	if got := OperatingDay(jstMorning); got != "20260901" {
		t.Errorf("OperatingDay = %q, want 20260901", got)
	}
}
