package utils

import "testing"

func TestComputeTotalHours(t *testing.T) {
	tests := []struct {
		name    string
		timeIn  string
		timeOut string
		want    float64
	}{
		{
			name:    "regular day excludes lunch break",
			timeIn:  "08:00",
			timeOut: "17:00",
			want:    8,
		},
		{
			name:    "early morning hour untouched by break",
			timeIn:  "00:00",
			timeOut: "01:00",
			want:    1,
		},
		{
			name:    "interval fully inside break",
			timeIn:  "12:00",
			timeOut: "13:00",
			want:    0,
		},
		{
			name:    "partial break overlap",
			timeIn:  "11:30",
			timeOut: "13:30",
			want:    1,
		},
		{
			name:    "overnight shift avoiding break",
			timeIn:  "23:00",
			timeOut: "01:00",
			want:    2,
		},
		{
			name:    "twelve hour meridiem form crossing break",
			timeIn:  "12:00 AM",
			timeOut: "1:00 PM",
			want:    12,
		},
		{
			name:    "equal times are zero not a full day",
			timeIn:  "09:00",
			timeOut: "09:00",
			want:    0,
		},
		{
			name:    "overnight with break after midnight",
			timeIn:  "22:00",
			timeOut: "12:30",
			want:    14,
		},
		{
			name:    "fractional result rounds to two decimals",
			timeIn:  "09:00",
			timeOut: "09:50",
			want:    0.83,
		},
		{
			name:    "malformed check-in",
			timeIn:  "invalid",
			timeOut: "13:00",
			want:    0,
		},
		{
			name:    "hour out of range",
			timeIn:  "25:00",
			timeOut: "13:00",
			want:    0,
		},
		{
			name:    "minute out of range",
			timeIn:  "08:61",
			timeOut: "13:00",
			want:    0,
		},
		{
			name:    "meridiem hour out of range",
			timeIn:  "13:00 PM",
			timeOut: "14:00",
			want:    0,
		},
		{
			name:    "empty input",
			timeIn:  "",
			timeOut: "17:00",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTotalHours(tt.timeIn, tt.timeOut); got != tt.want {
				t.Errorf("ComputeTotalHours(%q, %q) = %v, want %v", tt.timeIn, tt.timeOut, got, tt.want)
			}
		})
	}
}

func TestParseClockMinutes(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"8:05", 485, true},
		{"23:59", 1439, true},
		{"12:00 PM", 720, true},
		{"12:00 AM", 0, true},
		{"12:00am", 0, true},
		{"1:00 pm", 780, true},
		{"  09:30 ", 570, true},
		{"24:00", 0, false},
		{"0:00 PM", 0, false},
		{"09:5", 0, false},
		{"0900", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseClockMinutes(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseClockMinutes(%q) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCanonicalClock(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"8:05", "08:05"},
		{"1:00 PM", "13:00"},
		{"12:00 AM", "00:00"},
		{"17:30", "17:30"},
		{" not a time ", "not a time"},
	}

	for _, tt := range tests {
		if got := CanonicalClock(tt.raw); got != tt.want {
			t.Errorf("CanonicalClock(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
