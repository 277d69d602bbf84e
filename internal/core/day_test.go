package core

import (
	"testing"
	"time"
)

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("TEST", -5*3600)
	now := time.Date(2024, 3, 15, 18, 42, 7, 0, loc)
	d := DayOf(now)

	start := d.Start()
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("Start() = %v, want midnight", start)
	}
	end := d.End()
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Errorf("End() = %v, want last instant of day", end)
	}
	if !end.Before(d.AddDays(1).Start()) {
		t.Errorf("End() must precede the next day's Start()")
	}
	if !d.Contains(now) {
		t.Errorf("day should contain the instant it was derived from")
	}
}

func TestDayOrdering(t *testing.T) {
	loc := time.UTC
	a := NewDay(2024, time.February, 28, loc)
	b := NewDay(2024, time.February, 29, loc)
	c := NewDay(2024, time.March, 1, loc)

	if !a.Before(b) || !b.Before(c) {
		t.Errorf("expected %v < %v < %v", a, b, c)
	}
	if !c.After(a) {
		t.Errorf("expected %v after %v", c, a)
	}
	if !a.Equal(NewDay(2024, time.February, 28, loc)) {
		t.Errorf("expected equality for identical days")
	}
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same day different times",
			a:    time.Date(2024, 2, 15, 1, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 2, 15, 23, 30, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "adjacent days",
			a:    time.Date(2024, 2, 15, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2024, 2, 16, 0, 1, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "same day-of-year different years",
			a:    time.Date(2023, 2, 15, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-03-01", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-03-01" {
		t.Errorf("ParseDay round trip = %q", d.String())
	}
	if _, err := ParseDay("yesterday", time.UTC); err == nil {
		t.Errorf("expected error for malformed date")
	}
}
