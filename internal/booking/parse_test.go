package booking

import (
	"errors"
	"testing"
	"time"

	"clinic-scheduling-api/internal/apperr"
)

func TestParseTime(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	want := time.Date(2024, 6, 10, 9, 0, 0, 0, lagos)

	for _, s := range []string{
		"2024-06-10T09:00:00+01:00",
		"2024-06-10T08:00:00Z",
		"2024-06-10T09:00:00",
		"2024-06-10T09:00",
		"2024-06-10 09:00",
	} {
		got, err := ParseTime(s, lagos)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %v, want %v", s, got, want)
		}
		if SlotOf(got) != (Slot{9, 0}) {
			t.Errorf("%s: slot %v", s, SlotOf(got))
		}
	}

	if _, err := ParseTime("tomorrow", lagos); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	from, to := DayBounds(d, time.UTC)
	if !from.Equal(d) || to.Sub(from) != 24*time.Hour-time.Nanosecond {
		t.Fatalf("bounds = %v..%v", from, to)
	}
	if _, err := ParseDate("10/06/2024", time.UTC); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}
