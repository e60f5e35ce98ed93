package interval

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, 0, 0, time.Local)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"touching endpoints", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching endpoints reversed", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			if err != nil {
				t.Fatalf("Overlaps returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlapsInvalidInterval(t *testing.T) {
	if _, err := Overlaps(at(11, 0), at(10, 0), at(10, 0), at(11, 0)); err == nil {
		t.Error("expected error for inverted first interval")
	}
	if _, err := Overlaps(at(10, 0), at(11, 0), at(12, 0), at(12, 0)); err == nil {
		t.Error("expected error for empty second interval")
	}
}

func TestFitsAmong(t *testing.T) {
	existing := []Interval{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(14, 0), End: at(15, 0)},
	}

	ok, err := FitsAmong(at(10, 0), at(11, 0), existing)
	if err != nil {
		t.Fatalf("FitsAmong returned error: %v", err)
	}
	if !ok {
		t.Error("slot touching an existing end should fit")
	}

	ok, err = FitsAmong(at(14, 30), at(16, 0), existing)
	if err != nil {
		t.Fatalf("FitsAmong returned error: %v", err)
	}
	if ok {
		t.Error("slot overlapping an existing interval should not fit")
	}

	ok, err = FitsAmong(at(10, 0), at(11, 0), nil)
	if err != nil || !ok {
		t.Errorf("slot with no existing intervals should fit, got ok=%v err=%v", ok, err)
	}
}
