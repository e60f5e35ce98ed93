// Package interval decides whether half-open time intervals [start, end)
// overlap. Touching boundaries do not overlap.
package interval

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("interval start must be earlier than end")

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any
// instant. Both intervals must be non-empty.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) (bool, error) {
	if !aStart.Before(aEnd) || !bStart.Before(bEnd) {
		return false, ErrInvalidInterval
	}
	return aStart.Before(bEnd) && aEnd.After(bStart), nil
}

// FitsAmong reports whether the candidate interval overlaps none of existing.
func FitsAmong(start, end time.Time, existing []Interval) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidInterval
	}
	for _, iv := range existing {
		overlap, err := Overlaps(start, end, iv.Start, iv.End)
		if err != nil {
			return false, err
		}
		if overlap {
			return false, nil
		}
	}
	return true, nil
}
