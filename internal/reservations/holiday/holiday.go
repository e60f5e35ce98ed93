// Package holiday answers "is this date a public holiday" for the business
// calendar. Implementations cache per-year holiday sets lazily so tests can
// inject deterministic fixed calendars.
package holiday

import (
	"sync"
	"time"
)

type Calendar interface {
	IsHoliday(day time.Time) bool
}

// Fixed is a static calendar for tests and non-Korean deployments.
type Fixed struct {
	Days map[string]bool // keyed by YYYY-MM-DD
}

func (f *Fixed) IsHoliday(day time.Time) bool {
	return f.Days[day.Format("2006-01-02")]
}

// None is a calendar with no holidays.
type None struct{}

func (None) IsHoliday(time.Time) bool { return false }

// Korea is the South Korean public-holiday calendar. Fixed-date holidays are
// generated per year; lunar-derived ones (설날, 부처님오신날, 추석) come from a
// table covering 2024-2027. Years outside the table fall back to the
// fixed-date set only. Substitute holidays are not modeled.
type Korea struct {
	mu    sync.Mutex
	years map[int]map[string]bool
}

func NewKorea() *Korea {
	return &Korea{years: make(map[int]map[string]bool)}
}

func (k *Korea) IsHoliday(day time.Time) bool {
	year := day.Year()

	k.mu.Lock()
	set, ok := k.years[year]
	if !ok {
		set = buildKoreanYear(year)
		k.years[year] = set
	}
	k.mu.Unlock()

	return set[day.Format("01-02")]
}

func buildKoreanYear(year int) map[string]bool {
	set := map[string]bool{
		"01-01": true, // 신정
		"03-01": true, // 삼일절
		"05-05": true, // 어린이날
		"06-06": true, // 현충일
		"08-15": true, // 광복절
		"10-03": true, // 개천절
		"10-09": true, // 한글날
		"12-25": true, // 크리스마스
	}
	for _, md := range lunarHolidays[year] {
		set[md] = true
	}
	return set
}

// Seollal and Chuseok spans plus 부처님오신날, as MM-DD.
var lunarHolidays = map[int][]string{
	2024: {"02-09", "02-10", "02-11", "05-15", "09-16", "09-17", "09-18"},
	2025: {"01-28", "01-29", "01-30", "05-05", "10-05", "10-06", "10-07"},
	2026: {"02-16", "02-17", "02-18", "05-24", "09-24", "09-25", "09-26"},
	2027: {"02-06", "02-07", "02-08", "05-13", "09-14", "09-15", "09-16"},
}
