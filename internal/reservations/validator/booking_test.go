package validator

import (
	"io"
	"testing"
	"time"

	"yeyak/internal/reservations/holiday"
	"yeyak/pkg/config"
	"yeyak/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		BusinessStartHour: 8,
		BusinessEndHour:   19,
		HorizonDays:       30,
		RoundingStep:      10 * time.Minute,
		Log:               logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
}

func newTestValidator(calendar holiday.Calendar) *BookingValidator {
	cfg := testConfig()
	return NewBookingValidator(cfg, calendar, cfg.Log)
}

// 2026-03-04 is a Wednesday with no Korean holiday nearby.
func day(hour, minute, second int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, second, 0, time.Local)
}

func TestNormalizeRange(t *testing.T) {
	v := newTestValidator(holiday.None{})

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "already aligned",
			start:     day(10, 0, 0),
			end:       day(11, 0, 0),
			wantStart: day(10, 0, 0),
			wantEnd:   day(11, 0, 0),
		},
		{
			name:      "start floors end ceils",
			start:     day(10, 3, 0),
			end:       day(10, 58, 0),
			wantStart: day(10, 0, 0),
			wantEnd:   day(11, 0, 0),
		},
		{
			name:      "seconds force end up a full step",
			start:     day(10, 0, 0),
			end:       day(11, 0, 30),
			wantStart: day(10, 0, 0),
			wantEnd:   day(11, 10, 0),
		},
		{
			name:      "sub-minute with remainder",
			start:     day(10, 0, 0),
			end:       day(10, 51, 5),
			wantStart: day(10, 0, 0),
			wantEnd:   day(11, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStart, gotEnd := v.NormalizeRange(tt.start, tt.end)
			if !gotStart.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", gotStart, tt.wantStart)
			}
			if !gotEnd.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", gotEnd, tt.wantEnd)
			}
		})
	}
}

func TestValidateAndNormalizeSameDayEndCap(t *testing.T) {
	v := newTestValidator(holiday.None{})
	now := day(9, 0, 0)

	// A same-day request running past close is capped at 19:00.
	_, _, end, err := v.ValidateAndNormalize("회의실1", day(17, 0, 0), day(20, 30, 0), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !end.Equal(day(19, 0, 0)) {
		t.Errorf("end = %v, want capped at 19:00", end)
	}

	// A future-day request past close is rejected, not capped.
	future := day(17, 0, 0).AddDate(0, 0, 1)
	futureEnd := day(20, 0, 0).AddDate(0, 0, 1)
	_, _, _, err = v.ValidateAndNormalize("회의실1", future, futureEnd, now)
	if !IsReason(err, ReasonOutsideBusinessHours) {
		t.Errorf("err = %v, want %s", err, ReasonOutsideBusinessHours)
	}
}

func TestValidateAndNormalizeRuleOrder(t *testing.T) {
	v := newTestValidator(holiday.None{})
	now := day(9, 0, 0)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  Reason
	}{
		{"start after end", day(11, 0, 0), day(10, 0, 0), ReasonStartNotBeforeEnd},
		{"zero length after rounding", day(10, 0, 0), day(10, 0, 0), ReasonStartNotBeforeEnd},
		{"start in past", day(8, 0, 0), day(9, 30, 0), ReasonStartInPast},
		{"cross midnight", day(18, 0, 0).AddDate(0, 0, 1), day(9, 0, 0).AddDate(0, 0, 2), ReasonCrossMidnight},
		{"beyond horizon", day(10, 0, 0).AddDate(0, 0, 31), day(11, 0, 0).AddDate(0, 0, 31), ReasonBeyondHorizon},
		{"before open", day(7, 0, 0).AddDate(0, 0, 1), day(9, 0, 0).AddDate(0, 0, 1), ReasonOutsideBusinessHours},
		{"after close", day(18, 30, 0).AddDate(0, 0, 1), day(19, 30, 0).AddDate(0, 0, 1), ReasonOutsideBusinessHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := v.ValidateAndNormalize("회의실1", tt.start, tt.end, now)
			if !IsReason(err, tt.want) {
				t.Errorf("err = %v, want reason %s", err, tt.want)
			}
		})
	}
}

func TestValidateAndNormalizeEmptyResource(t *testing.T) {
	v := newTestValidator(holiday.None{})
	_, _, _, err := v.ValidateAndNormalize("   ", day(10, 0, 0), day(11, 0, 0), day(9, 0, 0))
	if !IsReason(err, ReasonEmptyResource) {
		t.Errorf("err = %v, want %s", err, ReasonEmptyResource)
	}
}

func TestValidateAndNormalizeBusinessDay(t *testing.T) {
	now := day(9, 0, 0)

	// 2026-03-07 is a Saturday.
	v := newTestValidator(holiday.None{})
	saturday := time.Date(2026, 3, 7, 10, 0, 0, 0, time.Local)
	_, _, _, err := v.ValidateAndNormalize("회의실1", saturday, saturday.Add(time.Hour), now)
	if !IsReason(err, ReasonNotBusinessDay) {
		t.Errorf("saturday: err = %v, want %s", err, ReasonNotBusinessDay)
	}

	// A weekday marked as a holiday is equally unbookable.
	v = newTestValidator(&holiday.Fixed{Days: map[string]bool{"2026-03-05": true}})
	thursday := time.Date(2026, 3, 5, 10, 0, 0, 0, time.Local)
	_, _, _, err = v.ValidateAndNormalize("회의실1", thursday, thursday.Add(time.Hour), now)
	if !IsReason(err, ReasonNotBusinessDay) {
		t.Errorf("holiday: err = %v, want %s", err, ReasonNotBusinessDay)
	}
}

func TestKoreaCalendar(t *testing.T) {
	korea := holiday.NewKorea()

	holidays := []time.Time{
		time.Date(2026, 5, 5, 0, 0, 0, 0, time.Local),  // 어린이날
		time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local), // 설날
		time.Date(2026, 9, 25, 0, 0, 0, 0, time.Local), // 추석
	}
	for _, d := range holidays {
		if !korea.IsHoliday(d) {
			t.Errorf("expected %s to be a holiday", d.Format("2006-01-02"))
		}
	}
	if korea.IsHoliday(time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)) {
		t.Error("2026-03-04 should not be a holiday")
	}
}

func TestResourceNameIsNormalized(t *testing.T) {
	v := newTestValidator(holiday.None{})
	resource, _, _, err := v.ValidateAndNormalize("  회의실  1 ", day(10, 0, 0), day(11, 0, 0), day(9, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resource != "회의실 1" {
		t.Errorf("resource = %q, want %q", resource, "회의실 1")
	}
}
