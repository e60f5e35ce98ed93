package validator

import (
	"errors"
	"fmt"
	"time"

	"yeyak/internal/reservations/holiday"
	"yeyak/pkg/config"
	"yeyak/pkg/logger"
	"yeyak/pkg/model"
	"yeyak/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

// Reason identifies the first business rule a request violated.
type Reason string

const (
	ReasonEmptyResource        Reason = "empty_resource"
	ReasonStartNotBeforeEnd    Reason = "start_not_before_end"
	ReasonStartInPast          Reason = "start_in_past"
	ReasonCrossMidnight        Reason = "cross_midnight"
	ReasonBeyondHorizon        Reason = "beyond_horizon"
	ReasonOutsideBusinessHours Reason = "outside_business_hours"
	ReasonNotBusinessDay       Reason = "not_business_day"
)

type Error struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func fail(reason Reason, message string) error {
	return &Error{Reason: reason, Message: message}
}

// BookingValidator normalizes a requested interval and checks it against the
// business rules: rounding grid, same-day close cap, booking horizon,
// business hours and the weekday/holiday calendar.
type BookingValidator struct {
	validate *validator.Validate
	calendar holiday.Calendar
	cfg      *config.Config
	logger   *logger.Logger
}

func NewBookingValidator(cfg *config.Config, calendar holiday.Calendar, log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		calendar: calendar,
		cfg:      cfg,
		logger:   log,
	}
}

// ValidateRequest checks the structural shape of an incoming request before
// any business rule runs.
func (v *BookingValidator) ValidateRequest(req *model.ReservationRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) error {
	for _, err := range errs {
		switch err.Tag() {
		case "required":
			return fail(ReasonEmptyResource, fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			return fail(ReasonEmptyResource, fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param()))
		default:
			return fail(ReasonEmptyResource, err.Error())
		}
	}
	return nil
}

// ValidateAndNormalize applies the full rule chain and returns the normalized
// triple. Rules run in a fixed order and the first violation wins, so callers
// always see the earliest broken rule.
func (v *BookingValidator) ValidateAndNormalize(resource string, start, end, now time.Time) (string, time.Time, time.Time, error) {
	resource = sanitizer.NormalizeResource(resource)
	if resource == "" {
		return "", start, end, fail(ReasonEmptyResource, "resource must not be empty")
	}

	start, end = v.NormalizeRange(start, end)
	start, end = v.applySameDayEndCap(start, end, now)

	if err := v.checkBookable(start, end, now); err != nil {
		return "", start, end, err
	}
	return resource, start, end, nil
}

// NormalizeRange floors start and ceils end to the rounding grid.
func (v *BookingValidator) NormalizeRange(start, end time.Time) (time.Time, time.Time) {
	step := int(v.cfg.RoundingStep / time.Minute)
	return floorToStep(start, step), ceilToStep(end, step)
}

func floorToStep(t time.Time, stepMinutes int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-t.Minute()%stepMinutes, 0, 0, t.Location())
}

func ceilToStep(t time.Time, stepMinutes int) time.Time {
	truncated := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	remainder := t.Minute() % stepMinutes
	hasSubMinute := t.Second() > 0 || t.Nanosecond() > 0

	// Exact grid values with no sub-minute remainder stay untouched.
	if remainder == 0 && !hasSubMinute {
		return truncated
	}

	toAdd := (stepMinutes - remainder) % stepMinutes
	if toAdd == 0 {
		toAdd = stepMinutes
	}
	return truncated.Add(time.Duration(toAdd) * time.Minute)
}

// applySameDayEndCap caps end at the business close when both normalized
// endpoints fall on now's calendar day. A request starting today and ending
// tomorrow is left alone here and rejected by the cross-midnight rule.
func (v *BookingValidator) applySameDayEndCap(start, end, now time.Time) (time.Time, time.Time) {
	if !sameDate(start, now) || !sameDate(end, now) {
		return start, end
	}

	cutoff := time.Date(now.Year(), now.Month(), now.Day(), v.cfg.BusinessEndHour, 0, 0, 0, now.Location())
	if end.After(cutoff) {
		end = cutoff
	}
	return start, end
}

// CheckBookable applies the business rules to an already-normalized interval.
// Alternative slot candidates are grid-aligned by construction and must not be
// rounded a second time.
func (v *BookingValidator) CheckBookable(start, end, now time.Time) error {
	return v.checkBookable(start, end, now)
}

func (v *BookingValidator) checkBookable(start, end, now time.Time) error {
	if !start.Before(end) {
		return fail(ReasonStartNotBeforeEnd, "reservation start time must be earlier than end time")
	}
	if start.Before(now) {
		return fail(ReasonStartInPast, "reservation start time cannot be in the past")
	}
	if !sameDate(start, end) {
		return fail(ReasonCrossMidnight, "reservation must start and end on the same day")
	}

	windowEnd := now.AddDate(0, 0, v.cfg.HorizonDays)
	if start.After(windowEnd) || end.After(windowEnd) {
		return fail(ReasonBeyondHorizon, fmt.Sprintf("reservation must be within %d days from now", v.cfg.HorizonDays))
	}

	if !v.withinBusinessHours(start, end) {
		return fail(ReasonOutsideBusinessHours, fmt.Sprintf("reservation must be within business hours (%02d:00-%02d:00)", v.cfg.BusinessStartHour, v.cfg.BusinessEndHour))
	}
	if !v.IsBusinessDay(start) {
		return fail(ReasonNotBusinessDay, "reservation is not allowed on weekends or holidays")
	}
	return nil
}

// withinBusinessHours requires both endpoints inside the business window.
func (v *BookingValidator) withinBusinessHours(start, end time.Time) bool {
	if !sameDate(start, end) {
		return false
	}
	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := end.Hour()*60 + end.Minute()
	return startMinutes >= v.cfg.BusinessStartHour*60 && endMinutes <= v.cfg.BusinessEndHour*60
}

// BusinessWindow returns the daily booking window in whole hours.
func (v *BookingValidator) BusinessWindow() (startHour, endHour int) {
	return v.cfg.BusinessStartHour, v.cfg.BusinessEndHour
}

// FloorToGrid rounds t down to the rounding grid.
func (v *BookingValidator) FloorToGrid(t time.Time) time.Time {
	return floorToStep(t, int(v.cfg.RoundingStep/time.Minute))
}

func (v *BookingValidator) IsBusinessDay(day time.Time) bool {
	wd := day.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !v.calendar.IsHoliday(day)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsReason reports whether err is a rule violation with the given reason.
func IsReason(err error, reason Reason) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Reason == reason
	}
	return false
}
