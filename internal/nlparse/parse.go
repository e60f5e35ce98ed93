// Package nlparse turns short Korean reservation phrases such as
// "회의실1 2026-09-01 10:00~11:00 예약해줘" into a structured request.
// It is a thin front end: all business rules live in the reservation core.
package nlparse

import (
	"regexp"
	"strings"
	"time"

	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/model"
	"yeyak/pkg/sanitizer"
)

var (
	dateRE = regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	timeRE = regexp.MustCompile(`(?:[01]?\d|2[0-3]):[0-5]\d`)

	// Particles and verb endings stripped from the residue once the date and
	// times are removed; whatever remains is the resource name.
	particleRE  = regexp.MustCompile(`예약(해줘|해주세요)?|잡아줘|로|을|를|에|좀|해줘`)
	rangeMarkRE = regexp.MustCompile(`[~\-]|부터|까지`)
	spacesRE    = regexp.MustCompile(`\s+`)
)

// Parsed is the structured reading of a request phrase. Resource is empty
// when nothing but the date and times could be found in the text.
type Parsed struct {
	Resource string
	Start    time.Time
	End      time.Time
	RawText  string
}

// Parse extracts a date, a start time, an end time, and a resource name from
// text. The first date-looking token names the day; the first two time-looking
// tokens are the start and end on that day. Times are guarded against digits
// on either side so "2026" never reads as a clock value.
func Parse(text string) (*Parsed, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperrors.InvalidInput("Request text cannot be empty")
	}

	dateText := dateRE.FindString(trimmed)
	if dateText == "" {
		return nil, apperrors.InvalidInput("Could not find a date in text. Expected format: YYYY-MM-DD")
	}

	times := findTimes(trimmed)
	if len(times) < 2 {
		return nil, apperrors.InvalidInput("Could not find start/end time in text. Expected format: HH:MM")
	}

	day, err := time.ParseInLocation("2006-1-2", strings.ReplaceAll(dateText, "/", "-"), time.Local)
	if err != nil {
		return nil, apperrors.InvalidInput("Could not parse the date in text. Expected format: YYYY-MM-DD")
	}

	start, err := atTime(day, times[0])
	if err != nil {
		return nil, apperrors.InvalidInput("Could not parse the start time in text")
	}
	end, err := atTime(day, times[1])
	if err != nil {
		return nil, apperrors.InvalidInput("Could not parse the end time in text")
	}
	if !start.Before(end) {
		return nil, apperrors.InvalidInput("Start time must be earlier than end time")
	}

	return &Parsed{
		Resource: extractResource(trimmed, dateText, times[0], times[1]),
		Start:    start,
		End:      end,
		RawText:  text,
	}, nil
}

// Request converts a parsed phrase into a reservation request owned by the
// caller, carrying the original text along for the audit trail.
func (p *Parsed) Request() *model.ReservationRequest {
	return &model.ReservationRequest{
		Resource:    p.Resource,
		Start:       p.Start,
		End:         p.End,
		Owner:       model.OwnerSelf,
		RequestText: p.RawText,
	}
}

// findTimes returns clock tokens not adjacent to other digits. Go's regexp
// has no lookarounds, so the boundary check walks the match edges by hand.
func findTimes(text string) []string {
	var times []string
	for _, loc := range timeRE.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		times = append(times, text[loc[0]:loc[1]])
	}
	return times
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func atTime(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.ParseInLocation("15:04", padClock(clock), time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, time.Local), nil
}

func padClock(clock string) string {
	if len(clock) == 4 {
		return "0" + clock
	}
	return clock
}

func extractResource(text, dateText, startTime, endTime string) string {
	candidate := strings.ReplaceAll(text, dateText, " ")
	candidate = strings.Replace(candidate, startTime, " ", 1)
	candidate = strings.Replace(candidate, endTime, " ", 1)
	candidate = rangeMarkRE.ReplaceAllString(candidate, " ")
	candidate = particleRE.ReplaceAllString(candidate, " ")
	candidate = spacesRE.ReplaceAllString(candidate, " ")
	return sanitizer.TrimAndNormalize(candidate)
}
