package handler

import (
	"time"

	"yeyak/internal/nlparse"
	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/model"
)

const defaultOptionLimit = 5

// Timestamps cross the API as local minute-precision strings, the same shape
// the YAML files use. RFC 3339 is accepted on input for convenience.
func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperrors.InvalidInput("Missing required field: " + field)
	}
	if t, err := time.ParseInLocation(model.MinuteLayout, value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Local(), nil
	}
	return time.Time{}, apperrors.InvalidInput("Invalid timestamp for " + field + ", expected YYYY-MM-DDTHH:MM")
}

type createRequest struct {
	Resource    string `json:"resource"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Owner       string `json:"owner"`
	RequestText string `json:"request_text"`
}

func (r createRequest) toRequest() (*model.ReservationRequest, error) {
	start, err := parseTimestamp("start", r.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp("end", r.End)
	if err != nil {
		return nil, err
	}
	return &model.ReservationRequest{
		Resource:    r.Resource,
		Start:       start,
		End:         end,
		Owner:       r.Owner,
		RequestText: r.RequestText,
	}, nil
}

type textRequest struct {
	Text string `json:"text"`
}

type optionsRequest struct {
	Text     string `json:"text"`
	Resource string `json:"resource"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Limit    int    `json:"limit"`
}

// slot resolves the requested slot either from the free-form text or from
// the structured fields.
func (r optionsRequest) slot() (string, time.Time, time.Time, string, error) {
	if r.Text != "" {
		parsed, err := nlparse.Parse(r.Text)
		if err != nil {
			return "", time.Time{}, time.Time{}, "", err
		}
		if parsed.Resource == "" {
			return "", time.Time{}, time.Time{}, "", apperrors.InvalidInput("Could not find a resource name in text")
		}
		return parsed.Resource, parsed.Start, parsed.End, r.Text, nil
	}

	start, err := parseTimestamp("start", r.Start)
	if err != nil {
		return "", time.Time{}, time.Time{}, "", err
	}
	end, err := parseTimestamp("end", r.End)
	if err != nil {
		return "", time.Time{}, time.Time{}, "", err
	}
	return r.Resource, start, end, "", nil
}

type optionPayload struct {
	Strategy       string   `json:"strategy"`
	Resource       string   `json:"resource"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	ReservationIDs []string `json:"reservation_ids"`
}

func (p optionPayload) toOption() (*model.ReservationOption, error) {
	if p.Strategy == "" {
		return nil, apperrors.InvalidInput("Missing required field: strategy")
	}

	option := &model.ReservationOption{
		Strategy:       p.Strategy,
		Resource:       p.Resource,
		ReservationIDs: p.ReservationIDs,
	}
	if p.Strategy == model.StrategyKeepExisting {
		return option, nil
	}

	start, err := parseTimestamp("start", p.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp("end", p.End)
	if err != nil {
		return nil, err
	}
	option.Start = start
	option.End = end
	return option, nil
}

type commitRequest struct {
	Text   string        `json:"text"`
	Option optionPayload `json:"option"`
}

type updateRequest struct {
	Resource *string `json:"resource"`
	Start    *string `json:"start"`
	End      *string `json:"end"`
}

func (r updateRequest) toUpdate() (*model.ReservationUpdate, error) {
	if r.Resource == nil && r.Start == nil && r.End == nil {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	updates := &model.ReservationUpdate{Resource: r.Resource}
	if r.Start != nil {
		start, err := parseTimestamp("start", *r.Start)
		if err != nil {
			return nil, err
		}
		updates.Start = &start
	}
	if r.End != nil {
		end, err := parseTimestamp("end", *r.End)
		if err != nil {
			return nil, err
		}
		updates.End = &end
	}
	return updates, nil
}

type reservationResponse struct {
	ID           string `json:"reservation_id"`
	Resource     string `json:"resource"`
	Start        string `json:"start"`
	End          string `json:"end"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	Owner        string `json:"owner"`
	RequestText  string `json:"request_text,omitempty"`
	ChangeSource string `json:"change_source,omitempty"`
}

func newReservationResponse(record *model.ReservationRecord) reservationResponse {
	return reservationResponse{
		ID:           record.ID,
		Resource:     record.Resource,
		Start:        record.Start.Format(model.MinuteLayout),
		End:          record.End.Format(model.MinuteLayout),
		CreatedAt:    record.CreatedAt.Format(model.SecondLayout),
		UpdatedAt:    record.UpdatedAt.Format(model.SecondLayout),
		Owner:        record.Owner,
		RequestText:  record.RequestText,
		ChangeSource: record.ChangeSource,
	}
}

func newReservationResponses(records []model.ReservationRecord) []reservationResponse {
	responses := make([]reservationResponse, 0, len(records))
	for i := range records {
		responses = append(responses, newReservationResponse(&records[i]))
	}
	return responses
}

type optionResponse struct {
	Strategy       string   `json:"strategy"`
	Resource       string   `json:"resource"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	ReservationIDs []string `json:"reservation_ids,omitempty"`
}

func newOptionResponses(options []model.ReservationOption) []optionResponse {
	responses := make([]optionResponse, 0, len(options))
	for _, option := range options {
		responses = append(responses, optionResponse{
			Strategy:       option.Strategy,
			Resource:       option.Resource,
			Start:          option.Start.Format(model.MinuteLayout),
			End:            option.End.Format(model.MinuteLayout),
			ReservationIDs: option.ReservationIDs,
		})
	}
	return responses
}

type optionsResponse struct {
	Mode     string                `json:"mode"`
	Text     string                `json:"text,omitempty"`
	Options  []optionResponse      `json:"options"`
	Overlaps []reservationResponse `json:"overlaps,omitempty"`
}

type blockedIntervalResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type scheduleEntryResponse struct {
	ID          string `json:"reservation_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	RequestText string `json:"request_text,omitempty"`
	Mine        bool   `json:"is_mine"`
}

type scheduleRowResponse struct {
	Resource         string                  `json:"resource"`
	ReservationCount int                     `json:"reservation_count"`
	ReservedSlots    int                     `json:"reserved_slots"`
	AvailableSlots   int                     `json:"available_slots"`
	UnavailableSlots int                     `json:"unavailable_slots"`
	OccupancyRate    float64                 `json:"occupancy_rate"`
	Occupied         bool                    `json:"is_currently_occupied"`
	Reservations     []scheduleEntryResponse `json:"reservations"`
}

type scheduleResponse struct {
	Period           string                    `json:"period"`
	WindowStart      string                    `json:"window_start"`
	WindowEnd        string                    `json:"window_end"`
	BlockedIntervals []blockedIntervalResponse `json:"blocked_intervals"`
	Rooms            []scheduleRowResponse     `json:"rooms"`
	Devices          []scheduleRowResponse     `json:"devices"`
}

func newScheduleResponse(view *model.ScheduleView) scheduleResponse {
	blocked := make([]blockedIntervalResponse, 0, len(view.Blocked))
	for _, interval := range view.Blocked {
		blocked = append(blocked, blockedIntervalResponse{
			Start: interval.Start.Format(model.MinuteLayout),
			End:   interval.End.Format(model.MinuteLayout),
		})
	}
	return scheduleResponse{
		Period:           view.Period,
		WindowStart:      view.WindowStart.Format(model.MinuteLayout),
		WindowEnd:        view.WindowEnd.Format(model.MinuteLayout),
		BlockedIntervals: blocked,
		Rooms:            newScheduleRowResponses(view.Rooms),
		Devices:          newScheduleRowResponses(view.Devices),
	}
}

func newScheduleRowResponses(rows []model.ScheduleRow) []scheduleRowResponse {
	responses := make([]scheduleRowResponse, 0, len(rows))
	for _, row := range rows {
		entries := make([]scheduleEntryResponse, 0, len(row.Reservations))
		for _, entry := range row.Reservations {
			entries = append(entries, scheduleEntryResponse{
				ID:          entry.ID,
				Start:       entry.Start.Format(model.MinuteLayout),
				End:         entry.End.Format(model.MinuteLayout),
				RequestText: entry.RequestText,
				Mine:        entry.Mine,
			})
		}
		responses = append(responses, scheduleRowResponse{
			Resource:         row.Resource,
			ReservationCount: row.ReservationCount,
			ReservedSlots:    row.ReservedSlots,
			AvailableSlots:   row.AvailableSlots,
			UnavailableSlots: row.UnavailableSlots,
			OccupancyRate:    row.OccupancyRate,
			Occupied:         row.Occupied,
			Reservations:     entries,
		})
	}
	return responses
}
