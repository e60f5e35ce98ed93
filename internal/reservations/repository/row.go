package repository

import (
	"fmt"
	"time"

	reserrors "yeyak/internal/reservations/errors"
	"yeyak/pkg/model"
)

// recordRow is the serialization boundary for a persisted reservation. The
// field names and timestamp layouts are a contract with external tooling and
// must stay stable.
type recordRow struct {
	ReservationID string `yaml:"reservation_id"`
	Resource      string `yaml:"resource"`
	Start         string `yaml:"start"`
	End           string `yaml:"end"`
	CreatedAt     string `yaml:"created_at"`
	UpdatedAt     string `yaml:"updated_at"`
	Owner         string `yaml:"owner,omitempty"`
	RequestText   string `yaml:"request_text,omitempty"`
	ChangeSource  string `yaml:"change_source,omitempty"`
}

type eventRow struct {
	EventTime string         `yaml:"event_time"`
	EventType string         `yaml:"event_type"`
	Payload   map[string]any `yaml:"payload"`
}

func toRow(record model.ReservationRecord) recordRow {
	return recordRow{
		ReservationID: record.ID,
		Resource:      record.Resource,
		Start:         record.Start.Format(model.MinuteLayout),
		End:           record.End.Format(model.MinuteLayout),
		CreatedAt:     record.CreatedAt.Format(model.SecondLayout),
		UpdatedAt:     record.UpdatedAt.Format(model.SecondLayout),
		Owner:         record.Owner,
		RequestText:   record.RequestText,
		ChangeSource:  record.ChangeSource,
	}
}

// toRecord validates required fields and fails with a structured error on
// missing or malformed ones rather than defaulting silently. Owner is the
// one exception: rows written before the ownership tag existed parse as
// external.
func (r recordRow) toRecord() (model.ReservationRecord, error) {
	var record model.ReservationRecord

	if r.ReservationID == "" {
		return record, fmt.Errorf("%w: reservation_id", reserrors.ErrMalformedRow)
	}
	if r.Resource == "" {
		return record, fmt.Errorf("%w: resource", reserrors.ErrMalformedRow)
	}

	start, err := parseRowTime(r.Start)
	if err != nil {
		return record, fmt.Errorf("%w: start: %v", reserrors.ErrMalformedRow, err)
	}
	end, err := parseRowTime(r.End)
	if err != nil {
		return record, fmt.Errorf("%w: end: %v", reserrors.ErrMalformedRow, err)
	}
	createdAt, err := parseRowTime(r.CreatedAt)
	if err != nil {
		return record, fmt.Errorf("%w: created_at: %v", reserrors.ErrMalformedRow, err)
	}
	updatedAt, err := parseRowTime(r.UpdatedAt)
	if err != nil {
		return record, fmt.Errorf("%w: updated_at: %v", reserrors.ErrMalformedRow, err)
	}

	owner := r.Owner
	switch owner {
	case "":
		owner = model.OwnerExternal
	case model.OwnerSelf, model.OwnerExternal:
	default:
		return record, fmt.Errorf("%w: owner %q", reserrors.ErrMalformedRow, r.Owner)
	}

	return model.ReservationRecord{
		ID:           r.ReservationID,
		Resource:     r.Resource,
		Start:        start,
		End:          end,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		Owner:        owner,
		RequestText:  r.RequestText,
		ChangeSource: r.ChangeSource,
	}, nil
}

func parseRowTime(value string) (time.Time, error) {
	for _, layout := range []string{model.MinuteLayout, model.SecondLayout} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}
