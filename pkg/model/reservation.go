package model

import (
	"time"
)

// Timestamp layouts shared by the persisted files and the HTTP API.
// Records carry minute precision, audit events second precision.
const (
	MinuteLayout = "2006-01-02T15:04"
	SecondLayout = "2006-01-02T15:04:05"
)

const (
	OwnerSelf     = "self"
	OwnerExternal = "external"
)

// ChangeSource values record how a self-overlap was resolved.
const (
	ChangeMerged   = "merged"
	ChangeReplaced = "replaced"
	ChangeKept     = "kept"
)

// Option strategies, in resolver priority order.
const (
	StrategyRequested     = "requested"
	StrategyShiftBefore   = "time_shift_before"
	StrategyShiftAfter    = "time_shift_after"
	StrategyOtherResource = "other_resource_same_time"

	StrategyMergeExisting   = "merge_existing"
	StrategyReplaceExisting = "replace_existing"
	StrategyKeepExisting    = "keep_existing"
)

// ReservationRecord is the sole persisted entity. A record is active until
// wall-clock time reaches its end, then moves to the closed set and is never
// mutated again.
type ReservationRecord struct {
	ID           string    `json:"reservation_id"`
	Resource     string    `json:"resource"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Owner        string    `json:"owner"`
	RequestText  string    `json:"request_text,omitempty"`
	ChangeSource string    `json:"change_source,omitempty"`
}

// ReservationRequest is the structured input handed to the core, either
// directly or by the natural-language front end.
type ReservationRequest struct {
	Resource    string    `json:"resource" validate:"required"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required"`
	Owner       string    `json:"owner" validate:"omitempty,oneof=self external"`
	RequestText string    `json:"request_text,omitempty"`
}

// ReservationUpdate carries the fields an owner may change in place.
// Nil fields keep the current value.
type ReservationUpdate struct {
	Resource *string    `json:"resource,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}

// ReservationOption is one resolver proposal. ReservationIDs is set only for
// the self-overlap strategies, naming the existing records the commit acts on.
type ReservationOption struct {
	Strategy       string    `json:"strategy"`
	Resource       string    `json:"resource"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	ReservationIDs []string  `json:"reservation_ids,omitempty"`
}

// AuditEvent is an append-only log row. The core only ever writes these.
type AuditEvent struct {
	Time    time.Time      `json:"event_time"`
	Type    string         `json:"event_type"`
	Payload map[string]any `json:"payload"`
}

// Audit event types.
const (
	EventReservationCreated = "RESERVATION_CREATED"
	EventReservationUpdated = "RESERVATION_UPDATED"
	EventReservationClosed  = "RESERVATION_CLOSED"
	EventReservationDeleted = "RESERVATION_DELETED"
	EventYAMLRecovered      = "YAML_RECOVERED"
	EventYAMLRowSkipped     = "YAML_ROW_SKIPPED"

	// One event type per seeding mode, so replay tooling keyed on the
	// event type can tell the data sets apart.
	EventTestDataGenerated         = "TEST_DATA_GENERATED"
	EventTestDataGeneratedLarge    = "TEST_DATA_GENERATED_LARGE"
	EventTestDataGeneratedSpecific = "TEST_DATA_GENERATED_SPECIFIC_RESOURCE"
)
