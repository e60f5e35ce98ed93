package model

import "time"

// Schedule view periods.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// BlockedInterval marks the business window of a non-business day inside a
// schedule window.
type BlockedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScheduleEntry is one reservation shown on a schedule row.
type ScheduleEntry struct {
	ID          string    `json:"reservation_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	RequestText string    `json:"request_text,omitempty"`
	Mine        bool      `json:"is_mine"`
}

// ScheduleRow summarizes one resource over the schedule window. Slot counts
// are whole hours; the occupancy rate is reserved minutes over bookable
// minutes in the window.
type ScheduleRow struct {
	Resource         string          `json:"resource"`
	ReservationCount int             `json:"reservation_count"`
	ReservedSlots    int             `json:"reserved_slots"`
	AvailableSlots   int             `json:"available_slots"`
	UnavailableSlots int             `json:"unavailable_slots"`
	OccupancyRate    float64         `json:"occupancy_rate"`
	Occupied         bool            `json:"is_currently_occupied"`
	Reservations     []ScheduleEntry `json:"reservations"`
}

// ScheduleView is the utilization overview for one period window.
type ScheduleView struct {
	Period      string            `json:"period"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	Blocked     []BlockedInterval `json:"blocked_intervals"`
	Rooms       []ScheduleRow     `json:"rooms"`
	Devices     []ScheduleRow     `json:"devices"`
}
