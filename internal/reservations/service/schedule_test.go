package service

import (
	"testing"
	"time"

	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/model"
)

func findRow(t *testing.T, rows []model.ScheduleRow, resource string) model.ScheduleRow {
	t.Helper()
	for _, row := range rows {
		if row.Resource == resource {
			return row
		}
	}
	t.Fatalf("no row for %s in %+v", resource, rows)
	return model.ScheduleRow{}
}

func TestScheduleDayWindow(t *testing.T) {
	svc, store := newTestService(t)
	seedExternal(t, store, "busy-1", "회의실1", at(10, 0), at(11, 0))

	// Mid-day the window runs from now, rounded down to the grid, until
	// close.
	now := at(9, 5)
	view, err := svc.Schedule(model.PeriodDay, now)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if !view.WindowStart.Equal(at(9, 0)) || !view.WindowEnd.Equal(at(19, 0)) {
		t.Errorf("window = %v-%v, want 09:00-19:00", view.WindowStart, view.WindowEnd)
	}
	if len(view.Blocked) != 0 {
		t.Errorf("blocked = %+v, want none on a single business day", view.Blocked)
	}
	if len(view.Rooms) != 10 || len(view.Devices) != 20 {
		t.Fatalf("rows = %d rooms / %d devices, want the full fleets", len(view.Rooms), len(view.Devices))
	}

	row := findRow(t, view.Rooms, "회의실1")
	if row.ReservationCount != 1 || row.ReservedSlots != 1 {
		t.Errorf("row = %+v, want one reservation in one slot", row)
	}
	// 60 reserved of 600 bookable minutes.
	if row.OccupancyRate != 0.1 {
		t.Errorf("occupancy = %v, want 0.1", row.OccupancyRate)
	}
	if row.AvailableSlots != 9 || row.UnavailableSlots != 1 {
		t.Errorf("slots = %+v, want 9 available / 1 unavailable", row)
	}
	if row.Occupied {
		t.Errorf("row = %+v, should not be occupied at 09:05", row)
	}
	if len(row.Reservations) != 1 || row.Reservations[0].ID != "busy-1" || row.Reservations[0].Mine {
		t.Errorf("entries = %+v, want busy-1 marked not mine", row.Reservations)
	}

	// Booked resources sort below free ones.
	if view.Rooms[9].Resource != "회의실1" {
		t.Errorf("last room = %s, want the booked 회의실1", view.Rooms[9].Resource)
	}
	if view.Rooms[0].ReservationCount != 0 {
		t.Errorf("first room = %+v, want a free one", view.Rooms[0])
	}
}

func TestScheduleDayWindowEdges(t *testing.T) {
	svc, _ := newTestService(t)

	// Before opening the window covers the whole business day.
	view, err := svc.Schedule(model.PeriodDay, at(7, 0))
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if !view.WindowStart.Equal(at(8, 0)) || !view.WindowEnd.Equal(at(19, 0)) {
		t.Errorf("window = %v-%v, want 08:00-19:00", view.WindowStart, view.WindowEnd)
	}

	// After close it rolls over to the next business day.
	view, err = svc.Schedule(model.PeriodDay, at(19, 30))
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	next := time.Date(2026, 3, 5, 8, 0, 0, 0, time.Local)
	if !view.WindowStart.Equal(next) || !view.WindowEnd.Equal(next.Add(11*time.Hour)) {
		t.Errorf("window = %v-%v, want Thursday 08:00-19:00", view.WindowStart, view.WindowEnd)
	}
}

func TestScheduleWeekBlocksWeekend(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.Schedule(model.PeriodWeek, at(9, 0))
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if !view.WindowStart.Equal(at(8, 0)) {
		t.Errorf("window start = %v, want Wednesday 08:00", view.WindowStart)
	}
	// 2026-03-07 and 2026-03-08 are the weekend inside the window.
	if len(view.Blocked) != 2 {
		t.Fatalf("blocked = %+v, want Saturday and Sunday", view.Blocked)
	}
	saturday := time.Date(2026, 3, 7, 8, 0, 0, 0, time.Local)
	if !view.Blocked[0].Start.Equal(saturday) {
		t.Errorf("first blocked = %+v, want Saturday 08:00", view.Blocked[0])
	}

	// Five business days of 11 hours each, so 22 weekend slots are
	// unavailable on every row.
	row := findRow(t, view.Rooms, "회의실1")
	if row.UnavailableSlots != 22 {
		t.Errorf("unavailable = %d, want 22 weekend slots", row.UnavailableSlots)
	}
	if row.AvailableSlots != 55 {
		t.Errorf("available = %d, want 55 business-hour slots", row.AvailableSlots)
	}
}

func TestScheduleUnknownPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Schedule("fortnight", at(9, 0)); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("err = %v, want %s", err, apperrors.CodeInvalidInput)
	}
}

func TestScheduleSweepsExpiredFirst(t *testing.T) {
	svc, store := newTestService(t)
	seedExternal(t, store, "stale-1", "회의실1", at(8, 0), at(8, 30))

	view, err := svc.Schedule(model.PeriodDay, at(9, 0))
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	row := findRow(t, view.Rooms, "회의실1")
	if row.ReservationCount != 0 {
		t.Errorf("row = %+v, want the expired record swept out", row)
	}

	closed, err := store.LoadClosed()
	if err != nil {
		t.Fatalf("LoadClosed failed: %v", err)
	}
	if len(closed) != 1 || closed[0].ID != "stale-1" {
		t.Errorf("closed = %+v, want stale-1", closed)
	}
}
