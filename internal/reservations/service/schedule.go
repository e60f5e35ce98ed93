package service

import (
	"fmt"
	"sort"
	"time"

	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/model"
)

// Schedule builds the utilization overview for one period window. The day
// window tracks the clock: before opening it covers the whole business day,
// during the day it starts at now rounded down to the grid, and after close
// it rolls over to the next business day. Week and month windows span 7 and
// 30 days from today's opening.
func (s *reservationService) Schedule(period string, now time.Time) (*model.ScheduleView, error) {
	periodDays, err := periodToDays(period)
	if err != nil {
		return nil, err
	}

	var active []model.ReservationRecord
	err = s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}
		var err error
		active, err = s.loadActive()
		return err
	})
	if err != nil {
		return nil, err
	}

	startHour, endHour := s.validator.BusinessWindow()
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), startHour, 0, 0, 0, now.Location())
	windowEnd := windowStart.AddDate(0, 0, periodDays)

	if period == model.PeriodDay {
		openToday := windowStart
		closeToday := time.Date(now.Year(), now.Month(), now.Day(), endHour, 0, 0, 0, now.Location())
		switch {
		case !now.Before(closeToday):
			next := s.nextBusinessDay(now)
			windowStart = time.Date(next.Year(), next.Month(), next.Day(), startHour, 0, 0, 0, now.Location())
			windowEnd = time.Date(next.Year(), next.Month(), next.Day(), endHour, 0, 0, 0, now.Location())
		case !now.After(openToday):
			windowStart, windowEnd = openToday, closeToday
		default:
			windowStart, windowEnd = s.validator.FloorToGrid(now), closeToday
		}
	}

	blocked, blockedDays := s.blockedIntervals(windowStart, windowEnd)
	bookableMinutes := s.bookableMinutes(windowStart, windowEnd)

	return &model.ScheduleView{
		Period:      period,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Blocked:     blocked,
		Rooms:       s.scheduleRows(fleetResources("회의실"), active, windowStart, windowEnd, blockedDays, bookableMinutes, now),
		Devices:     s.scheduleRows(fleetResources("테스트단말기"), active, windowStart, windowEnd, blockedDays, bookableMinutes, now),
	}, nil
}

func periodToDays(period string) (int, error) {
	switch period {
	case model.PeriodDay:
		return 1, nil
	case model.PeriodWeek:
		return 7, nil
	case model.PeriodMonth:
		return 30, nil
	default:
		return 0, apperrors.InvalidInput("Unknown schedule period: " + period)
	}
}

func fleetResources(prefix string) []string {
	count := defaultFleets[prefix]
	resources := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		resources = append(resources, fmt.Sprintf("%s%d", prefix, i))
	}
	return resources
}

func (s *reservationService) nextBusinessDay(now time.Time) time.Time {
	candidate := now.AddDate(0, 0, 1)
	for i := 0; i < 90; i++ {
		if s.validator.IsBusinessDay(candidate) {
			break
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// blockedIntervals lists the business window of every non-business day whose
// date falls strictly inside the window.
func (s *reservationService) blockedIntervals(windowStart, windowEnd time.Time) ([]model.BlockedInterval, int) {
	startHour, endHour := s.validator.BusinessWindow()
	var blocked []model.BlockedInterval

	endDate := time.Date(windowEnd.Year(), windowEnd.Month(), windowEnd.Day(), 0, 0, 0, 0, windowEnd.Location())
	cursor := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, windowStart.Location())
	for cursor.Before(endDate) {
		if !s.validator.IsBusinessDay(cursor) {
			blocked = append(blocked, model.BlockedInterval{
				Start: time.Date(cursor.Year(), cursor.Month(), cursor.Day(), startHour, 0, 0, 0, cursor.Location()),
				End:   time.Date(cursor.Year(), cursor.Month(), cursor.Day(), endHour, 0, 0, 0, cursor.Location()),
			})
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return blocked, len(blocked)
}

// bookableMinutes sums the business-hour segments of every business day
// clipped to the window.
func (s *reservationService) bookableMinutes(windowStart, windowEnd time.Time) int {
	if !windowEnd.After(windowStart) {
		return 0
	}
	startHour, endHour := s.validator.BusinessWindow()

	total := 0
	cursor := windowStart
	for {
		dayStart := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), startHour, 0, 0, 0, cursor.Location())
		dayEnd := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), endHour, 0, 0, 0, cursor.Location())

		if s.validator.IsBusinessDay(cursor) {
			segmentStart := maxTime(windowStart, dayStart)
			segmentEnd := minTime(windowEnd, dayEnd)
			if segmentEnd.After(segmentStart) {
				total += int(segmentEnd.Sub(segmentStart) / time.Minute)
			}
		}

		if !dayEnd.Before(windowEnd) {
			return total
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
}

func (s *reservationService) scheduleRows(resources []string, active []model.ReservationRecord, windowStart, windowEnd time.Time, blockedDays, bookableMinutes int, now time.Time) []model.ScheduleRow {
	grouped := make(map[string][]model.ReservationRecord, len(resources))
	for _, resource := range resources {
		grouped[resource] = nil
	}
	for _, record := range active {
		if _, ok := grouped[record.Resource]; ok {
			grouped[record.Resource] = append(grouped[record.Resource], record)
		}
	}

	startHour, endHour := s.validator.BusinessWindow()
	blockedSlots := blockedDays * (endHour - startHour)

	rows := make([]model.ScheduleRow, 0, len(resources))
	for _, resource := range resources {
		var inWindow []model.ReservationRecord
		for _, record := range grouped[resource] {
			if record.Start.Before(windowEnd) && record.End.After(windowStart) {
				inWindow = append(inWindow, record)
			}
		}
		sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].Start.Before(inWindow[j].Start) })

		reservedMinutes := 0
		entries := make([]model.ScheduleEntry, 0, len(inWindow))
		for _, record := range inWindow {
			clippedStart := maxTime(record.Start, windowStart)
			clippedEnd := minTime(record.End, windowEnd)
			if clippedEnd.After(clippedStart) {
				reservedMinutes += int(clippedEnd.Sub(clippedStart) / time.Minute)
			}
			entries = append(entries, model.ScheduleEntry{
				ID:          record.ID,
				Start:       record.Start,
				End:         record.End,
				RequestText: record.RequestText,
				Mine:        record.Owner == model.OwnerSelf,
			})
		}

		occupied := false
		for _, record := range grouped[resource] {
			if !record.Start.After(now) && now.Before(record.End) {
				occupied = true
				break
			}
		}

		reservedSlots := ceilHourSlots(reservedMinutes)
		availableSlots := ceilHourSlots(bookableMinutes - reservedMinutes)
		rate := 0.0
		if bookableMinutes > 0 {
			rate = float64(reservedMinutes) / float64(bookableMinutes)
		}

		rows = append(rows, model.ScheduleRow{
			Resource:         resource,
			ReservationCount: len(inWindow),
			ReservedSlots:    reservedSlots,
			AvailableSlots:   availableSlots,
			UnavailableSlots: blockedSlots + reservedSlots,
			OccupancyRate:    rate,
			Occupied:         occupied,
			Reservations:     entries,
		})
	}

	// Least-booked resources first so free options surface at the top.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ReservationCount != rows[j].ReservationCount {
			return rows[i].ReservationCount < rows[j].ReservationCount
		}
		return rows[i].Resource < rows[j].Resource
	})
	return rows
}

// ceilHourSlots converts minutes to whole-hour slots, counting any partial
// hour as a full slot.
func ceilHourSlots(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + 59) / 60
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
