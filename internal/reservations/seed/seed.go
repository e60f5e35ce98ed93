// Package seed generates deterministic demo reservations. The same start
// date and parameters always produce the same data set, so local environments
// stay reproducible.
package seed

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"yeyak/internal/reservations/holiday"
	"yeyak/pkg/model"

	"github.com/google/uuid"
)

const (
	businessStartHour = 8
	businessEndHour   = 19
	windowDays        = 30
)

var stepMinutes = []int{0, 10, 20, 30, 40, 50}

// fleet is the demo resource roster: ten meeting rooms and twenty test
// devices.
func fleet() []string {
	resources := make([]string, 0, 30)
	for i := 1; i <= 10; i++ {
		resources = append(resources, fmt.Sprintf("회의실%d", i))
	}
	for i := 1; i <= 20; i++ {
		resources = append(resources, fmt.Sprintf("테스트단말기%d", i))
	}
	return resources
}

// newRNG derives a rand.Rand from a textual seed so generated data is stable
// across runs for the same parameters.
func newRNG(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func dayStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

func businessDays(calendar holiday.Calendar, from time.Time, days int) []time.Time {
	var result []time.Time
	cursor := dayStart(from)
	for i := 0; i < days; i++ {
		if cursor.Weekday() != time.Saturday && cursor.Weekday() != time.Sunday && !calendar.IsHoliday(cursor) {
			result = append(result, cursor)
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return result
}

// nearTermDensity weighs earlier days heavier, tapering from 1.45 toward a
// floor of 0.75 over the window.
func nearTermDensity(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	progress := float64(index) / float64(total-1)
	base := 1.45 - 0.65*progress
	if base < 0.75 {
		return 0.75
	}
	return base
}

func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	pick := rng.Float64() * total
	var cumulative float64
	for i, w := range weights {
		if w > 0 {
			cumulative += w
		}
		if pick <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Standard produces one upcoming reservation per fleet resource, landing on
// density-weighted business days within the next 30 days. All records are
// externally owned so they act as conflicts, not as the caller's own bookings.
func Standard(now time.Time, calendar holiday.Calendar) ([]model.ReservationRecord, error) {
	days := businessDays(calendar, now, windowDays)
	if len(days) == 0 {
		return nil, fmt.Errorf("no business days available in the next %d days", windowDays)
	}

	rng := newRNG(fmt.Sprintf("test:%s", dayStart(now).Format("2006-01-02")))

	dayWeights := make([]float64, len(days))
	for i := range days {
		dayWeights[i] = nearTermDensity(i, len(days))
	}

	var records []model.ReservationRecord
	for _, resource := range fleet() {
		day := days[weightedIndex(rng, dayWeights)]
		startHour := businessStartHour + rng.Intn(businessEndHour-1-businessStartHour)
		startMinute := stepMinutes[rng.Intn(len(stepMinutes))]
		start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMinute)*time.Minute)

		maxDuration := 60 - startMinute
		var durations []int
		for _, d := range []int{10, 20, 30, 40, 50, 60} {
			if d <= maxDuration {
				durations = append(durations, d)
			}
		}
		duration := durations[rng.Intn(len(durations))]

		records = append(records, record(resource, start, start.Add(time.Duration(duration)*time.Minute), now))
	}
	return records, nil
}

// Large fills the window with a dense, clustered data set: demand skews
// toward a few popular resources and toward start times near now's clock
// position, with per-resource non-overlap enforced during generation.
func Large(now time.Time, calendar holiday.Calendar, days, slotsPerDay int) ([]model.ReservationRecord, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}
	if slotsPerDay <= 0 || slotsPerDay > 5 {
		return nil, fmt.Errorf("slots per day must be between 1 and 5")
	}

	window := businessDays(calendar, now, days)
	if len(window) == 0 {
		return nil, fmt.Errorf("no business days available in the given window")
	}

	rng := newRNG(fmt.Sprintf("large:%s:%d:%d", dayStart(now).Format("2006-01-02"), days, slotsPerDay))

	resources := fleet()
	resourceWeights := make([]float64, len(resources))
	for i, resource := range resources {
		resourceWeights[i] = resourceDemand(resource)
	}

	preferredMinutes := now.Hour()*60 + (now.Minute()/10)*10

	var records []model.ReservationRecord
	for dayIndex, day := range window {
		density := nearTermDensity(dayIndex, len(window))
		slotFactor := float64(slotsPerDay) / 4
		if slotFactor < 0.75 {
			slotFactor = 0.75
		}

		dailyMin := int(36 * density * slotFactor)
		if dailyMin < 20 {
			dailyMin = 20
		}
		dailyMax := int(70 * density * slotFactor)
		if dailyMax < dailyMin+8 {
			dailyMax = dailyMin + 8
		}
		dailyTarget := dailyMin + rng.Intn(dailyMax-dailyMin+1)

		var candidateStarts []time.Time
		var candidateWeights []float64
		for hour := businessStartHour; hour < businessEndHour; hour++ {
			for _, minute := range stepMinutes {
				start := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
				minuteOfDay := hour*60 + minute
				distance := minuteOfDay - preferredMinutes
				if distance < 0 {
					distance = -distance
				}
				weight := 1.2 / (1 + float64(distance)/120)
				if sameDate(day, now) && minuteOfDay >= preferredMinutes {
					weight *= 1.4
				}
				candidateStarts = append(candidateStarts, start)
				candidateWeights = append(candidateWeights, weight)
			}
		}

		usage := make(map[string][]model.ReservationRecord)
		startUsage := make(map[string]int)
		produced := 0
		for attempts := 0; produced < dailyTarget && attempts < dailyTarget*8; attempts++ {
			resource := resources[weightedIndex(rng, resourceWeights)]

			adjusted := make([]float64, len(candidateStarts))
			for i, start := range candidateStarts {
				penalty := 1 + float64(startUsage[start.Format(model.MinuteLayout)])*0.65
				adjusted[i] = candidateWeights[i] / penalty
			}
			start := candidateStarts[weightedIndex(rng, adjusted)]

			closeOfDay := day.Add(time.Duration(businessEndHour) * time.Hour)
			maxDuration := int(closeOfDay.Sub(start).Minutes())
			var durations []int
			for _, d := range []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120} {
				if d <= maxDuration {
					durations = append(durations, d)
				}
			}
			if len(durations) == 0 {
				continue
			}
			end := start.Add(time.Duration(durations[rng.Intn(len(durations))]) * time.Minute)

			if overlapsAny(usage[resource], start, end) {
				continue
			}

			rec := record(resource, start, end, now)
			usage[resource] = append(usage[resource], rec)
			startUsage[start.Format(model.MinuteLayout)]++
			records = append(records, rec)
			produced++
		}
	}
	return records, nil
}

// SpecificResource produces three one-hour slots for one resource at 09:00,
// 11:00, and 15:00 on the next three business days.
func SpecificResource(resource string, now time.Time, calendar holiday.Calendar) ([]model.ReservationRecord, error) {
	if resource == "" {
		return nil, fmt.Errorf("resource must not be empty")
	}
	days := businessDays(calendar, now, windowDays)
	if len(days) < 3 {
		return nil, fmt.Errorf("not enough business days available in the next %d days", windowDays)
	}

	hours := []int{9, 11, 15}
	records := make([]model.ReservationRecord, 0, len(hours))
	for i, hour := range hours {
		start := days[i].Add(time.Duration(hour) * time.Hour)
		records = append(records, record(resource, start, start.Add(time.Hour), now))
	}
	return records, nil
}

func record(resource string, start, end, now time.Time) model.ReservationRecord {
	return model.ReservationRecord{
		ID:        uuid.NewString(),
		Resource:  resource,
		Start:     start,
		End:       end,
		CreatedAt: now,
		UpdatedAt: now,
		Owner:     model.OwnerExternal,
	}
}

// resourceDemand skews generated load toward the first few rooms and devices.
func resourceDemand(resource string) float64 {
	switch resource {
	case "회의실1", "회의실2", "회의실3":
		return 7
	case "테스트단말기1", "테스트단말기2", "테스트단말기3", "테스트단말기4", "테스트단말기5":
		return 4
	}
	if len(resource) >= len("회의실") && resource[:len("회의실")] == "회의실" {
		return 1
	}
	return 2
}

func overlapsAny(records []model.ReservationRecord, start, end time.Time) bool {
	for _, r := range records {
		if start.Before(r.End) && end.After(r.Start) {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
