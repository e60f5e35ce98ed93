package service

import (
	"fmt"
	"sort"
	"time"

	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/model"
	"yeyak/pkg/sanitizer"

	"github.com/google/uuid"
)

// defaultFleets lists resource families whose full roster is known even when
// some members have never been reserved. Any other prefix falls back to the
// resources seen in the stored records.
var defaultFleets = map[string]int{
	"회의실":    10,
	"테스트단말기": 20,
}

// SuggestOptions produces up to limit deterministic alternatives for the
// requested slot, in fixed strategy order: the requested slot itself when it
// is free, the same duration immediately before the requested start, a
// same-duration slot starting where the latest conflict ends, then the same
// slot on sibling resources in name order. Every candidate is re-checked
// against the business rules, so a shifted slot that would start in the past
// or spill outside business hours drops out. An empty result is a valid
// outcome, not an error.
func (s *reservationService) SuggestOptions(resource string, start, end, now time.Time, limit int) ([]model.ReservationOption, error) {
	if limit <= 0 {
		return nil, apperrors.InvalidInput("Option limit must be positive")
	}

	resource, start, end, err := s.validator.ValidateAndNormalize(resource, start, end, now)
	if err != nil {
		return nil, asValidationError(err)
	}

	var options []model.ReservationOption
	err = s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}
		active, err := s.loadActive()
		if err != nil {
			return err
		}
		closed, err := s.store.LoadClosed()
		if err != nil {
			return apperrors.Storage("Failed to load closed reservations", err)
		}

		collector := &optionCollector{limit: limit, seen: make(map[string]bool)}
		push := func(strategy, res string, slotStart, slotEnd time.Time) {
			if collector.full() {
				return
			}
			if err := s.validator.CheckBookable(slotStart, slotEnd, now); err != nil {
				return
			}
			if !fitsAmong(active, res, slotStart, slotEnd) {
				return
			}
			collector.add(model.ReservationOption{
				Strategy: strategy,
				Resource: res,
				Start:    slotStart,
				End:      slotEnd,
			})
		}

		push(model.StrategyRequested, resource, start, end)

		before, after := s.shiftedCandidates(active, resource, start, end)
		if sameDay(before.Start, start) {
			push(model.StrategyShiftBefore, resource, before.Start, before.End)
		}
		if sameDay(after.Start, start) {
			push(model.StrategyShiftAfter, resource, after.Start, after.End)
		}

		for _, sibling := range s.siblingResources(resource, active, closed) {
			push(model.StrategyOtherResource, sibling, start, end)
		}

		options = collector.options
		return nil
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}

type slot struct {
	Start time.Time
	End   time.Time
}

// shiftedCandidates derives the two time-shift probes. The before-candidate
// is always the requested duration mirrored directly before the requested
// start; when that collides with the blocking reservation it simply drops in
// the overlap check. The after-candidate slides flush against the latest
// conflict end, so it lands in the first gap after the blockers rather than
// inside them.
func (s *reservationService) shiftedCandidates(active []model.ReservationRecord, resource string, start, end time.Time) (slot, slot) {
	duration := end.Sub(start)
	before := slot{start.Add(-duration), start}

	conflicts := overlapping(active, resource, start, end, "")
	if len(conflicts) == 0 {
		return before, slot{end, end.Add(duration)}
	}

	latest := conflicts[0].End
	for _, record := range conflicts[1:] {
		if record.End.After(latest) {
			latest = record.End
		}
	}
	return before, slot{latest, latest.Add(duration)}
}

// siblingResources lists other resources sharing the requested resource's
// name prefix, in ascending name order.
func (s *reservationService) siblingResources(resource string, active, closed []model.ReservationRecord) []string {
	prefix := sanitizer.ResourcePrefix(resource)
	if prefix == "" {
		return nil
	}

	if count, ok := defaultFleets[prefix]; ok {
		siblings := make([]string, 0, count-1)
		for i := 1; i <= count; i++ {
			name := fmt.Sprintf("%s%d", prefix, i)
			if name != resource {
				siblings = append(siblings, name)
			}
		}
		return siblings
	}

	names := make(map[string]bool)
	for _, record := range active {
		names[record.Resource] = true
	}
	for _, record := range closed {
		names[record.Resource] = true
	}

	var siblings []string
	for name := range names {
		if name != resource && sanitizer.ResourcePrefix(name) == prefix {
			siblings = append(siblings, name)
		}
	}
	sort.Strings(siblings)
	return siblings
}

type optionCollector struct {
	limit   int
	seen    map[string]bool
	options []model.ReservationOption
}

func (c *optionCollector) full() bool {
	return len(c.options) >= c.limit
}

func (c *optionCollector) add(option model.ReservationOption) {
	key := fmt.Sprintf("%s|%s|%s",
		option.Resource,
		option.Start.Format(model.MinuteLayout),
		option.End.Format(model.MinuteLayout),
	)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.options = append(c.options, option)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ResolveSelfOverlap detects the caller's own reservations on the requested
// resource overlapping the requested slot and, when any exist, returns the
// three resolution choices: merge into one record spanning the union of the
// intervals, replace the existing records with the requested slot, or keep
// the earliest existing record untouched. No overlap means no options and no
// error; the request can proceed as a normal creation.
func (s *reservationService) ResolveSelfOverlap(resource string, start, end, now time.Time) ([]model.ReservationOption, []model.ReservationRecord, error) {
	resource, start, end, err := s.validator.ValidateAndNormalize(resource, start, end, now)
	if err != nil {
		return nil, nil, asValidationError(err)
	}

	var overlaps []model.ReservationRecord
	err = s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}
		active, err := s.loadActive()
		if err != nil {
			return err
		}
		for _, record := range overlapping(active, resource, start, end, "") {
			if record.Owner == model.OwnerSelf {
				overlaps = append(overlaps, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(overlaps) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, 0, len(overlaps))
	mergedStart, mergedEnd := start, end
	for _, record := range overlaps {
		ids = append(ids, record.ID)
		if record.Start.Before(mergedStart) {
			mergedStart = record.Start
		}
		if record.End.After(mergedEnd) {
			mergedEnd = record.End
		}
	}
	kept := earliestRecord(overlaps)

	options := []model.ReservationOption{
		{
			Strategy:       model.StrategyMergeExisting,
			Resource:       resource,
			Start:          mergedStart,
			End:            mergedEnd,
			ReservationIDs: ids,
		},
		{
			Strategy:       model.StrategyReplaceExisting,
			Resource:       resource,
			Start:          start,
			End:            end,
			ReservationIDs: ids,
		},
		{
			Strategy:       model.StrategyKeepExisting,
			Resource:       resource,
			Start:          kept.Start,
			End:            kept.End,
			ReservationIDs: ids,
		},
	}
	return options, overlaps, nil
}

// CommitMerge atomically removes the listed self-owned records and inserts a
// single record spanning the union of their intervals and the requested slot.
// The removal and the insertion land in one write of the active file.
func (s *reservationService) CommitMerge(resource string, start, end time.Time, ids []string, text string, now time.Time) (*model.ReservationRecord, error) {
	return s.commitResolution(model.ChangeMerged, resource, start, end, ids, text, now)
}

// CommitReplace atomically removes the listed self-owned records and inserts
// a record for exactly the requested slot.
func (s *reservationService) CommitReplace(resource string, start, end time.Time, ids []string, text string, now time.Time) (*model.ReservationRecord, error) {
	return s.commitResolution(model.ChangeReplaced, resource, start, end, ids, text, now)
}

func (s *reservationService) commitResolution(change, resource string, start, end time.Time, ids []string, text string, now time.Time) (*model.ReservationRecord, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("Reservation IDs cannot be empty")
	}

	resource, start, end, err := s.validator.ValidateAndNormalize(resource, start, end, now)
	if err != nil {
		return nil, asValidationError(err)
	}

	var record model.ReservationRecord
	err = s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}
		active, err := s.loadActive()
		if err != nil {
			return err
		}

		listed := make(map[string]bool, len(ids))
		for _, id := range ids {
			listed[id] = true
		}

		remaining := make([]model.ReservationRecord, 0, len(active))
		var removed []model.ReservationRecord
		for _, existing := range active {
			if !listed[existing.ID] {
				remaining = append(remaining, existing)
				continue
			}
			if existing.Owner != model.OwnerSelf {
				return apperrors.Forbidden("Only your own reservations can be merged or replaced")
			}
			removed = append(removed, existing)
		}
		if len(removed) != len(ids) {
			return apperrors.NotFound("One or more listed reservations")
		}

		newStart, newEnd := start, end
		if change == model.ChangeMerged {
			// The union of same-day intervals inside business hours stays
			// same-day and inside business hours, so only the overlap check
			// below needs to re-run against the merged bounds.
			for _, existing := range removed {
				if existing.Start.Before(newStart) {
					newStart = existing.Start
				}
				if existing.End.After(newEnd) {
					newEnd = existing.End
				}
			}
		}

		if conflicts := overlapping(remaining, resource, newStart, newEnd, ""); len(conflicts) > 0 {
			return conflictError(conflicts)
		}

		record = model.ReservationRecord{
			ID:           uuid.NewString(),
			Resource:     resource,
			Start:        newStart,
			End:          newEnd,
			CreatedAt:    now,
			UpdatedAt:    now,
			Owner:        model.OwnerSelf,
			RequestText:  text,
			ChangeSource: change,
		}
		if err := s.saveActive(append(remaining, record)); err != nil {
			return err
		}

		replacedIDs := make([]string, 0, len(removed))
		for _, existing := range removed {
			replacedIDs = append(replacedIDs, existing.ID)
		}
		s.appendEvent(model.EventReservationCreated, map[string]any{
			"reservation_id": record.ID,
			"resource":       record.Resource,
			"start":          record.Start.Format(model.MinuteLayout),
			"end":            record.End.Format(model.MinuteLayout),
			"change_source":  change,
			"replaced_ids":   replacedIDs,
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Self-overlap resolved", "id", record.ID, "change", change)
	return &record, nil
}

// KeepExisting resolves a self-overlap without mutating anything: it returns
// the earliest of the listed records, chosen by start time and then by
// creation time.
func (s *reservationService) KeepExisting(ids []string) (*model.ReservationRecord, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("Reservation IDs cannot be empty")
	}

	active, err := s.loadActive()
	if err != nil {
		return nil, err
	}

	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		listed[id] = true
	}
	var candidates []model.ReservationRecord
	for _, record := range active {
		if listed[record.ID] {
			candidates = append(candidates, record)
		}
	}
	if len(candidates) == 0 {
		return nil, apperrors.NotFound("One or more listed reservations")
	}

	kept := earliestRecord(candidates)
	return &kept, nil
}

func earliestRecord(records []model.ReservationRecord) model.ReservationRecord {
	kept := records[0]
	for _, record := range records[1:] {
		if record.Start.Before(kept.Start) ||
			(record.Start.Equal(kept.Start) && record.CreatedAt.Before(kept.CreatedAt)) {
			kept = record
		}
	}
	return kept
}
