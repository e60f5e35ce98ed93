package service

import (
	"errors"
	"fmt"
	"time"

	"yeyak/internal/reservations/validator"
	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/interval"
	"yeyak/pkg/logger"
	"yeyak/pkg/model"

	"github.com/google/uuid"
)

// Store is the persistence surface the service drives. Implemented by the
// YAML repository; mocked in tests.
type Store interface {
	WithLock(fn func() error) error
	LoadActive() ([]model.ReservationRecord, error)
	LoadClosed() ([]model.ReservationRecord, error)
	SaveActive(records []model.ReservationRecord) error
	SaveClosed(records []model.ReservationRecord) error
	AppendEvent(eventType string, payload map[string]any, at time.Time) error
}

type ReservationService interface {
	Create(req *model.ReservationRequest, now time.Time) (*model.ReservationRecord, error)
	Update(id string, updates *model.ReservationUpdate, now time.Time) (*model.ReservationRecord, error)
	Delete(id string, now time.Time) (*model.ReservationRecord, error)
	CloseExpired(now time.Time) (int, error)
	ListActive(now time.Time) ([]model.ReservationRecord, error)
	ListClosed() ([]model.ReservationRecord, error)
	GetActive(id string) (*model.ReservationRecord, error)
	Schedule(period string, now time.Time) (*model.ScheduleView, error)

	SuggestOptions(resource string, start, end, now time.Time, limit int) ([]model.ReservationOption, error)
	ResolveSelfOverlap(resource string, start, end, now time.Time) ([]model.ReservationOption, []model.ReservationRecord, error)
	CommitMerge(resource string, start, end time.Time, ids []string, text string, now time.Time) (*model.ReservationRecord, error)
	CommitReplace(resource string, start, end time.Time, ids []string, text string, now time.Time) (*model.ReservationRecord, error)
	KeepExisting(ids []string) (*model.ReservationRecord, error)

	Seed(records []model.ReservationRecord, overwrite bool, eventType string, meta map[string]any, now time.Time) (int, error)
}

type reservationService struct {
	store     Store
	validator *validator.BookingValidator
	log       *logger.Logger
}

func NewReservationService(store Store, bookingValidator *validator.BookingValidator, log *logger.Logger) ReservationService {
	return &reservationService{
		store:     store,
		validator: bookingValidator,
		log:       log,
	}
}

func (s *reservationService) Create(req *model.ReservationRequest, now time.Time) (*model.ReservationRecord, error) {
	if req.Owner == "" {
		req.Owner = model.OwnerSelf
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, asValidationError(err)
	}

	resource, start, end, err := s.validator.ValidateAndNormalize(req.Resource, req.Start, req.End, now)
	if err != nil {
		s.log.Warn("Reservation validation failed", "resource", req.Resource, "error", err)
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

		conflicts := overlapping(active, resource, start, end, "")
		if len(conflicts) > 0 {
			return conflictError(conflicts)
		}

		record = model.ReservationRecord{
			ID:          uuid.NewString(),
			Resource:    resource,
			Start:       start,
			End:         end,
			CreatedAt:   now,
			UpdatedAt:   now,
			Owner:       req.Owner,
			RequestText: req.RequestText,
		}
		if err := s.saveActive(append(active, record)); err != nil {
			return err
		}

		s.appendEvent(model.EventReservationCreated, map[string]any{
			"reservation_id": record.ID,
			"resource":       record.Resource,
			"start":          record.Start.Format(model.MinuteLayout),
			"end":            record.End.Format(model.MinuteLayout),
			"owner":          record.Owner,
			"request_text":   record.RequestText,
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation created",
		"id", record.ID,
		"resource", record.Resource,
		"start", record.Start.Format(model.MinuteLayout),
		"end", record.End.Format(model.MinuteLayout),
	)
	return &record, nil
}

func (s *reservationService) Update(id string, updates *model.ReservationUpdate, now time.Time) (*model.ReservationRecord, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	var updated model.ReservationRecord
	err := s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}

		active, err := s.loadActive()
		if err != nil {
			return err
		}

		index := indexByID(active, id)
		if index < 0 {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		current := active[index]

		newResource := current.Resource
		if updates.Resource != nil {
			newResource = *updates.Resource
		}
		newStart := current.Start
		if updates.Start != nil {
			newStart = *updates.Start
		}
		newEnd := current.End
		if updates.End != nil {
			newEnd = *updates.End
		}

		resource, start, end, err := s.validator.ValidateAndNormalize(newResource, newStart, newEnd, now)
		if err != nil {
			s.log.Warn("Reservation update validation failed", "id", id, "error", err)
			return asValidationError(err)
		}

		// The record's own interval is excluded from the overlap check.
		conflicts := overlapping(active, resource, start, end, id)
		if len(conflicts) > 0 {
			return conflictError(conflicts)
		}

		updated = current
		updated.Resource = resource
		updated.Start = start
		updated.End = end
		updated.UpdatedAt = now
		active[index] = updated

		if err := s.saveActive(active); err != nil {
			return err
		}

		s.appendEvent(model.EventReservationUpdated, map[string]any{
			"reservation_id": id,
			"resource":       resource,
			"start":          start.Format(model.MinuteLayout),
			"end":            end.Format(model.MinuteLayout),
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation updated", "id", id)
	return &updated, nil
}

func (s *reservationService) Delete(id string, now time.Time) (*model.ReservationRecord, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	var removed model.ReservationRecord
	err := s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}

		active, err := s.loadActive()
		if err != nil {
			return err
		}

		index := indexByID(active, id)
		if index < 0 {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		removed = active[index]

		if err := s.saveActive(append(active[:index], active[index+1:]...)); err != nil {
			return err
		}

		s.appendEvent(model.EventReservationDeleted, map[string]any{
			"reservation_id": removed.ID,
			"resource":       removed.Resource,
			"start":          removed.Start.Format(model.MinuteLayout),
			"end":            removed.End.Format(model.MinuteLayout),
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation deleted", "id", id)
	return &removed, nil
}

func (s *reservationService) CloseExpired(now time.Time) (int, error) {
	var moved int
	err := s.store.WithLock(func() error {
		var err error
		moved, err = s.closeExpiredLocked(now)
		return err
	})
	return moved, err
}

// closeExpiredLocked partitions the active set and moves expired records to
// the closed set. The closed file is written first: a crash between the two
// writes leaves a record visible in both sets rather than in neither, and
// the duplicate is harmless because the closed set is history only.
// A zero count performs no writes. Callers must hold the store lock.
func (s *reservationService) closeExpiredLocked(now time.Time) (int, error) {
	active, err := s.loadActive()
	if err != nil {
		return 0, err
	}

	remaining := make([]model.ReservationRecord, 0, len(active))
	var expired []model.ReservationRecord
	for _, record := range active {
		if !record.End.After(now) {
			expired = append(expired, record)
		} else {
			remaining = append(remaining, record)
		}
	}

	if len(expired) == 0 {
		return 0, nil
	}

	closed, err := s.store.LoadClosed()
	if err != nil {
		return 0, apperrors.Storage("Failed to load closed reservations", err)
	}
	if err := s.store.SaveClosed(append(closed, expired...)); err != nil {
		return 0, apperrors.Storage("Failed to save closed reservations", err)
	}
	if err := s.saveActive(remaining); err != nil {
		return 0, err
	}

	for _, record := range expired {
		s.appendEvent(model.EventReservationClosed, map[string]any{
			"reservation_id": record.ID,
			"resource":       record.Resource,
			"end":            record.End.Format(model.MinuteLayout),
		}, now)
	}

	s.log.Info("Expired reservations closed", "count", len(expired))
	return len(expired), nil
}

func (s *reservationService) ListActive(now time.Time) ([]model.ReservationRecord, error) {
	var records []model.ReservationRecord
	err := s.store.WithLock(func() error {
		if _, err := s.closeExpiredLocked(now); err != nil {
			return err
		}
		var err error
		records, err = s.loadActive()
		return err
	})
	return records, err
}

func (s *reservationService) ListClosed() ([]model.ReservationRecord, error) {
	records, err := s.store.LoadClosed()
	if err != nil {
		return nil, apperrors.Storage("Failed to load closed reservations", err)
	}
	return records, nil
}

func (s *reservationService) GetActive(id string) (*model.ReservationRecord, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	active, err := s.loadActive()
	if err != nil {
		return nil, err
	}
	if index := indexByID(active, id); index >= 0 {
		record := active[index]
		return &record, nil
	}
	return nil, apperrors.NotFoundWithID("Reservation", id)
}

// Seed bulk-loads generated records, each seeding mode logging under its own
// audit event type.
func (s *reservationService) Seed(records []model.ReservationRecord, overwrite bool, eventType string, meta map[string]any, now time.Time) (int, error) {
	if eventType == "" {
		eventType = model.EventTestDataGenerated
	}
	var count int
	err := s.store.WithLock(func() error {
		if overwrite {
			if err := s.saveActive(nil); err != nil {
				return err
			}
			if err := s.store.SaveClosed(nil); err != nil {
				return apperrors.Storage("Failed to reset closed reservations", err)
			}
		}

		active, err := s.loadActive()
		if err != nil {
			return err
		}
		if err := s.saveActive(append(active, records...)); err != nil {
			return err
		}
		count = len(records)

		payload := map[string]any{"count": count, "overwrite": overwrite}
		for k, v := range meta {
			payload[k] = v
		}
		s.appendEvent(eventType, payload, now)
		return nil
	})
	return count, err
}

// --- Helpers ---

func (s *reservationService) loadActive() ([]model.ReservationRecord, error) {
	active, err := s.store.LoadActive()
	if err != nil {
		return nil, apperrors.Storage("Failed to load active reservations", err)
	}
	return active, nil
}

func (s *reservationService) saveActive(records []model.ReservationRecord) error {
	if err := s.store.SaveActive(records); err != nil {
		return apperrors.Storage("Failed to save active reservations", err)
	}
	return nil
}

// appendEvent records an audit event after the state write committed. An
// audit failure does not roll the mutation back; it is logged and surfaced
// through the logger only.
func (s *reservationService) appendEvent(eventType string, payload map[string]any, at time.Time) {
	if err := s.store.AppendEvent(eventType, payload, at); err != nil {
		s.log.Error("Failed to append audit event", "type", eventType, "error", err)
	}
}

func indexByID(records []model.ReservationRecord, id string) int {
	for i, record := range records {
		if record.ID == id {
			return i
		}
	}
	return -1
}

// overlapping returns the active records on resource whose interval overlaps
// [start, end), excluding excludeID.
func overlapping(active []model.ReservationRecord, resource string, start, end time.Time, excludeID string) []model.ReservationRecord {
	var conflicts []model.ReservationRecord
	for _, record := range active {
		if record.Resource != resource || record.ID == excludeID {
			continue
		}
		overlap, err := interval.Overlaps(start, end, record.Start, record.End)
		if err != nil {
			// A stored record with an inverted interval cannot block anything.
			continue
		}
		if overlap {
			conflicts = append(conflicts, record)
		}
	}
	return conflicts
}

func fitsAmong(active []model.ReservationRecord, resource string, start, end time.Time) bool {
	intervals := make([]interval.Interval, 0)
	for _, record := range active {
		if record.Resource == resource {
			intervals = append(intervals, interval.Interval{Start: record.Start, End: record.End})
		}
	}
	ok, err := interval.FitsAmong(start, end, intervals)
	return err == nil && ok
}

func conflictError(conflicts []model.ReservationRecord) error {
	ids := make([]string, 0, len(conflicts))
	for _, record := range conflicts {
		ids = append(ids, record.ID)
	}
	first := conflicts[0]
	return apperrors.Conflict(fmt.Sprintf(
		"Reservation overlaps with an existing active reservation (%s - %s)",
		first.Start.Format(model.MinuteLayout),
		first.End.Format(model.MinuteLayout),
	)).WithDetails(map[string]any{"conflicting_ids": ids})
}

func asValidationError(err error) error {
	var ve *validator.Error
	if errors.As(err, &ve) {
		return apperrors.Validation(ve.Message, map[string]any{"reason": string(ve.Reason)})
	}
	return apperrors.Validation(err.Error(), nil)
}
