package service

import (
	"fmt"
	"testing"
	"time"

	"yeyak/internal/reservations/repository"
	apperrors "yeyak/pkg/errors"
	"yeyak/pkg/model"
)

func seedSelf(t *testing.T, store *repository.Store, id, resource string, start, end, createdAt time.Time) {
	t.Helper()
	active, err := store.LoadActive()
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	active = append(active, model.ReservationRecord{
		ID:        id,
		Resource:  resource,
		Start:     start,
		End:       end,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Owner:     model.OwnerSelf,
	})
	if err := store.SaveActive(active); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}
}

func TestSuggestOptionsAroundConflict(t *testing.T) {
	svc, store := newTestService(t)
	seedExternal(t, store, "busy-1", "회의실1", at(10, 0), at(11, 0))

	// The 09:30-10:30 before-candidate collides with the existing booking,
	// so the first viable alternative slides flush after it.
	now := at(9, 0)
	options, err := svc.SuggestOptions("회의실1", at(10, 30), at(11, 30), now, 3)
	if err != nil {
		t.Fatalf("SuggestOptions failed: %v", err)
	}
	if len(options) != 3 {
		t.Fatalf("options = %+v, want 3", options)
	}

	first := options[0]
	if first.Strategy != model.StrategyShiftAfter {
		t.Errorf("first strategy = %s, want %s", first.Strategy, model.StrategyShiftAfter)
	}
	if !first.Start.Equal(at(11, 0)) || !first.End.Equal(at(12, 0)) {
		t.Errorf("shifted slot = %v-%v, want 11:00-12:00", first.Start, first.End)
	}

	second := options[1]
	if second.Strategy != model.StrategyOtherResource || second.Resource != "회의실2" {
		t.Errorf("second option = %+v, want 회의실2 at the requested time", second)
	}
	if !second.Start.Equal(at(10, 30)) || !second.End.Equal(at(11, 30)) {
		t.Errorf("sibling slot = %v-%v, want the requested 10:30-11:30", second.Start, second.End)
	}

	if options[2].Resource != "회의실3" {
		t.Errorf("third option resource = %s, want 회의실3 (name order)", options[2].Resource)
	}
}

func TestSuggestOptionsFreeSlotComesFirst(t *testing.T) {
	svc, _ := newTestService(t)
	now := at(8, 30)

	options, err := svc.SuggestOptions("회의실1", at(10, 0), at(11, 0), now, 3)
	if err != nil {
		t.Fatalf("SuggestOptions failed: %v", err)
	}
	if len(options) != 3 {
		t.Fatalf("options = %+v, want 3", options)
	}
	if options[0].Strategy != model.StrategyRequested {
		t.Errorf("first strategy = %s, want %s", options[0].Strategy, model.StrategyRequested)
	}
	if options[1].Strategy != model.StrategyShiftBefore || !options[1].Start.Equal(at(9, 0)) {
		t.Errorf("second option = %+v, want 09:00-10:00 before-shift", options[1])
	}
	if options[2].Strategy != model.StrategyShiftAfter || !options[2].Start.Equal(at(11, 0)) {
		t.Errorf("third option = %+v, want 11:00-12:00 after-shift", options[2])
	}
}

func TestSuggestOptionsRespectsBusinessClose(t *testing.T) {
	svc, store := newTestService(t)
	seedExternal(t, store, "busy-1", "회의실1", at(17, 30), at(18, 30))

	now := at(9, 0)
	options, err := svc.SuggestOptions("회의실1", at(18, 0), at(19, 0), now, 10)
	if err != nil {
		t.Fatalf("SuggestOptions failed: %v", err)
	}

	// The after-shift would run 18:30-19:30, past close; no option may
	// leave business hours.
	for _, option := range options {
		if option.End.Hour() > 19 || (option.End.Hour() == 19 && option.End.Minute() > 0) {
			t.Errorf("option %+v ends after business close", option)
		}
		if option.Strategy == model.StrategyShiftAfter {
			t.Errorf("after-shift %+v should have been rejected", option)
		}
	}
}

func TestSuggestOptionsEmptyIsNotAnError(t *testing.T) {
	svc, store := newTestService(t)

	// Block the requested slot on every sibling room too.
	for i, id := range []string{"b1", "b2", "b3", "b4", "b5", "b6", "b7", "b8", "b9", "b10"} {
		seedExternal(t, store, id, roomName(i+1), at(8, 0), at(19, 0))
	}

	// Late in the day there is no room for shifts either.
	now := at(18, 50)
	options, err := svc.SuggestOptions("회의실1", at(18, 50), at(19, 0), now, 5)
	if err != nil {
		t.Fatalf("SuggestOptions failed: %v", err)
	}
	if len(options) != 0 {
		t.Errorf("options = %+v, want none", options)
	}
}

func TestSuggestOptionsInvalidLimit(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SuggestOptions("회의실1", at(10, 0), at(11, 0), at(9, 0), 0)
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("err = %v, want %s", err, apperrors.CodeInvalidInput)
	}
}

func roomName(i int) string {
	return fmt.Sprintf("회의실%d", i)
}

func TestResolveSelfOverlap(t *testing.T) {
	svc, store := newTestService(t)
	seedSelf(t, store, "mine-1", "회의실1", at(10, 0), at(11, 0), at(9, 0))

	now := at(9, 30)
	options, overlaps, err := svc.ResolveSelfOverlap("회의실1", at(10, 30), at(11, 30), now)
	if err != nil {
		t.Fatalf("ResolveSelfOverlap failed: %v", err)
	}
	if len(overlaps) != 1 || overlaps[0].ID != "mine-1" {
		t.Fatalf("overlaps = %+v, want mine-1", overlaps)
	}
	if len(options) != 3 {
		t.Fatalf("options = %+v, want merge/replace/keep", options)
	}

	merge := options[0]
	if merge.Strategy != model.StrategyMergeExisting {
		t.Errorf("first strategy = %s, want %s", merge.Strategy, model.StrategyMergeExisting)
	}
	if !merge.Start.Equal(at(10, 0)) || !merge.End.Equal(at(11, 30)) {
		t.Errorf("merge interval = %v-%v, want the union 10:00-11:30", merge.Start, merge.End)
	}

	replace := options[1]
	if replace.Strategy != model.StrategyReplaceExisting || !replace.Start.Equal(at(10, 30)) || !replace.End.Equal(at(11, 30)) {
		t.Errorf("replace option = %+v, want the requested 10:30-11:30", replace)
	}

	keep := options[2]
	if keep.Strategy != model.StrategyKeepExisting || !keep.Start.Equal(at(10, 0)) || !keep.End.Equal(at(11, 0)) {
		t.Errorf("keep option = %+v, want the existing 10:00-11:00", keep)
	}
}

func TestResolveSelfOverlapIgnoresExternalRecords(t *testing.T) {
	svc, store := newTestService(t)
	seedExternal(t, store, "theirs-1", "회의실1", at(10, 0), at(11, 0))

	options, overlaps, err := svc.ResolveSelfOverlap("회의실1", at(10, 30), at(11, 30), at(9, 0))
	if err != nil {
		t.Fatalf("ResolveSelfOverlap failed: %v", err)
	}
	if options != nil || overlaps != nil {
		t.Errorf("options = %+v overlaps = %+v, want none for an external conflict", options, overlaps)
	}
}

func TestCommitMerge(t *testing.T) {
	svc, store := newTestService(t)
	seedSelf(t, store, "mine-1", "회의실1", at(10, 0), at(11, 0), at(9, 0))

	now := at(9, 30)
	record, err := svc.CommitMerge("회의실1", at(10, 30), at(11, 30), []string{"mine-1"}, "회의실1 연장해줘", now)
	if err != nil {
		t.Fatalf("CommitMerge failed: %v", err)
	}

	if !record.Start.Equal(at(10, 0)) || !record.End.Equal(at(11, 30)) {
		t.Errorf("merged interval = %v-%v, want 10:00-11:30", record.Start, record.End)
	}
	if record.ChangeSource != model.ChangeMerged {
		t.Errorf("change source = %q, want %q", record.ChangeSource, model.ChangeMerged)
	}

	active, err := store.LoadActive()
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != record.ID {
		t.Fatalf("active = %+v, want only the merged record", active)
	}
}

func TestCommitReplace(t *testing.T) {
	svc, store := newTestService(t)
	seedSelf(t, store, "mine-1", "회의실1", at(10, 0), at(11, 0), at(9, 0))

	now := at(9, 30)
	record, err := svc.CommitReplace("회의실1", at(10, 30), at(11, 30), []string{"mine-1"}, "", now)
	if err != nil {
		t.Fatalf("CommitReplace failed: %v", err)
	}

	if !record.Start.Equal(at(10, 30)) || !record.End.Equal(at(11, 30)) {
		t.Errorf("replaced interval = %v-%v, want the requested 10:30-11:30", record.Start, record.End)
	}
	if record.ChangeSource != model.ChangeReplaced {
		t.Errorf("change source = %q, want %q", record.ChangeSource, model.ChangeReplaced)
	}

	active, err := store.LoadActive()
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != record.ID {
		t.Fatalf("active = %+v, want only the replacement", active)
	}
}

func TestCommitRejectsForeignRecords(t *testing.T) {
	svc, store := newTestService(t)
	seedExternal(t, store, "theirs-1", "회의실1", at(10, 0), at(11, 0))

	_, err := svc.CommitReplace("회의실1", at(10, 30), at(11, 30), []string{"theirs-1"}, "", at(9, 0))
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("err = %v, want %s", err, apperrors.CodeForbidden)
	}
}

func TestCommitUnknownIDs(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CommitMerge("회의실1", at(10, 0), at(11, 0), []string{"missing"}, "", at(9, 0))
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("err = %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestKeepExistingPicksEarliest(t *testing.T) {
	svc, store := newTestService(t)
	seedSelf(t, store, "later", "회의실1", at(11, 0), at(12, 0), at(9, 0))
	seedSelf(t, store, "earlier", "회의실1", at(10, 0), at(11, 0), at(9, 30))
	seedSelf(t, store, "same-start-created-first", "회의실2", at(10, 0), at(11, 0), at(8, 0))

	kept, err := svc.KeepExisting([]string{"later", "earlier"})
	if err != nil {
		t.Fatalf("KeepExisting failed: %v", err)
	}
	if kept.ID != "earlier" {
		t.Errorf("kept = %s, want the record with the earliest start", kept.ID)
	}

	kept, err = svc.KeepExisting([]string{"earlier", "same-start-created-first"})
	if err != nil {
		t.Fatalf("KeepExisting failed: %v", err)
	}
	if kept.ID != "same-start-created-first" {
		t.Errorf("kept = %s, want creation time as the tie-break", kept.ID)
	}

	active, err := store.LoadActive()
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(active) != 3 {
		t.Errorf("active = %d records, want all 3 untouched", len(active))
	}
}
