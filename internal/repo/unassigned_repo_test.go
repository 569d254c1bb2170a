package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

func unassignedDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newRepoDB(t, &domain.UnassignedVehicle{})
}

func pendingRecord(tenant, profileID, plate string) *domain.UnassignedVehicle {
	return &domain.UnassignedVehicle{
		TenantID:    tenant,
		ProfileID:   profileID,
		VehicleData: domain.VehicleData{Plate: plate, Brand: "RENAUL", Engine: "1.6"},
		Source:      "merge",
	}
}

func TestCreateUnassigned_DefaultsToPending(t *testing.T) {
	db := unassignedDB(t)

	u := pendingRecord("t1", "p1", "ABC123")
	if err := CreateUnassigned(context.Background(), db, u); err != nil {
		t.Fatalf("CreateUnassigned: %v", err)
	}
	if u.ID == "" || u.Status != domain.StatusPending {
		t.Fatalf("unexpected defaults: %+v", u)
	}
}

func TestFindPendingByProfileOrPlate(t *testing.T) {
	db := unassignedDB(t)
	ctx := context.Background()

	byProfile := pendingRecord("t1", "p1", "XXX000")
	if err := CreateUnassigned(ctx, db, byProfile); err != nil {
		t.Fatalf("create: %v", err)
	}
	byPlate := pendingRecord("t1", "p2", "ABC123")
	if err := CreateUnassigned(ctx, db, byPlate); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := FindPendingByProfileOrPlate(ctx, db, "t1", "p1", "NOPE")
	if err != nil || got == nil || got.ID != byProfile.ID {
		t.Fatalf("lookup by profile: got=%+v err=%v", got, err)
	}

	got, err = FindPendingByProfileOrPlate(ctx, db, "t1", "other", "ABC123")
	if err != nil || got == nil || got.ID != byPlate.ID {
		t.Fatalf("lookup by plate: got=%+v err=%v", got, err)
	}

	got, err = FindPendingByProfileOrPlate(ctx, db, "t1", "other", "NOPE")
	if err != nil || got != nil {
		t.Fatalf("expected no pending record, got=%+v err=%v", got, err)
	}
}

func TestFindPendingByProfileOrPlate_IgnoresTerminalRecords(t *testing.T) {
	db := unassignedDB(t)
	ctx := context.Background()

	u := pendingRecord("t1", "p1", "ABC123")
	if err := CreateUnassigned(ctx, db, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := TransitionUnassigned(ctx, db, "t1", u.ID, domain.StatusRejected, ""); err != nil {
		t.Fatalf("transition: %v", err)
	}

	got, err := FindPendingByProfileOrPlate(ctx, db, "t1", "p1", "ABC123")
	if err != nil || got != nil {
		t.Fatalf("rejected record must not be reused: got=%+v err=%v", got, err)
	}
}

func TestTransitionUnassigned_OnlyFromPending(t *testing.T) {
	db := unassignedDB(t)
	ctx := context.Background()

	u := pendingRecord("t1", "p1", "ABC123")
	if err := CreateUnassigned(ctx, db, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := TransitionUnassigned(ctx, db, "t1", u.ID, domain.StatusApproved, "looks right"); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	got, err := GetUnassigned(ctx, db, "t1", u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusApproved || got.Notes != "looks right" {
		t.Fatalf("transition not applied: %+v", got)
	}

	// Second flip loses the pending precondition.
	err = TransitionUnassigned(ctx, db, "t1", u.ID, domain.StatusRejected, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double transition, got %v", err)
	}
	got, _ = GetUnassigned(ctx, db, "t1", u.ID)
	if got.Status != domain.StatusApproved {
		t.Fatalf("terminal status must stick: %q", got.Status)
	}
}

func TestCountUnassignedByStatus(t *testing.T) {
	db := unassignedDB(t)
	ctx := context.Background()

	for i, plate := range []string{"A1", "A2", "A3"} {
		u := pendingRecord("t1", "p"+plate, plate)
		if err := CreateUnassigned(ctx, db, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		if i == 0 {
			if err := TransitionUnassigned(ctx, db, "t1", u.ID, domain.StatusApproved, ""); err != nil {
				t.Fatalf("transition: %v", err)
			}
		}
	}

	stats, err := CountUnassignedByStatus(ctx, db, "t1")
	if err != nil {
		t.Fatalf("CountUnassignedByStatus: %v", err)
	}
	if stats[domain.StatusPending] != 2 || stats[domain.StatusApproved] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
	if _, ok := stats[domain.StatusRejected]; ok {
		t.Fatal("empty statuses should be absent")
	}
}

func TestListUnassignedPage_StatusFilter(t *testing.T) {
	db := unassignedDB(t)
	ctx := context.Background()

	a := pendingRecord("t1", "p1", "A1")
	b := pendingRecord("t1", "p2", "A2")
	for _, u := range []*domain.UnassignedVehicle{a, b} {
		if err := CreateUnassigned(ctx, db, u); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := TransitionUnassigned(ctx, db, "t1", a.ID, domain.StatusDeleted, ""); err != nil {
		t.Fatalf("transition: %v", err)
	}

	pending, err := ListUnassignedPage(ctx, db, "t1", domain.StatusPending, 0, 10)
	if err != nil {
		t.Fatalf("ListUnassignedPage: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("expected only the pending record, got %+v", pending)
	}

	total, err := CountUnassigned(ctx, db, "t1", "")
	if err != nil || total != 2 {
		t.Fatalf("CountUnassigned all: total=%d err=%v", total, err)
	}
}
