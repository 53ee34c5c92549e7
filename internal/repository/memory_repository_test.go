package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psu-service/internal/model"
)

func newOperation(opType model.OperationType, status model.OperationStatus, createdAt time.Time, durationMs int) *model.Operation {
	return &model.Operation{
		ID:            uuid.New(),
		OperationType: opType,
		Status:        status,
		StartedAt:     createdAt,
		CreatedAt:     createdAt,
		DurationMs:    &durationMs,
	}
}

func TestMemoryRepositoryCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository(10, zap.NewNop())

	op := newOperation(model.OperationTypeSetVoltage, model.OperationStatusProcessing, time.Now(), 0)
	if err := repo.Create(ctx, op); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, op); err == nil {
		t.Error("expected duplicate id to be rejected")
	}

	// the stored copy is independent of the caller's value
	op.Status = model.OperationStatusSuccess
	got, err := repo.GetByID(ctx, op.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.OperationStatusProcessing {
		t.Errorf("status = %s before Update", got.Status)
	}

	if err := repo.Update(ctx, op); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, op.ID)
	if got.Status != model.OperationStatusSuccess {
		t.Errorf("status = %s after Update", got.Status)
	}

	missing := uuid.New()
	if _, err := repo.GetByID(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID unknown: %v", err)
	}
	if err := repo.Update(ctx, &model.Operation{ID: missing}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update unknown: %v", err)
	}
}

func TestMemoryRepositoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository(3, zap.NewNop())

	base := time.Now()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		op := newOperation(model.OperationTypeGetDisplayStatus, model.OperationStatusSuccess, base.Add(time.Duration(i)*time.Second), 1)
		ids = append(ids, op.ID)
		if err := repo.Create(ctx, op); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := repo.GetByID(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Error("oldest operation should have been evicted")
	}

	ops, total, err := repo.List(ctx, &OperationFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(ops) != 3 {
		t.Fatalf("total = %d, len = %d", total, len(ops))
	}
	if ops[0].ID != ids[4] || ops[2].ID != ids[2] {
		t.Error("List should return newest first")
	}
}

func TestMemoryRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository(100, zap.NewNop())

	base := time.Now().Add(-time.Hour)
	fixtures := []*model.Operation{
		newOperation(model.OperationTypeSetVoltage, model.OperationStatusSuccess, base, 10),
		newOperation(model.OperationTypeSetVoltage, model.OperationStatusRejected, base.Add(time.Minute), 0),
		newOperation(model.OperationTypeSetCurrent, model.OperationStatusTimeout, base.Add(2*time.Minute), 1000),
		newOperation(model.OperationTypeGetMode, model.OperationStatusSuccess, base.Add(3*time.Minute), 30),
	}
	for _, op := range fixtures {
		if err := repo.Create(ctx, op); err != nil {
			t.Fatal(err)
		}
	}

	setVoltage := model.OperationTypeSetVoltage
	success := model.OperationStatusSuccess
	since := base.Add(90 * time.Second)

	tests := []struct {
		name   string
		filter OperationFilter
		want   int
	}{
		{"all", OperationFilter{}, 4},
		{"by type", OperationFilter{OperationType: &setVoltage}, 2},
		{"by status", OperationFilter{Status: &success}, 2},
		{"type and status", OperationFilter{OperationType: &setVoltage, Status: &success}, 1},
		{"since", OperationFilter{StartDate: &since}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, total, err := repo.List(ctx, &tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if total != tt.want || len(ops) != tt.want {
				t.Errorf("total = %d, len = %d, want %d", total, len(ops), tt.want)
			}
		})
	}

	ops, total, _ := repo.List(ctx, &OperationFilter{Page: 2, PerPage: 3})
	if total != 4 || len(ops) != 1 || ops[0].ID != fixtures[0].ID {
		t.Errorf("second page = %d of %d", len(ops), total)
	}
	ops, _, _ = repo.List(ctx, &OperationFilter{Page: 5, PerPage: 3})
	if ops == nil || len(ops) != 0 {
		t.Errorf("past the end should be an empty slice, got %v", ops)
	}
}

func TestMemoryRepositoryStatsAndCleanup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperationRepository(100, zap.NewNop())

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()
	for _, op := range []*model.Operation{
		newOperation(model.OperationTypeSetVoltage, model.OperationStatusSuccess, old, 10),
		newOperation(model.OperationTypeSetVoltage, model.OperationStatusFailed, recent, 20),
		newOperation(model.OperationTypeGetMode, model.OperationStatusSuccess, recent, 30),
	} {
		if err := repo.Create(ctx, op); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.GetOperationStats(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalOperations != 3 || stats.SuccessfulOps != 2 || stats.FailedOps != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByType[model.OperationTypeSetVoltage] != 2 {
		t.Errorf("by type = %v", stats.ByType)
	}
	if stats.AvgDuration != 20*time.Millisecond {
		t.Errorf("average = %v", stats.AvgDuration)
	}

	deleted, err := repo.DeleteOldOperations(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || deleted != 1 {
		t.Fatalf("deleted %d, %v", deleted, err)
	}
	_, total, _ := repo.List(ctx, &OperationFilter{})
	if total != 2 {
		t.Errorf("remaining = %d", total)
	}
}
