// internal/repository/memory_repository.go
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psu-service/internal/model"
)

// memoryOperationRepository keeps the most recent operations in memory.
// It is used when no database is configured.
type memoryOperationRepository struct {
	mu         sync.RWMutex
	operations []*model.Operation // oldest first
	index      map[uuid.UUID]*model.Operation
	limit      int
	logger     *zap.Logger
}

// NewMemoryOperationRepository creates a repository holding at most limit
// operations. The oldest entries are evicted first.
func NewMemoryOperationRepository(limit int, logger *zap.Logger) OperationRepository {
	if limit <= 0 {
		limit = 1000
	}
	return &memoryOperationRepository{
		index:  make(map[uuid.UUID]*model.Operation),
		limit:  limit,
		logger: logger,
	}
}

// Create stores a copy of operation
func (r *memoryOperationRepository) Create(ctx context.Context, operation *model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[operation.ID]; exists {
		return fmt.Errorf("operation already exists with id: %s", operation.ID)
	}

	stored := *operation
	r.operations = append(r.operations, &stored)
	r.index[stored.ID] = &stored

	for len(r.operations) > r.limit {
		delete(r.index, r.operations[0].ID)
		r.operations = r.operations[1:]
	}
	return nil
}

// GetByID returns a copy of the stored operation
func (r *memoryOperationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	operation, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *operation
	return &out, nil
}

// Update replaces the stored operation
func (r *memoryOperationRepository) Update(ctx context.Context, operation *model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.index[operation.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, operation.ID)
	}
	*stored = *operation
	return nil
}

// List returns matching operations, newest first
func (r *memoryOperationRepository) List(ctx context.Context, filter *OperationFilter) ([]*model.Operation, int, error) {
	filter.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Operation
	for i := len(r.operations) - 1; i >= 0; i-- {
		op := r.operations[i]
		if matches(op, filter.OperationType, filter.Status, filter.StartDate, filter.EndDate) {
			matched = append(matched, op)
		}
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return []*model.Operation{}, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}

	out := make([]*model.Operation, 0, end-start)
	for _, op := range matched[start:end] {
		copied := *op
		out = append(out, &copied)
	}
	return out, total, nil
}

// GetOperationStats aggregates the stored operations
func (r *memoryOperationRepository) GetOperationStats(ctx context.Context, filter *OperationStatsFilter) (*OperationStats, error) {
	if filter == nil {
		filter = &OperationStatsFilter{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := newOperationStats()
	var totalDurationMs int64
	for _, op := range r.operations {
		if !matches(op, nil, nil, filter.StartDate, filter.EndDate) {
			continue
		}
		stats.add(op.OperationType, op.Status, 1)
		if op.DurationMs != nil {
			totalDurationMs += int64(*op.DurationMs)
		}
	}

	if stats.TotalOperations > 0 {
		stats.AvgDuration = time.Duration(totalDurationMs/int64(stats.TotalOperations)) * time.Millisecond
	}
	return stats, nil
}

// DeleteOldOperations drops operations created before olderThan
func (r *memoryOperationRepository) DeleteOldOperations(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.operations[:0]
	var deleted int64
	for _, op := range r.operations {
		if op.CreatedAt.Before(olderThan) {
			delete(r.index, op.ID)
			deleted++
			continue
		}
		kept = append(kept, op)
	}
	r.operations = kept

	if deleted > 0 {
		r.logger.Info("Deleted old operations",
			zap.Int64("rows_deleted", deleted),
			zap.Time("older_than", olderThan),
		)
	}
	return deleted, nil
}

func matches(op *model.Operation, opType *model.OperationType, status *model.OperationStatus, start, end *time.Time) bool {
	if opType != nil && op.OperationType != *opType {
		return false
	}
	if status != nil && op.Status != *status {
		return false
	}
	if start != nil && op.CreatedAt.Before(*start) {
		return false
	}
	if end != nil && op.CreatedAt.After(*end) {
		return false
	}
	return true
}
