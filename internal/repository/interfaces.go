// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"psu-service/internal/model"
)

// ErrNotFound is returned when an operation id is unknown
var ErrNotFound = errors.New("operation not found")

// OperationRepository defines operation data access operations
type OperationRepository interface {
	// CRUD operations
	Create(ctx context.Context, operation *model.Operation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Operation, error)
	Update(ctx context.Context, operation *model.Operation) error

	// Listing and filtering
	List(ctx context.Context, filter *OperationFilter) ([]*model.Operation, int, error)

	// Analytics
	GetOperationStats(ctx context.Context, filter *OperationStatsFilter) (*OperationStats, error)

	// Cleanup
	DeleteOldOperations(ctx context.Context, olderThan time.Time) (int64, error)
}

// OperationFilter represents operation listing filters
type OperationFilter struct {
	OperationType *model.OperationType   `json:"operation_type,omitempty"`
	Status        *model.OperationStatus `json:"status,omitempty"`
	StartDate     *time.Time             `json:"start_date,omitempty"`
	EndDate       *time.Time             `json:"end_date,omitempty"`
	Page          int                    `json:"page"`
	PerPage       int                    `json:"per_page"`
}

// Normalize fills in paging defaults
func (f *OperationFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 20
	}
	if f.PerPage > 500 {
		f.PerPage = 500
	}
}

// OperationStatsFilter represents operation statistics filters
type OperationStatsFilter struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// OperationStats represents operation statistics
type OperationStats struct {
	TotalOperations int                           `json:"total_operations"`
	SuccessfulOps   int                           `json:"successful_operations"`
	FailedOps       int                           `json:"failed_operations"`
	AvgDuration     time.Duration                 `json:"average_duration"`
	ByType          map[model.OperationType]int   `json:"by_type"`
	ByStatus        map[model.OperationStatus]int `json:"by_status"`
}

func newOperationStats() *OperationStats {
	return &OperationStats{
		ByType:   make(map[model.OperationType]int),
		ByStatus: make(map[model.OperationStatus]int),
	}
}
