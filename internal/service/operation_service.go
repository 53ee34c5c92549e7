// internal/service/operation_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psu-service/internal/model"
	"psu-service/internal/repository"
)

// OperationService exposes the operation log
type OperationService struct {
	operationRepo repository.OperationRepository
	logger        *zap.Logger
}

// NewOperationService creates a new operation service
func NewOperationService(operationRepo repository.OperationRepository, logger *zap.Logger) *OperationService {
	return &OperationService{
		operationRepo: operationRepo,
		logger:        logger,
	}
}

// ListOperations lists operations, newest first
func (s *OperationService) ListOperations(ctx context.Context, filter *repository.OperationFilter) ([]*model.Operation, int, error) {
	if filter == nil {
		filter = &repository.OperationFilter{}
	}
	operations, total, err := s.operationRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list operations: %w", err)
	}
	return operations, total, nil
}

// GetOperation gets an operation by ID
func (s *OperationService) GetOperation(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	return s.operationRepo.GetByID(ctx, id)
}

// GetOperationStats aggregates the operation log
func (s *OperationService) GetOperationStats(ctx context.Context, filter *repository.OperationStatsFilter) (*repository.OperationStats, error) {
	stats, err := s.operationRepo.GetOperationStats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation stats: %w", err)
	}
	return stats, nil
}

// CleanupOldOperations removes operations older than retention
func (s *OperationService) CleanupOldOperations(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.operationRepo.DeleteOldOperations(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup operations: %w", err)
	}
	return deleted, nil
}

// RunRetention deletes expired operations once per interval until ctx is done
func (s *OperationService) RunRetention(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupOldOperations(ctx, retention); err != nil {
				s.logger.Error("Operation retention failed", zap.Error(err))
			}
		}
	}
}
