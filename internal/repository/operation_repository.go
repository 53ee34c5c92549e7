// internal/repository/operation_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psu-service/internal/database"
	"psu-service/internal/model"
	"psu-service/internal/utils"
)

const operationColumns = `id, operation_type, parameters, status, started_at,
	completed_at, duration_ms, error_kind, error_message, result,
	request_id, created_at`

// operationRepository implements OperationRepository on PostgreSQL
type operationRepository struct {
	db       *database.DB
	logger   *zap.Logger
	dbLogger *utils.ServiceLogger
}

// NewOperationRepository creates a new operation repository
func NewOperationRepository(db *database.DB, logger *zap.Logger) OperationRepository {
	return &operationRepository{
		db:       db,
		logger:   logger,
		dbLogger: utils.NewServiceLogger(logger, "operation-repository"),
	}
}

// Create creates a new operation
func (r *operationRepository) Create(ctx context.Context, operation *model.Operation) error {
	query := `
		INSERT INTO psu_operations (
			id, operation_type, parameters, status, started_at, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		operation.ID, operation.OperationType, operation.Parameters,
		operation.Status, operation.StartedAt, operation.RequestID,
		operation.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create operation", zap.Error(err))
		return fmt.Errorf("failed to create operation: %w", err)
	}

	return nil
}

// GetByID retrieves an operation by ID
func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM psu_operations WHERE id = $1`

	operation, err := scanOperation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	return operation, nil
}

// Update stores the outcome of an operation
func (r *operationRepository) Update(ctx context.Context, operation *model.Operation) error {
	query := `
		UPDATE psu_operations SET
			status = $2, completed_at = $3, duration_ms = $4,
			error_kind = $5, error_message = $6, result = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		operation.ID, operation.Status, operation.CompletedAt,
		operation.DurationMs, operation.ErrorKind, operation.ErrorMessage,
		operation.Result,
	)

	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, operation.ID)
	}

	return nil
}

// List retrieves operations with filtering and pagination, newest first
func (r *operationRepository) List(ctx context.Context, filter *OperationFilter) ([]*model.Operation, int, error) {
	filter.Normalize()

	whereClause, args := buildWhere(filter.OperationType, filter.Status, filter.StartDate, filter.EndDate)
	argIndex := len(args) + 1

	// Count total records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM psu_operations %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count operations: %w", err)
	}

	offset := (filter.Page - 1) * filter.PerPage
	query := fmt.Sprintf(`
		SELECT %s
		FROM psu_operations %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, operationColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.PerPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	operations := []*model.Operation{}
	for rows.Next() {
		operation, err := scanOperation(rows)
		if err != nil {
			r.logger.Error("Failed to scan operation row", zap.Error(err))
			continue
		}
		operations = append(operations, operation)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return operations, total, nil
}

// GetOperationStats retrieves operation statistics
func (r *operationRepository) GetOperationStats(ctx context.Context, filter *OperationStatsFilter) (*OperationStats, error) {
	if filter == nil {
		filter = &OperationStatsFilter{}
	}
	whereClause, args := buildWhere(nil, nil, filter.StartDate, filter.EndDate)

	query := fmt.Sprintf(`
		SELECT operation_type, status, COUNT(*), COALESCE(SUM(duration_ms), 0)
		FROM psu_operations %s
		GROUP BY operation_type, status
	`, whereClause)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.dbLogger.LogDatabaseQuery("operation stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation stats: %w", err)
	}
	defer rows.Close()

	stats := newOperationStats()
	var totalDurationMs int64
	for rows.Next() {
		var (
			opType     model.OperationType
			status     model.OperationStatus
			count      int
			durationMs int64
		)
		if err := rows.Scan(&opType, &status, &count, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan operation stats: %w", err)
		}
		stats.add(opType, status, count)
		totalDurationMs += durationMs
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation stats: %w", err)
	}

	if stats.TotalOperations > 0 {
		stats.AvgDuration = time.Duration(totalDurationMs/int64(stats.TotalOperations)) * time.Millisecond
	}

	return stats, nil
}

// DeleteOldOperations removes old operation records
func (r *operationRepository) DeleteOldOperations(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM psu_operations WHERE created_at < $1`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, olderThan)
	r.dbLogger.LogDatabaseQuery("delete old operations", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old operations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Info("Deleted old operations",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("older_than", olderThan),
	)

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOperation(row rowScanner) (*model.Operation, error) {
	operation := &model.Operation{}
	err := row.Scan(
		&operation.ID, &operation.OperationType, &operation.Parameters,
		&operation.Status, &operation.StartedAt, &operation.CompletedAt,
		&operation.DurationMs, &operation.ErrorKind, &operation.ErrorMessage,
		&operation.Result, &operation.RequestID, &operation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return operation, nil
}

func buildWhere(opType *model.OperationType, status *model.OperationStatus, start, end *time.Time) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if opType != nil {
		args = append(args, *opType)
		conditions = append(conditions, fmt.Sprintf("operation_type = $%d", len(args)))
	}
	if status != nil {
		args = append(args, *status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if start != nil {
		args = append(args, *start)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if end != nil {
		args = append(args, *end)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (s *OperationStats) add(opType model.OperationType, status model.OperationStatus, count int) {
	s.TotalOperations += count
	s.ByType[opType] += count
	s.ByStatus[status] += count
	switch status {
	case model.OperationStatusSuccess:
		s.SuccessfulOps += count
	case model.OperationStatusFailed, model.OperationStatusTimeout, model.OperationStatusRejected:
		s.FailedOps += count
	}
}
