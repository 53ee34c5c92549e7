// internal/handler/operation_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"psu-service/internal/model"
	"psu-service/internal/repository"
	"psu-service/internal/service"
	"psu-service/internal/utils"
)

// OperationHandler exposes the operation log
type OperationHandler struct {
	operationService *service.OperationService
	logger           *utils.ServiceLogger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(operationService *service.OperationService, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{
		operationService: operationService,
		logger:           utils.NewServiceLogger(logger, "operation-handler"),
	}
}

// RegisterRoutes registers operation-related routes
func (h *OperationHandler) RegisterRoutes(router *gin.RouterGroup) {
	operations := router.Group("/operations")
	{
		operations.GET("", h.ListOperations)
		operations.GET("/stats", h.GetOperationStats)
		operations.GET("/:id", h.GetOperation)
	}
}

// ListOperations lists recent operations
// @Summary List operations
// @Description List recorded power supply operations, newest first
// @Tags Operations
// @Produce json
// @Param limit query int false "Items per page" default(20)
// @Param page query int false "Page number" default(1)
// @Param type query string false "Operation type" example(SET_VOLTAGE)
// @Param status query string false "Operation status" Enums(PROCESSING, SUCCESS, REJECTED, FAILED, TIMEOUT)
// @Param since query string false "RFC3339 lower bound on creation time"
// @Success 200 {object} utils.APIResponse{data=object{operations=[]model.Operation,total=int,page=int,limit=int}} "Operations"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Router /operations [get]
func (h *OperationHandler) ListOperations(c *gin.Context) {
	filter := &repository.OperationFilter{
		Page:    1,
		PerPage: 20,
	}

	if limit := c.Query("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l <= 0 {
			utils.ValidationErrorResponse(c, map[string]string{"limit": "must be a positive integer"})
			return
		}
		filter.PerPage = l
	}
	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if opType := c.Query("type"); opType != "" {
		t := model.OperationType(opType)
		filter.OperationType = &t
	}
	if status := c.Query("status"); status != "" {
		s := model.OperationStatus(status)
		filter.Status = &s
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"since": "must be an RFC3339 timestamp"})
			return
		}
		filter.StartDate = &t
	}

	operations, total, err := h.operationService.ListOperations(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list operations", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list operations", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Operations retrieved successfully", gin.H{
		"operations": operations,
		"total":      total,
		"page":       filter.Page,
		"limit":      filter.PerPage,
	})
}

// GetOperation gets an operation by ID
// @Summary Get operation
// @Tags Operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} utils.APIResponse{data=model.Operation} "Operation"
// @Failure 400 {object} utils.APIResponse "Invalid operation ID"
// @Failure 404 {object} utils.APIResponse "Operation not found"
// @Router /operations/{id} [get]
func (h *OperationHandler) GetOperation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid operation ID", err)
		return
	}

	operation, err := h.operationService.GetOperation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Operation not found", err)
			return
		}
		h.logger.Error("Failed to get operation", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get operation", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Operation retrieved successfully", operation)
}

// GetOperationStats aggregates the operation log
// @Summary Operation statistics
// @Tags Operations
// @Produce json
// @Success 200 {object} utils.APIResponse{data=repository.OperationStats} "Statistics"
// @Router /operations/stats [get]
func (h *OperationHandler) GetOperationStats(c *gin.Context) {
	stats, err := h.operationService.GetOperationStats(c.Request.Context(), nil)
	if err != nil {
		h.logger.Error("Failed to get operation stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get operation stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Operation stats retrieved successfully", stats)
}
