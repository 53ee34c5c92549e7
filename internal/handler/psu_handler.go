// internal/handler/psu_handler.go
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"psu-service/internal/service"
	"psu-service/internal/utils"
	"psu-service/pkg/driver"
)

// PSUHandler exposes the power supply catalog over HTTP
type PSUHandler struct {
	psu    *service.PowerSupplyService
	logger *utils.ServiceLogger
}

// ValueRequest carries one voltage or current value
type ValueRequest struct {
	Value *decimal.Decimal `json:"value" binding:"required" swaggertype:"number" example:"5.0"`
}

// OutputRequest switches the output
type OutputRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"true"`
}

// PresetsRequest carries three [voltage, current] pairs
type PresetsRequest struct {
	Presets [][]decimal.Decimal `json:"presets" binding:"required" swaggertype:"array,number"`
}

// DisplayResponse is a front panel reading
type DisplayResponse struct {
	Voltage string `json:"voltage" example:"5.00"`
	Current string `json:"current" example:"1.00"`
	Mode    string `json:"mode" example:"CV"`
}

// SetpointResponse is a voltage/current pair
type SetpointResponse struct {
	Voltage string `json:"voltage" example:"5.0"`
	Current string `json:"current" example:"1.0"`
}

// PresetResponse is one preset memory
type PresetResponse struct {
	Index   int    `json:"index" example:"0"`
	Voltage string `json:"voltage" example:"5.0"`
	Current string `json:"current" example:"1.0"`
}

// NewPSUHandler creates a new power supply handler
func NewPSUHandler(psu *service.PowerSupplyService, logger *zap.Logger) *PSUHandler {
	return &PSUHandler{
		psu:    psu,
		logger: utils.NewServiceLogger(logger, "psu-handler"),
	}
}

// RegisterRoutes registers power supply routes
func (h *PSUHandler) RegisterRoutes(router *gin.RouterGroup) {
	psu := router.Group("/psu")
	{
		psu.GET("", h.GetDevice)

		// Setpoints and output
		psu.PUT("/voltage", h.SetVoltage)
		psu.PUT("/current", h.SetCurrent)
		psu.PUT("/output", h.SetOutput)

		// Live readings
		psu.GET("/display", h.GetDisplayStatus)
		psu.GET("/voltage", h.GetVoltage)
		psu.GET("/current", h.GetCurrent)
		psu.GET("/mode", h.GetMode)

		// Stored settings
		psu.GET("/settings", h.GetSettings)
		psu.GET("/settings/voltage", h.GetVoltageSetting)
		psu.GET("/settings/current", h.GetCurrentSetting)
		psu.GET("/max", h.GetMaxValues)

		limits := psu.Group("/limits")
		{
			limits.PUT("/voltage", h.SetVoltageUpperLimit)
			limits.PUT("/current", h.SetCurrentUpperLimit)
			limits.GET("/voltage", h.GetVoltageUpperLimit)
			limits.GET("/current", h.GetCurrentUpperLimit)
		}

		presets := psu.Group("/presets")
		{
			presets.PUT("", h.SetPresets)
			presets.GET("", h.GetPresets)
			presets.POST("/:index/recall", h.RecallPreset)
		}
	}
}

// GetDevice returns the link state of the supply
// @Summary Get power supply state
// @Description Get identity, link state, counters and the latest display reading
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{device=model.Device,display=DisplayResponse}} "Power supply state"
// @Router /psu [get]
func (h *PSUHandler) GetDevice(c *gin.Context) {
	response := gin.H{"device": h.psu.GetDevice()}
	if status := h.psu.LastDisplayStatus(); status != nil {
		response["display"] = displayResponse(status)
	}
	utils.SuccessResponse(c, http.StatusOK, "Power supply state retrieved", response)
}

// SetVoltage programs the output voltage
// @Summary Set output voltage
// @Description Program the output voltage in volts with 0.1 V resolution
// @Tags PowerSupply
// @Accept json
// @Produce json
// @Param request body ValueRequest true "Voltage in volts"
// @Success 200 {object} utils.APIResponse "Voltage set"
// @Failure 400 {object} utils.APIResponse "Invalid value"
// @Failure 502 {object} utils.APIResponse "Supply did not acknowledge"
// @Failure 504 {object} utils.APIResponse "Supply did not answer"
// @Router /psu/voltage [put]
func (h *PSUHandler) SetVoltage(c *gin.Context) {
	h.setValue(c, "Voltage set", h.psu.SetVoltage)
}

// SetCurrent programs the output current
// @Summary Set output current
// @Description Program the output current in amperes with 0.1 A resolution
// @Tags PowerSupply
// @Accept json
// @Produce json
// @Param request body ValueRequest true "Current in amperes"
// @Success 200 {object} utils.APIResponse "Current set"
// @Failure 400 {object} utils.APIResponse "Invalid value"
// @Failure 502 {object} utils.APIResponse "Supply did not acknowledge"
// @Failure 504 {object} utils.APIResponse "Supply did not answer"
// @Router /psu/current [put]
func (h *PSUHandler) SetCurrent(c *gin.Context) {
	h.setValue(c, "Current set", h.psu.SetCurrent)
}

// SetVoltageUpperLimit programs the over-voltage limit
// @Summary Set voltage limit
// @Description Program the over-voltage protection limit
// @Tags PowerSupply
// @Accept json
// @Produce json
// @Param request body ValueRequest true "Voltage in volts"
// @Success 200 {object} utils.APIResponse "Voltage limit set"
// @Failure 400 {object} utils.APIResponse "Invalid value"
// @Router /psu/limits/voltage [put]
func (h *PSUHandler) SetVoltageUpperLimit(c *gin.Context) {
	h.setValue(c, "Voltage limit set", h.psu.SetVoltageUpperLimit)
}

// SetCurrentUpperLimit programs the over-current limit
// @Summary Set current limit
// @Description Program the over-current protection limit
// @Tags PowerSupply
// @Accept json
// @Produce json
// @Param request body ValueRequest true "Current in amperes"
// @Success 200 {object} utils.APIResponse "Current limit set"
// @Failure 400 {object} utils.APIResponse "Invalid value"
// @Router /psu/limits/current [put]
func (h *PSUHandler) SetCurrentUpperLimit(c *gin.Context) {
	h.setValue(c, "Current limit set", h.psu.SetCurrentUpperLimit)
}

// SetOutput switches the output
// @Summary Switch output
// @Description Switch the supply output on or off
// @Tags PowerSupply
// @Accept json
// @Produce json
// @Param request body OutputRequest true "Output state"
// @Success 200 {object} utils.APIResponse "Output switched"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /psu/output [put]
func (h *PSUHandler) SetOutput(c *gin.Context) {
	var req OutputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.psu.SetOutput(requestContext(c), *req.Enabled); err != nil {
		utils.DriverErrorResponse(c, "Failed to switch output", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Output switched", gin.H{"enabled": *req.Enabled})
}

// SetPresets stores the preset memories
// @Summary Store presets
// @Description Store exactly three [voltage, current] pairs in the preset memories
// @Tags PowerSupply
// @Accept json
// @Produce json
// @Param request body PresetsRequest true "Three preset pairs"
// @Success 200 {object} utils.APIResponse "Presets stored"
// @Failure 400 {object} utils.APIResponse "Invalid presets"
// @Router /psu/presets [put]
func (h *PSUHandler) SetPresets(c *gin.Context) {
	var req PresetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.psu.SetPresetValues(requestContext(c), req.Presets); err != nil {
		utils.DriverErrorResponse(c, "Failed to store presets", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Presets stored", nil)
}

// GetPresets reads the preset memories
// @Summary Get presets
// @Description Read the three preset memories
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]PresetResponse} "Presets"
// @Router /psu/presets [get]
func (h *PSUHandler) GetPresets(c *gin.Context) {
	slots, err := h.psu.GetPresetValues(requestContext(c))
	if err != nil {
		utils.DriverErrorResponse(c, "Failed to read presets", err)
		return
	}

	presets := make([]PresetResponse, 0, len(slots))
	for _, slot := range slots {
		presets = append(presets, PresetResponse{
			Index:   slot.Index,
			Voltage: slot.Voltage.StringFixed(1),
			Current: slot.Current.StringFixed(1),
		})
	}
	utils.SuccessResponse(c, http.StatusOK, "Presets retrieved", presets)
}

// RecallPreset applies a preset memory
// @Summary Recall preset
// @Description Apply preset memory 0, 1 or 2 to the output
// @Tags PowerSupply
// @Produce json
// @Param index path int true "Preset index" minimum(0) maximum(2)
// @Success 200 {object} utils.APIResponse "Preset recalled"
// @Failure 400 {object} utils.APIResponse "Invalid index"
// @Router /psu/presets/{index}/recall [post]
func (h *PSUHandler) RecallPreset(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Preset index must be an integer", err)
		return
	}

	if err := h.psu.RecallPresetValues(requestContext(c), index); err != nil {
		utils.DriverErrorResponse(c, "Failed to recall preset", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Preset recalled", gin.H{"index": index})
}

// GetDisplayStatus reads the front panel
// @Summary Get display
// @Description Read live voltage, current and regulation mode
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=DisplayResponse} "Display reading"
// @Failure 504 {object} utils.APIResponse "Supply did not answer"
// @Router /psu/display [get]
func (h *PSUHandler) GetDisplayStatus(c *gin.Context) {
	status, err := h.psu.GetDisplayStatus(requestContext(c))
	if err != nil {
		utils.DriverErrorResponse(c, "Failed to read display", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Display retrieved", displayResponse(status))
}

// GetVoltage reads the live voltage
// @Summary Get voltage
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{voltage=string}} "Live voltage"
// @Router /psu/voltage [get]
func (h *PSUHandler) GetVoltage(c *gin.Context) {
	h.getValue(c, "voltage", 2, h.psu.GetVoltage)
}

// GetCurrent reads the live current
// @Summary Get current
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{current=string}} "Live current"
// @Router /psu/current [get]
func (h *PSUHandler) GetCurrent(c *gin.Context) {
	h.getValue(c, "current", 2, h.psu.GetCurrent)
}

// GetMode reads the regulation mode
// @Summary Get mode
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{mode=string}} "CV or CC"
// @Router /psu/mode [get]
func (h *PSUHandler) GetMode(c *gin.Context) {
	mode, err := h.psu.GetMode(requestContext(c))
	if err != nil {
		utils.DriverErrorResponse(c, "Failed to read mode", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Mode retrieved", gin.H{"mode": string(mode)})
}

// GetSettings reads the programmed setpoints
// @Summary Get settings
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=SetpointResponse} "Programmed setpoints"
// @Router /psu/settings [get]
func (h *PSUHandler) GetSettings(c *gin.Context) {
	h.getSetpoint(c, "Settings retrieved", h.psu.GetVoltageAndCurrentSettings)
}

// GetVoltageSetting reads the programmed voltage
// @Summary Get voltage setting
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{voltage=string}} "Programmed voltage"
// @Router /psu/settings/voltage [get]
func (h *PSUHandler) GetVoltageSetting(c *gin.Context) {
	h.getValue(c, "voltage", 1, h.psu.GetVoltageSetting)
}

// GetCurrentSetting reads the programmed current
// @Summary Get current setting
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{current=string}} "Programmed current"
// @Router /psu/settings/current [get]
func (h *PSUHandler) GetCurrentSetting(c *gin.Context) {
	h.getValue(c, "current", 1, h.psu.GetCurrentSetting)
}

// GetVoltageUpperLimit reads the over-voltage limit
// @Summary Get voltage limit
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{voltage=string}} "Voltage limit"
// @Router /psu/limits/voltage [get]
func (h *PSUHandler) GetVoltageUpperLimit(c *gin.Context) {
	h.getValue(c, "voltage", 1, h.psu.GetVoltageUpperLimitSetting)
}

// GetCurrentUpperLimit reads the over-current limit
// @Summary Get current limit
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{current=string}} "Current limit"
// @Router /psu/limits/current [get]
func (h *PSUHandler) GetCurrentUpperLimit(c *gin.Context) {
	h.getValue(c, "current", 1, h.psu.GetCurrentUpperLimitSetting)
}

// GetMaxValues reads the rated maximums
// @Summary Get rated maximums
// @Tags PowerSupply
// @Produce json
// @Success 200 {object} utils.APIResponse{data=SetpointResponse} "Rated maximum voltage and current"
// @Router /psu/max [get]
func (h *PSUHandler) GetMaxValues(c *gin.Context) {
	h.getSetpoint(c, "Maximum values retrieved", h.psu.GetMaxValues)
}

func (h *PSUHandler) setValue(c *gin.Context, message string, set func(context.Context, decimal.Decimal) error) {
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := set(requestContext(c), *req.Value); err != nil {
		h.logger.Debug("Set request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.DriverErrorResponse(c, "Power supply rejected the request", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, gin.H{"value": req.Value.StringFixed(1)})
}

func (h *PSUHandler) getValue(c *gin.Context, key string, places int32, get func(context.Context) (decimal.Decimal, error)) {
	value, err := get(requestContext(c))
	if err != nil {
		utils.DriverErrorResponse(c, "Failed to read "+key, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Value retrieved", gin.H{key: value.StringFixed(places)})
}

func (h *PSUHandler) getSetpoint(c *gin.Context, message string, get func(context.Context) (*driver.Setpoint, error)) {
	setpoint, err := get(requestContext(c))
	if err != nil {
		utils.DriverErrorResponse(c, "Failed to read setpoints", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, message, SetpointResponse{
		Voltage: setpoint.Voltage.StringFixed(1),
		Current: setpoint.Current.StringFixed(1),
	})
}

func displayResponse(status *driver.DisplayStatus) DisplayResponse {
	return DisplayResponse{
		Voltage: status.Voltage.StringFixed(2),
		Current: status.Current.StringFixed(2),
		Mode:    string(status.Mode),
	}
}

// requestContext carries the request id into the operation log
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if id := c.GetString("request_id"); id != "" {
		ctx = service.WithRequestID(ctx, id)
	}
	return ctx
}
