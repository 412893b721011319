package handlers

import (
	"net/http"

	"servana/middleware"
	"servana/models"
	"servana/services/scheduling"
	"servana/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler manages provider availability models over HTTP.
type ScheduleHandler struct {
	Service scheduling.ScheduleService
	Logger  *zap.Logger
}

func NewScheduleHandler(service scheduling.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{Service: service, Logger: logger}
}

// ownsSchedule rejects attempts to mutate another provider's schedule.
func ownsSchedule(c *gin.Context, providerID string) bool {
	if providerID != middleware.AccountID(c) {
		utils.JSONError(c, http.StatusForbidden, "forbidden", "schedules can only be modified by their provider")
		return false
	}
	return true
}

// GetScheduleHandler returns a provider's full availability model.
func (h *ScheduleHandler) GetScheduleHandler(c *gin.Context) {
	providerID := c.Param("id")
	if !ownsSchedule(c, providerID) {
		return
	}

	schedule, err := h.Service.GetSchedule(c.Request.Context(), providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// SetScheduleHandler replaces a provider's availability model.
func (h *ScheduleHandler) SetScheduleHandler(c *gin.Context) {
	providerID := c.Param("id")
	if !ownsSchedule(c, providerID) {
		return
	}

	var schedule models.Schedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	schedule.ProviderID = providerID

	if err := h.Service.SetSchedule(c.Request.Context(), &schedule); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// SetDeliveryMethodsHandler replaces the provider's delivery method
// configuration.
func (h *ScheduleHandler) SetDeliveryMethodsHandler(c *gin.Context) {
	providerID := c.Param("id")
	if !ownsSchedule(c, providerID) {
		return
	}

	var methods models.DeliveryMethodConfig
	if err := c.ShouldBindJSON(&methods); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	schedule, err := h.Service.SetDeliveryMethods(c.Request.Context(), providerID, methods)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// SetDateOverrideHandler blocks a date or replaces its windows.
func (h *ScheduleHandler) SetDateOverrideHandler(c *gin.Context) {
	providerID := c.Param("id")
	if !ownsSchedule(c, providerID) {
		return
	}

	var override models.DateOverride
	if err := c.ShouldBindJSON(&override); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	override.Date = c.Param("date")

	if err := h.Service.SetDateOverride(c.Request.Context(), providerID, override); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RemoveDateOverrideHandler restores the weekly template for a date.
func (h *ScheduleHandler) RemoveDateOverrideHandler(c *gin.Context) {
	providerID := c.Param("id")
	if !ownsSchedule(c, providerID) {
		return
	}

	if err := h.Service.RemoveDateOverride(c.Request.Context(), providerID, c.Param("date")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
