package handlers

import (
	"net/http"

	"servana/models"
	"servana/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SlotHandler serves availability queries. The endpoint is public:
// browsing open slots requires no account.
type SlotHandler struct {
	Engine scheduling.SchedulingEngine
	Logger *zap.Logger
}

func NewSlotHandler(engine scheduling.SchedulingEngine, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{Engine: engine, Logger: logger}
}

// GetAvailableSlotsHandler lists bookable slots for a provider's
// service over a date range.
func (h *SlotHandler) GetAvailableSlotsHandler(c *gin.Context) {
	query := models.SlotQuery{
		ProviderID:       c.Param("id"),
		ServiceID:        c.Query("serviceId"),
		FromDate:         c.Query("from"),
		ToDate:           c.Query("to"),
		DeliveryMethod:   c.Query("deliveryMethod"),
		CustomerTimezone: c.Query("timezone"),
	}

	days, err := h.Engine.GetAvailableSlots(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	if days == nil {
		days = []models.AvailableDay{}
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// ListProviderServicesHandler lists a provider's active services.
func (h *SlotHandler) ListProviderServicesHandler(c *gin.Context) {
	services, err := h.Engine.ListProviderServices(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if services == nil {
		services = []models.Service{}
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}
