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

// PolicyHandler manages category-level cancellation policies. This is
// platform administration, not provider self-service.
type PolicyHandler struct {
	Engine scheduling.SchedulingEngine
	Logger *zap.Logger
}

func NewPolicyHandler(engine scheduling.SchedulingEngine, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{Engine: engine, Logger: logger}
}

// SetPolicyHandler creates or replaces the cancellation policy for a
// service category.
func (h *PolicyHandler) SetPolicyHandler(c *gin.Context) {
	if c.GetString(middleware.ContextAccountRole) != "admin" {
		utils.JSONError(c, http.StatusForbidden, "forbidden", "cancellation policies can only be managed by administrators")
		return
	}

	var policy models.CancellationPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	policy.Category = c.Param("category")

	saved, err := h.Engine.SetCancellationPolicy(c.Request.Context(), policy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
