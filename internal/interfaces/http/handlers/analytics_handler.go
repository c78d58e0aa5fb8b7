package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/internal/usecases"
)

// AnalyticsHandler handles analytics endpoints
type AnalyticsHandler struct {
	analyticsUsecase *usecases.AnalyticsUsecase
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsUsecase *usecases.AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: analyticsUsecase}
}

// GetSummary returns payment volume and outcome counts over a range
// GET /api/v1/analytics/summary
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	var start, end time.Time
	var err error

	if s := c.Query("start"); s != "" {
		start, err = time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("start must be RFC3339"))
			return
		}
	}
	if e := c.Query("end"); e != "" {
		end, err = time.Parse(time.RFC3339, e)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("end must be RFC3339"))
			return
		}
	}

	summary, err := h.analyticsUsecase.Summary(c.Request.Context(), merchantID, start, end, c.Query("currency"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}
