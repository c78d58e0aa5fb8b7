package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/internal/usecases"
)

// EventHandler serves the merchant event log and the live event stream
type EventHandler struct {
	eventUsecase *usecases.EventUsecase
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventUsecase *usecases.EventUsecase) *EventHandler {
	return &EventHandler{eventUsecase: eventUsecase}
}

// GetEvent gets an event by ID
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	event, err := h.eventUsecase.GetEvent(c.Request.Context(), merchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

// ListEvents lists events in append order
// GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	var after *uuid.UUID
	if a := c.Query("starting_after"); a != "" {
		id, err := uuid.Parse(a)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid starting_after cursor"))
			return
		}
		after = &id
	}

	events, err := h.eventUsecase.ListEvents(c.Request.Context(), merchantID, after, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// StreamEvents streams the merchant's events as server-sent events. Events
// committed since the optional ?since=RFC3339 time are replayed first.
// GET /api/v1/events/stream
func (h *EventHandler) StreamEvents(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	var since time.Time
	if s := c.Query("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("since must be RFC3339"))
			return
		}
		since = parsed
	}

	out := make(chan *entities.Event, 16)
	go func() {
		// Stream closes out on return; a canceled request context is the
		// normal way the consumer disconnects.
		_ = h.eventUsecase.Stream(c.Request.Context(), merchantID, since, out)
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, open := <-out
		if !open {
			return false
		}
		c.SSEvent(event.Type, event)
		return true
	})
}
