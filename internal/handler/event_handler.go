package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/service"
)

// EventHandler handles document lifecycle webhooks from the accounting system.
type EventHandler struct {
	stagingService service.StagingService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(stagingService service.StagingService) *EventHandler {
	return &EventHandler{stagingService: stagingService}
}

type documentEventRequest struct {
	DocID uuid.UUID           `json:"doc_id" binding:"required"`
	Kind  domain.DocumentKind `json:"kind" binding:"required"`
	Event string              `json:"event" binding:"required,oneof=submitted cancelled"`
}

// DocumentEvent handles POST /api/v1/events/documents
// @Summary Document lifecycle notification
// @Description Marks a record completed on submission, or reopens it on cancellation. Idempotent.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Webhook-Token header string true "Shared webhook token"
// @Param input body documentEventRequest true "Event payload"
// @Success 200 {object} APIResponse
// @Router /events/documents [post]
func (h *EventHandler) DocumentEvent(c *gin.Context) {
	var req documentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	err := h.stagingService.HandleDocumentEvent(c.Request.Context(), service.DocumentEventInput{
		DocID: req.DocID,
		Kind:  req.Kind,
		Event: domain.LifecycleEvent(req.Event),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"processed": true})
}
