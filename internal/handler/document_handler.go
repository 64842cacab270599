package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/middleware"
	"ocrdesk/internal/service"
)

// DocumentHandler handles draft document creation and retrieval endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

type createDocumentRequest struct {
	Kind            domain.DocumentKind `json:"kind" binding:"required"`
	CreditAccountID *uuid.UUID          `json:"credit_account_id"`
}

// Create handles POST /api/v1/imports/:id/document
// @Summary Create the draft accounting document for a record
// @Description Runs the guard checks and assembles a draft purchase invoice, purchase receipt, or journal entry
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param input body createDocumentRequest true "Document kind, must match the declared kind"
// @Success 201 {object} APIResponse{data=domain.StagingRecord}
// @Failure 409 {object} APIResponse "A guard check rejected the conversion"
// @Security BearerAuth
// @Router /imports/{id}/document [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	record, err := h.documentService.CreateDocument(c.Request.Context(), service.CreateDocumentInput{
		RecordID:        id,
		Kind:            req.Kind,
		CreditAccountID: req.CreditAccountID,
		UserID:          &userID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, record)
}

// Unlink handles DELETE /api/v1/imports/:id/document
// @Summary Delete the draft document and reopen the record
// @Tags documents
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Failure 409 {object} APIResponse "No draft to unlink"
// @Security BearerAuth
// @Router /imports/{id}/document [delete]
func (h *DocumentHandler) Unlink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.documentService.Unlink(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// GetPurchaseInvoice handles GET /api/v1/documents/purchase-invoices/:id
// @Summary Get a created purchase invoice
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse{data=domain.PurchaseInvoice}
// @Security BearerAuth
// @Router /documents/purchase-invoices/{id} [get]
func (h *DocumentHandler) GetPurchaseInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.GetPurchaseInvoice(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// GetPurchaseReceipt handles GET /api/v1/documents/purchase-receipts/:id
// @Summary Get a created purchase receipt
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse{data=domain.PurchaseReceipt}
// @Security BearerAuth
// @Router /documents/purchase-receipts/{id} [get]
func (h *DocumentHandler) GetPurchaseReceipt(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.GetPurchaseReceipt(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// GetJournalEntry handles GET /api/v1/documents/journal-entries/:id
// @Summary Get a created journal entry
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse{data=domain.JournalEntry}
// @Security BearerAuth
// @Router /documents/journal-entries/{id} [get]
func (h *DocumentHandler) GetJournalEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.GetJournalEntry(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}
