package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/middleware"
	"ocrdesk/internal/port"
	"ocrdesk/internal/service"
)

// ImportHandler handles staging record lifecycle endpoints.
type ImportHandler struct {
	stagingService    service.StagingService
	resolutionService service.ResolutionService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(stagingService service.StagingService, resolutionService service.ResolutionService) *ImportHandler {
	return &ImportHandler{stagingService: stagingService, resolutionService: resolutionService}
}

// Upload handles POST /api/v1/imports
// @Summary Upload an invoice file
// @Description Upload a scanned invoice (PDF, JPG, PNG) for extraction and staging
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice file (PDF, JPG, or PNG)"
// @Param source_type formData string false "Ingestion channel" Enums(manual_upload, email, folder_scan)
// @Success 201 {object} APIResponse{data=service.UploadResult}
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Security BearerAuth
// @Router /imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.stagingService.Upload(c.Request.Context(), service.UploadInput{
		File:       file,
		Header:     header,
		SourceType: domain.SourceType(c.PostForm("source_type")),
		UploadedBy: &userID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	if result.Duplicate {
		RespondOK(c, result)
		return
	}
	RespondCreated(c, result)
}

// List handles GET /api/v1/imports
// @Summary List staging records
// @Tags imports
// @Produce json
// @Param status query string false "Filter by status"
// @Param supplier_id query string false "Filter by resolved supplier"
// @Param source_type query string false "Filter by ingestion channel"
// @Param from query string false "Invoice date lower bound (YYYY-MM-DD)"
// @Param to query string false "Invoice date upper bound (YYYY-MM-DD)"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.StagingRecord,meta=PagMeta}
// @Security BearerAuth
// @Router /imports [get]
func (h *ImportHandler) List(c *gin.Context) {
	filters, err := parseListFilters(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	records, total, err := h.stagingService.List(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: filters.Offset, Limit: filters.Limit})
}

// GetByID handles GET /api/v1/imports/:id
// @Summary Get a staging record
// @Tags imports
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /imports/{id} [get]
func (h *ImportHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.stagingService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// GetLines handles GET /api/v1/imports/:id/lines
// @Summary List the extracted line items of a record
// @Tags imports
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse{data=[]domain.StagingLineItem}
// @Security BearerAuth
// @Router /imports/{id}/lines [get]
func (h *ImportHandler) GetLines(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lines, err := h.stagingService.GetLines(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, lines)
}

// GetSourceURL handles GET /api/v1/imports/:id/source-url
// @Summary Get a presigned URL for the source file
// @Tags imports
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse
// @Security BearerAuth
// @Router /imports/{id}/source-url [get]
func (h *ImportHandler) GetSourceURL(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	url, err := h.stagingService.GetSourceURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Duplicates handles GET /api/v1/imports/:id/duplicates
// @Summary List probable duplicate records
// @Description Advisory duplicate detection by invoice number and amount proximity
// @Tags imports
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse{data=[]domain.DuplicateCandidate}
// @Security BearerAuth
// @Router /imports/{id}/duplicates [get]
func (h *ImportHandler) Duplicates(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	candidates, err := h.stagingService.Duplicates(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, candidates)
}

// Delete handles DELETE /api/v1/imports/:id
// @Summary Delete a staging record
// @Tags imports
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse
// @Failure 409 {object} APIResponse "Record already produced a document"
// @Security BearerAuth
// @Router /imports/{id} [delete]
func (h *ImportHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.stagingService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// Retry handles POST /api/v1/imports/:id/retry
// @Summary Retry a failed extraction
// @Tags imports
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Failure 409 {object} APIResponse "Record is not in the error state"
// @Security BearerAuth
// @Router /imports/{id}/retry [post]
func (h *ImportHandler) Retry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.stagingService.Retry(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

type noActionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// NoAction handles POST /api/v1/imports/:id/no-action
// @Summary Close a record without creating a document
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param input body noActionRequest true "Closure reason"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Security BearerAuth
// @Router /imports/{id}/no-action [post]
func (h *ImportHandler) NoAction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req noActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	record, err := h.stagingService.NoAction(c.Request.Context(), id, req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// Resolve handles POST /api/v1/imports/:id/resolve
// @Summary Re-run entity resolution
// @Description Re-resolves the supplier and lines; confirmed decisions are kept
// @Tags imports
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Security BearerAuth
// @Router /imports/{id}/resolve [post]
func (h *ImportHandler) Resolve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.resolutionService.ResolveRecord(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

type confirmSupplierRequest struct {
	SupplierID     uuid.UUID `json:"supplier_id" binding:"required"`
	PersistAsAlias bool      `json:"persist_as_alias"`
}

// ConfirmSupplier handles POST /api/v1/imports/:id/confirm-supplier
// @Summary Confirm the supplier for a record
// @Description Applies a reviewer's supplier choice and optionally learns the OCR alias
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param input body confirmSupplierRequest true "Chosen supplier"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Security BearerAuth
// @Router /imports/{id}/confirm-supplier [post]
func (h *ImportHandler) ConfirmSupplier(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req confirmSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	record, err := h.resolutionService.ConfirmSupplier(c.Request.Context(), service.ConfirmSupplierInput{
		RecordID:       id,
		SupplierID:     req.SupplierID,
		PersistAsAlias: req.PersistAsAlias,
		UserID:         &userID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

type confirmLineRequest struct {
	ItemID           uuid.UUID  `json:"item_id" binding:"required"`
	ExpenseAccountID *uuid.UUID `json:"expense_account_id"`
	CostCenter       string     `json:"cost_center"`
	PersistAsAlias   bool       `json:"persist_as_alias"`
	SaveMapping      bool       `json:"save_mapping"`
}

// ConfirmLine handles POST /api/v1/imports/:id/lines/:lineID/confirm
// @Summary Confirm the item for one line
// @Description Applies a reviewer's item choice and optionally learns the alias and a service mapping
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param lineID path string true "Line item ID"
// @Param input body confirmLineRequest true "Chosen item and posting defaults"
// @Success 200 {object} APIResponse{data=domain.StagingLineItem}
// @Security BearerAuth
// @Router /imports/{id}/lines/{lineID}/confirm [post]
func (h *ImportHandler) ConfirmLine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineID")
	if !ok {
		return
	}
	var req confirmLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	line, err := h.resolutionService.ConfirmLine(c.Request.Context(), service.ConfirmLineInput{
		RecordID:         id,
		LineID:           lineID,
		ItemID:           req.ItemID,
		ExpenseAccountID: req.ExpenseAccountID,
		CostCenter:       req.CostCenter,
		PersistAsAlias:   req.PersistAsAlias,
		SaveMapping:      req.SaveMapping,
		UserID:           &userID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, line)
}

type setKindRequest struct {
	Kind domain.DocumentKind `json:"kind" binding:"required"`
}

// SetKind handles PUT /api/v1/imports/:id/kind
// @Summary Declare which document the record will produce
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param input body setKindRequest true "Target document kind"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Security BearerAuth
// @Router /imports/{id}/kind [put]
func (h *ImportHandler) SetKind(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setKindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	record, err := h.resolutionService.SetDocumentKind(c.Request.Context(), id, req.Kind)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

type setLinksRequest struct {
	PurchaseOrderID   *uuid.UUID `json:"purchase_order_id"`
	PurchaseReceiptID *uuid.UUID `json:"purchase_receipt_id"`
}

// SetLinks handles PUT /api/v1/imports/:id/links
// @Summary Link the record to a purchase order and/or receipt
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param input body setLinksRequest true "Document links"
// @Success 200 {object} APIResponse{data=domain.StagingRecord}
// @Security BearerAuth
// @Router /imports/{id}/links [put]
func (h *ImportHandler) SetLinks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	record, err := h.resolutionService.SetLinks(c.Request.Context(), service.SetLinksInput{
		RecordID:          id,
		PurchaseOrderID:   req.PurchaseOrderID,
		PurchaseReceiptID: req.PurchaseReceiptID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// parseIDParam parses a UUID path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

// parseListFilters builds staging list filters from query parameters.
func parseListFilters(c *gin.Context) (port.StagingListFilters, error) {
	filters := port.StagingListFilters{
		Offset: parseIntDefault(c.Query("offset"), 0),
		Limit:  parseIntDefault(c.Query("limit"), 20),
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	if v := c.Query("status"); v != "" {
		status := domain.ImportStatus(v)
		filters.Status = &status
	}
	if v := c.Query("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, err
		}
		filters.SupplierID = &id
	}
	if v := c.Query("source_type"); v != "" {
		st := domain.SourceType(v)
		filters.SourceType = &st
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filters, err
		}
		filters.FromDate = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filters, err
		}
		filters.ToDate = &t
	}
	return filters, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
