package handler

import (
	"github.com/gin-gonic/gin"

	"ocrdesk/internal/port"
)

// MasterHandler serves read-only master data for the review UI.
type MasterHandler struct {
	masterRepo port.MasterRepository
	orderRepo  port.PurchaseOrderRepository
}

// NewMasterHandler creates a new MasterHandler.
func NewMasterHandler(masterRepo port.MasterRepository, orderRepo port.PurchaseOrderRepository) *MasterHandler {
	return &MasterHandler{masterRepo: masterRepo, orderRepo: orderRepo}
}

// ListSuppliers handles GET /api/v1/master/suppliers
// @Summary List suppliers
// @Tags master
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.Supplier}
// @Security BearerAuth
// @Router /master/suppliers [get]
func (h *MasterHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.masterRepo.ListSuppliers(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, suppliers)
}

// ListItems handles GET /api/v1/master/items
// @Summary List items
// @Tags master
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.Item}
// @Security BearerAuth
// @Router /master/items [get]
func (h *MasterHandler) ListItems(c *gin.Context) {
	items, err := h.masterRepo.ListItems(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, items)
}

// ListOpenOrders handles GET /api/v1/master/suppliers/:id/open-orders
// @Summary List open purchase orders for a supplier
// @Tags master
// @Produce json
// @Param id path string true "Supplier ID"
// @Success 200 {object} APIResponse{data=[]domain.PurchaseOrder}
// @Security BearerAuth
// @Router /master/suppliers/{id}/open-orders [get]
func (h *MasterHandler) ListOpenOrders(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	orders, err := h.orderRepo.ListOpenBySupplier(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, orders)
}
