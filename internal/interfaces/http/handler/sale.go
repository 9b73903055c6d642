package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	salesapp "github.com/pos/backend/internal/application/sales"
)

// SaleHandler handles sale-related API endpoints
type SaleHandler struct {
	BaseHandler
	saleService     *salesapp.SaleService
	checkoutService *salesapp.CheckoutService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService, checkoutService *salesapp.CheckoutService) *SaleHandler {
	return &SaleHandler{
		saleService:     saleService,
		checkoutService: checkoutService,
	}
}

// operator resolves the authenticated operator and tenant for the request.
// Writes the error response itself; callers return on !ok.
func (h *SaleHandler) operator(c *gin.Context) (tenantID, operatorID uuid.UUID, ok bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return uuid.Nil, uuid.Nil, false
	}
	operatorID, err = getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Operator not resolved from token")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, operatorID, true
}

// saleID parses the :id path parameter
func (h *SaleHandler) saleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// @Summary      Create a pending sale
// @Description  Create a new pending sale, optionally with initial line items
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CreateSaleRequest true "Sale creation request"
// @Success      201 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, operatorID, ok := h.operator(c)
	if !ok {
		return
	}

	var req salesapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), tenantID, operatorID, operatorName(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// List godoc
// @Summary      List sales
// @Description  Retrieve a paginated list of sales with optional filtering by store, status and date range
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        search query string false "Search term (sale number, document number)"
// @Param        store_id query string false "Store ID" format(uuid)
// @Param        status query string false "Sale status" Enums(PENDING, COMPLETED, REFUNDED)
// @Param        start_date query string false "Start date (ISO 8601)" format(date-time)
// @Param        end_date query string false "End date (ISO 8601)" format(date-time)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]salesapp.SaleListItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}

	var filter salesapp.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, total, err := h.saleService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get sale by ID
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Delete godoc
// @Summary      Delete a pending sale
// @Description  Delete a sale that has not been completed. Completed and refunded sales are immutable ledger entries.
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [delete]
func (h *SaleHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	if err := h.saleService.Delete(c.Request.Context(), tenantID, saleID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddItem godoc
// @Summary      Add a line item to a pending sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.AddSaleItemRequest true "Line item"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/items [post]
func (h *SaleHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	var req salesapp.AddSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.AddItem(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// UpdateItem godoc
// @Summary      Change a line item quantity
// @Description  Set the quantity of a line on a pending sale. A quantity of zero removes the line.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        productId path string true "Product ID" format(uuid)
// @Param        request body salesapp.UpdateSaleItemRequest true "New quantity"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/items/{productId} [put]
func (h *SaleHandler) UpdateItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req salesapp.UpdateSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.UpdateItemQuantity(c.Request.Context(), tenantID, saleID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// RemoveItem godoc
// @Summary      Remove a line item from a pending sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        productId path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/items/{productId} [delete]
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	sale, err := h.saleService.RemoveItem(c.Request.Context(), tenantID, saleID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// ApplyDiscount godoc
// @Summary      Set the sale-level discount
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.ApplyDiscountRequest true "Discount amount"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/discount [post]
func (h *SaleHandler) ApplyDiscount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	var req salesapp.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.ApplyDiscount(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// AddPayment godoc
// @Summary      Apply a payment to a pending sale
// @Description  Record one payment. When the running sum covers the total the sale completes: a document number is issued, stock is deducted and any credit tender is registered with the customer service.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.PaymentInput true "Payment"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/payments [post]
func (h *SaleHandler) AddPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	var req salesapp.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.checkoutService.AddPayment(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Complete godoc
// @Summary      Complete a fully paid sale
// @Description  Explicitly finalize a pending sale whose payments already cover the total, for terminals that confirm at the end instead of on the covering payment.
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/complete [post]
func (h *SaleHandler) Complete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	sale, err := h.checkoutService.Complete(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Refund godoc
// @Summary      Refund a completed sale
// @Description  Mark a completed sale as refunded, restock its lines and reverse any credit extended for it
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/refund [post]
func (h *SaleHandler) Refund(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	sale, err := h.checkoutService.Refund(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Checkout godoc
// @Summary      One-shot cart checkout
// @Description  Submit a sale with its items and payments in one request. When the payments cover the total the sale is completed against the numbering, inventory and customer services; otherwise it is saved as pending.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CheckoutRequest true "Checkout request"
// @Success      201 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/checkout [post]
func (h *SaleHandler) Checkout(c *gin.Context) {
	tenantID, operatorID, ok := h.operator(c)
	if !ok {
		return
	}

	var req salesapp.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.checkoutService.Checkout(c.Request.Context(), tenantID, operatorID, operatorName(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}
