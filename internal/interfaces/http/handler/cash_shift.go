package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cashierapp "github.com/pos/backend/internal/application/cashier"
)

// CashShiftHandler handles cash shift API endpoints
type CashShiftHandler struct {
	BaseHandler
	shiftService *cashierapp.ShiftService
}

// NewCashShiftHandler creates a new CashShiftHandler
func NewCashShiftHandler(shiftService *cashierapp.ShiftService) *CashShiftHandler {
	return &CashShiftHandler{shiftService: shiftService}
}

func (h *CashShiftHandler) shiftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shift ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Open godoc
// @Summary      Open a cash shift
// @Description  Open the drawer for a store with a counted start float. A store can have at most one open shift.
// @Tags         cash-shifts
// @Accept       json
// @Produce      json
// @Param        request body cashierapp.OpenShiftRequest true "Open shift request"
// @Success      201 {object} dto.Response{data=cashierapp.ShiftResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts/open [post]
func (h *CashShiftHandler) Open(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Operator not resolved from token")
		return
	}

	var req cashierapp.OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	shift, err := h.shiftService.Open(c.Request.Context(), tenantID, operatorID, operatorName(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, shift)
}

// Close godoc
// @Summary      Close and reconcile a cash shift
// @Description  Close the shift with the counted drawer amount. The expected amount is frozen from the store's activity during the shift and the difference is recorded.
// @Tags         cash-shifts
// @Accept       json
// @Produce      json
// @Param        id path string true "Shift ID" format(uuid)
// @Param        request body cashierapp.CloseShiftRequest true "Close shift request"
// @Success      200 {object} dto.Response{data=cashierapp.ShiftResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts/{id}/close [post]
func (h *CashShiftHandler) Close(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	shiftID, ok := h.shiftID(c)
	if !ok {
		return
	}

	var req cashierapp.CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	shift, err := h.shiftService.Close(c.Request.Context(), tenantID, shiftID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shift)
}

// AddMovement godoc
// @Summary      Record a manual drawer movement
// @Description  Record a cash-in or cash-out on an open shift, with a mandatory description
// @Tags         cash-shifts
// @Accept       json
// @Produce      json
// @Param        id path string true "Shift ID" format(uuid)
// @Param        request body cashierapp.AddMovementRequest true "Movement"
// @Success      200 {object} dto.Response{data=cashierapp.ShiftResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts/{id}/movements [post]
func (h *CashShiftHandler) AddMovement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Operator not resolved from token")
		return
	}
	shiftID, ok := h.shiftID(c)
	if !ok {
		return
	}

	var req cashierapp.AddMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	shift, err := h.shiftService.AddMovement(c.Request.Context(), tenantID, shiftID, operatorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shift)
}

// GetCurrent godoc
// @Summary      Get the open shift for a store
// @Description  Retrieve the currently open shift for the given store, with live sales and expected-cash figures
// @Tags         cash-shifts
// @Produce      json
// @Param        store_id query string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=cashierapp.ShiftResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts/current [get]
func (h *CashShiftHandler) GetCurrent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}

	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		h.BadRequest(c, "store_id query parameter is required")
		return
	}

	shift, err := h.shiftService.GetCurrent(c.Request.Context(), tenantID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shift)
}

// GetByID godoc
// @Summary      Get shift by ID
// @Tags         cash-shifts
// @Produce      json
// @Param        id path string true "Shift ID" format(uuid)
// @Success      200 {object} dto.Response{data=cashierapp.ShiftResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts/{id} [get]
func (h *CashShiftHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	shiftID, ok := h.shiftID(c)
	if !ok {
		return
	}

	shift, err := h.shiftService.GetByID(c.Request.Context(), tenantID, shiftID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shift)
}

// List godoc
// @Summary      List shift history
// @Description  Retrieve a paginated shift history with optional store and status filtering
// @Tags         cash-shifts
// @Produce      json
// @Param        store_id query string false "Store ID" format(uuid)
// @Param        status query string false "Shift status" Enums(OPEN, CLOSED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]cashierapp.ShiftListItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts [get]
func (h *CashShiftHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}

	var filter cashierapp.ShiftListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, total, err := h.shiftService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListExpenses godoc
// @Summary      List expenses paid during a shift
// @Description  Read the cash expenses recorded against the store while the shift was open
// @Tags         cash-shifts
// @Produce      json
// @Param        id path string true "Shift ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]cashierapp.ExpenseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cash-shifts/{id}/expenses [get]
func (h *CashShiftHandler) ListExpenses(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant not resolved from token")
		return
	}
	shiftID, ok := h.shiftID(c)
	if !ok {
		return
	}

	expenses, err := h.shiftService.ListExpenses(c.Request.Context(), tenantID, shiftID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expenses)
}
