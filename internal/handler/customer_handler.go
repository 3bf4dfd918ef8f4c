package handler

import (
	"errors"
	"net/http"

	"carf-backend/internal/middleware"
	"carf-backend/internal/model"
	"carf-backend/internal/service"
	"carf-backend/pkg/pagination"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.GET("", middleware.RequirePermission("customers.read"), h.ListCustomers)
		customers.GET("/stats", middleware.RequirePermission("dashboard.read"), h.GetStats)
		customers.GET("/:id", middleware.RequirePermission("customers.read"), h.GetCustomer)
		customers.GET("/gencode/:gencode", middleware.RequirePermission("customers.read"), h.GetByGencode)
		customers.POST("", middleware.RequirePermission("customers.write"), h.CreateDraft)
		customers.PUT("/:id", middleware.RequirePermission("customers.write"), h.UpdateDraft)
		customers.PUT("/:id/submit", middleware.RequirePermission("customers.submit"), h.Submit)
		customers.PUT("/:id/approve", middleware.RequirePermission("customers.approve"), h.Approve)
		customers.PUT("/:id/cancel", middleware.RequirePermission("customers.read"), h.Cancel)
		customers.PUT("/:id/return", middleware.RequirePermission("customers.approve"), h.Return)
	}
}

func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	idStr, _ := userID.(string)
	return idStr
}

// workflowStatus maps service errors onto HTTP codes. Conflicting state
// transitions are 409, authorization failures 403, missing rows 404.
func workflowStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotMaker),
		errors.Is(err, service.ErrNotNextApprover),
		errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// ListCustomers returns a list view of requests
// @Summary      List customer requests
// @Description  Returns requests for a list view: all, draft, pending, forapproval, approved, cancelled, returned
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        view            query     string  false  "List view name (default all)"
// @Param        businesscenter  query     string  false  "Filter by business center"
// @Param        page            query     int     false  "Page number"
// @Param        limit           query     int     false  "Items per page"
// @Success      200  {object}  response.Response{data=response.Paged}
// @Failure      400  {object}  response.Response
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)
	view := c.DefaultQuery("view", "all")

	rows, total, err := h.customerService.List(
		c.Request.Context(),
		view,
		c.Query("businesscenter"),
		currentUserID(c),
		params.Page, params.Limit,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, rows, total, params.Page, params.Limit))
}

// GetStats returns dashboard counters
// @Summary      Request statistics
// @Description  Returns request counts grouped by status and by business center
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardStats}
// @Failure      500  {object}  response.Response
// @Router       /api/customers/stats [get]
func (h *CustomerHandler) GetStats(c *gin.Context) {
	stats, err := h.customerService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetCustomer returns one request by UUID
// @Summary      Get request
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.CustomerRequest}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	req, err := h.customerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Request not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// GetByGencode returns one request by its business key
// @Summary      Get request by gencode
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        gencode  path      string  true  "Gencode"
// @Success      200      {object}  response.Response{data=model.CustomerRequest}
// @Failure      404      {object}  response.Response
// @Router       /api/customers/gencode/{gencode} [get]
func (h *CustomerHandler) GetByGencode(c *gin.Context) {
	req, err := h.customerService.GetByGencode(c.Request.Context(), c.Param("gencode"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Request not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// CreateDraft creates a new draft request
// @Summary      Create draft request
// @Description  Creates a draft customer request owned by the calling maker; a gencode is assigned immediately
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CustomerPayload  true  "Request form fields"
// @Success      201      {object}  response.Response{data=model.CustomerRequest}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateDraft(c *gin.Context) {
	var payload service.CustomerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	req, err := h.customerService.CreateDraft(c.Request.Context(), currentUserID(c), payload)
	if err != nil {
		c.JSON(workflowStatus(err), response.Error(workflowStatus(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, req))
}

// UpdateDraft edits a draft or returned request
// @Summary      Update draft request
// @Description  Replaces the form fields of a draft or returned request; only the maker may edit
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.CustomerPayload  true  "Request form fields"
// @Success      200      {object}  response.Response{data=model.CustomerRequest}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) UpdateDraft(c *gin.Context) {
	var payload service.CustomerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	req, err := h.customerService.UpdateDraft(c.Request.Context(), c.Param("id"), currentUserID(c), payload)
	if err != nil {
		c.JSON(workflowStatus(err), response.Error(workflowStatus(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Submit routes a request into its approval chain
// @Summary      Submit request
// @Description  Moves a draft or returned request to PENDING and routes it to the configured approval chain
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.CustomerRequest}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/customers/{id}/submit [put]
func (h *CustomerHandler) Submit(c *gin.Context) {
	req, err := h.customerService.Submit(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(workflowStatus(err), response.Error(workflowStatus(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Approve records the caller's approval
// @Summary      Approve request
// @Description  Stamps the caller's approval; the last approver in the chain finalizes the request
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.CustomerRequest}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/customers/{id}/approve [put]
func (h *CustomerHandler) Approve(c *gin.Context) {
	req, err := h.customerService.Approve(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(workflowStatus(err), response.Error(workflowStatus(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Cancel terminally cancels a request
// @Summary      Cancel request
// @Description  Cancels a request; allowed for its maker, a chain member or an admin. Cancellation is terminal
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.CustomerRequest}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/customers/{id}/cancel [put]
func (h *CustomerHandler) Cancel(c *gin.Context) {
	req, err := h.customerService.Cancel(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(workflowStatus(err), response.Error(workflowStatus(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// Return sends a pending request back to its maker
// @Summary      Return request to maker
// @Description  Returns a pending request to its maker with a mandatory reason; only the current next approver may return
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Request ID"
// @Param        payload  body      service.ReturnRequestDTO  true  "Return reason"
// @Success      200      {object}  response.Response{data=model.CustomerRequest}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/customers/{id}/return [put]
func (h *CustomerHandler) Return(c *gin.Context) {
	var body service.ReturnRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Remarks are required"))
		return
	}

	req, err := h.customerService.Return(c.Request.Context(), c.Param("id"), currentUserID(c), body.Remarks)
	if err != nil {
		c.JSON(workflowStatus(err), response.Error(workflowStatus(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}
