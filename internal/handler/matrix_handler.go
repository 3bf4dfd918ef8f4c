package handler

import (
	"net/http"

	"carf-backend/internal/middleware"
	"carf-backend/internal/service"
	"carf-backend/pkg/pagination"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MatrixHandler struct {
	matrixService service.MatrixService
}

func NewMatrixHandler(matrixService service.MatrixService) *MatrixHandler {
	return &MatrixHandler{matrixService: matrixService}
}

func (h *MatrixHandler) RegisterRoutes(router *gin.RouterGroup) {
	matrices := router.Group("/api/matrices")
	{
		matrices.GET("", middleware.RequirePermission("matrices.read"), h.ListMatrices)
		matrices.GET("/:id", middleware.RequirePermission("matrices.read"), h.GetMatrix)
		matrices.POST("", middleware.RequirePermission("matrices.write"), h.CreateMatrix)
		matrices.PUT("/:id", middleware.RequirePermission("matrices.write"), h.UpdateMatrix)
		matrices.DELETE("/:id", middleware.RequirePermission("matrices.write"), h.DeleteMatrix)
	}
}

// ListMatrices lists approval matrices
// @Summary      List approval matrices
// @Tags         matrices
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{data=response.Paged}
// @Failure      500    {object}  response.Response
// @Router       /api/matrices [get]
func (h *MatrixHandler) ListMatrices(c *gin.Context) {
	params := pagination.Parse(c)

	matrices, total, err := h.matrixService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, matrices, total, params.Page, params.Limit))
}

// GetMatrix fetches one matrix by ID
// @Summary      Get approval matrix
// @Tags         matrices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Matrix ID"
// @Success      200  {object}  response.Response{data=model.ApprovalMatrix}
// @Failure      404  {object}  response.Response
// @Router       /api/matrices/{id} [get]
func (h *MatrixHandler) GetMatrix(c *gin.Context) {
	m, err := h.matrixService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, m))
}

// CreateMatrix creates an approval matrix row
// @Summary      Create approval matrix
// @Description  Maps a (business center, company) pair to an ordered approver chain of at most four levels
// @Tags         matrices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SaveMatrixRequest  true  "Matrix definition"
// @Success      201      {object}  response.Response{data=model.ApprovalMatrix}
// @Failure      400      {object}  response.Response
// @Router       /api/matrices [post]
func (h *MatrixHandler) CreateMatrix(c *gin.Context) {
	var req service.SaveMatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	m, err := h.matrixService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, m))
}

// UpdateMatrix replaces a matrix definition
// @Summary      Update approval matrix
// @Description  Replaces the matrix; requests already in flight keep the chain copied at submission
// @Tags         matrices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Matrix ID"
// @Param        payload  body      service.SaveMatrixRequest  true  "Matrix definition"
// @Success      200      {object}  response.Response{data=model.ApprovalMatrix}
// @Failure      400      {object}  response.Response
// @Router       /api/matrices/{id} [put]
func (h *MatrixHandler) UpdateMatrix(c *gin.Context) {
	var req service.SaveMatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	m, err := h.matrixService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, m))
}

// DeleteMatrix removes a matrix
// @Summary      Delete approval matrix
// @Tags         matrices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Matrix ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/matrices/{id} [delete]
func (h *MatrixHandler) DeleteMatrix(c *gin.Context) {
	if err := h.matrixService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Matrix deleted"))
}
