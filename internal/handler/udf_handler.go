package handler

import (
	"net/http"

	"carf-backend/internal/middleware"
	"carf-backend/internal/service"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type UDFHandler struct {
	udfService service.UDFService
}

func NewUDFHandler(udfService service.UDFService) *UDFHandler {
	return &UDFHandler{udfService: udfService}
}

func (h *UDFHandler) RegisterRoutes(router *gin.RouterGroup) {
	udf := router.Group("/api/udf-fields")
	{
		udf.GET("", middleware.RequirePermission("udf.read"), h.ListFields)
		udf.POST("", middleware.RequirePermission("udf.write"), h.CreateField)
		udf.PUT("/:id", middleware.RequirePermission("udf.write"), h.UpdateField)
		udf.DELETE("/:id", middleware.RequirePermission("udf.write"), h.DeleteField)
	}
}

// ListFields lists list-view column definitions
// @Summary      List view columns
// @Description  Returns the configured columns, optionally for one list view only
// @Tags         udf
// @Produce      json
// @Security     BearerAuth
// @Param        view  query     string  false  "List view name"
// @Success      200   {object}  response.Response{data=[]model.UDFField}
// @Failure      400   {object}  response.Response
// @Router       /api/udf-fields [get]
func (h *UDFHandler) ListFields(c *gin.Context) {
	view := c.Query("view")

	var (
		fields interface{}
		err    error
	)
	if view == "" {
		fields, err = h.udfService.ListAll(c.Request.Context())
	} else {
		fields, err = h.udfService.ListByView(c.Request.Context(), view)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, fields))
}

// CreateField adds a column to a list view
// @Summary      Create view column
// @Tags         udf
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SaveUDFFieldRequest  true  "Column definition"
// @Success      201      {object}  response.Response{data=model.UDFField}
// @Failure      400      {object}  response.Response
// @Router       /api/udf-fields [post]
func (h *UDFHandler) CreateField(c *gin.Context) {
	var req service.SaveUDFFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	field, err := h.udfService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, field))
}

// UpdateField edits a column definition
// @Summary      Update view column
// @Tags         udf
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Field ID"
// @Param        payload  body      service.SaveUDFFieldRequest  true  "Column definition"
// @Success      200      {object}  response.Response{data=model.UDFField}
// @Failure      400      {object}  response.Response
// @Router       /api/udf-fields/{id} [put]
func (h *UDFHandler) UpdateField(c *gin.Context) {
	var req service.SaveUDFFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	field, err := h.udfService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, field))
}

// DeleteField removes a column definition
// @Summary      Delete view column
// @Tags         udf
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Field ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/udf-fields/{id} [delete]
func (h *UDFHandler) DeleteField(c *gin.Context) {
	if err := h.udfService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Field deleted"))
}
