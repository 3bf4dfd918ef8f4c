package handler

import (
	"net/http"

	"carf-backend/internal/middleware"
	"carf-backend/internal/service"
	"carf-backend/pkg/pagination"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit-logs")
	{
		audit.GET("", middleware.RequirePermission("audit.read"), h.ListAuditLogs)
		audit.GET("/entity/:id", middleware.RequirePermission("audit.read"), h.GetEntityHistory)
	}
}

// ListAuditLogs returns the audit trail, newest first
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{data=response.Paged}
// @Failure      500    {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, logs, total, params.Page, params.Limit))
}

// GetEntityHistory returns the trail for one request by gencode
// @Summary      Request history
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Entity ID (gencode)"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Items per page"
// @Success      200    {object}  response.Response{data=response.Paged}
// @Failure      500    {object}  response.Response
// @Router       /api/audit-logs/entity/{id} [get]
func (h *AuditHandler) GetEntityHistory(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetEntityHistory(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, logs, total, params.Page, params.Limit))
}
