package handler

import (
	"encoding/json"
	"net/http"

	"carf-backend/internal/logger"
	"carf-backend/internal/middleware"
	"carf-backend/internal/model"
	"carf-backend/internal/pdf"
	"carf-backend/internal/repository"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GeneratePDFRequest struct {
	HTML  string `json:"html" binding:"required"`
	Title string `json:"title"`
}

type PDFHandler struct {
	renderer  *pdf.Renderer
	auditRepo repository.AuditRepository
}

func NewPDFHandler(renderer *pdf.Renderer, auditRepo repository.AuditRepository) *PDFHandler {
	return &PDFHandler{renderer: renderer, auditRepo: auditRepo}
}

func (h *PDFHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/generate-pdf", middleware.RequirePermission("documents.export"), h.GeneratePDF)
}

// GeneratePDF renders HTML into a paged PDF document
// @Summary      Export form as PDF
// @Description  Renders the posted HTML in a headless browser and returns the 8.5in x 13in PDF bytes
// @Tags         documents
// @Accept       json
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        payload  body  GeneratePDFRequest  true  "HTML document and title"
// @Success      200 {file} file
// @Failure      400 {object} response.Response
// @Failure      500 {object} response.Response
// @Router       /api/generate-pdf [post]
func (h *PDFHandler) GeneratePDF(c *gin.Context) {
	var req GeneratePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "html is required"))
		return
	}

	data, err := h.renderer.Render(c.Request.Context(), req.HTML)
	if err != nil {
		logger.L().Error("pdf render failed", zap.String("title", req.Title), zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to render PDF"))
		return
	}

	if idStr := currentUserID(c); idStr != "" {
		if uid, parseErr := uuid.Parse(idStr); parseErr == nil {
			details, _ := json.Marshal(map[string]interface{}{"title": req.Title, "bytes": len(data)})
			_ = h.auditRepo.Log(c.Request.Context(), &model.AuditLog{
				UserID:     &uid,
				Action:     model.ActionGeneratePDF,
				EntityName: req.Title,
				Details:    string(details),
			})
		}
	}

	filename := req.Title
	if filename == "" {
		filename = "document"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
