package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"carf-backend/internal/drive"
	"carf-backend/internal/logger"
	"carf-backend/internal/middleware"
	"carf-backend/internal/model"
	"carf-backend/internal/repository"
	"carf-backend/internal/service"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadSize caps one multipart upload request.
const maxUploadSize = 25 << 20 // 25 MiB

type DriveHandler struct {
	store           *drive.Store
	customerService service.CustomerService
	auditRepo       repository.AuditRepository
}

func NewDriveHandler(store *drive.Store, customerService service.CustomerService, auditRepo repository.AuditRepository) *DriveHandler {
	return &DriveHandler{store: store, customerService: customerService, auditRepo: auditRepo}
}

func (h *DriveHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/upload-files", middleware.RequirePermission("documents.write"), h.UploadFiles)
		api.GET("/gencode/:gencode", middleware.RequirePermission("documents.read"), h.ListByGencode)
		api.GET("/drive-file/:id", middleware.RequirePermission("documents.read"), h.DownloadFile)
		api.DELETE("/delete-file/:id", middleware.RequirePermission("documents.write"), h.DeleteFile)
		api.GET("/download-zip/:gencode", middleware.RequirePermission("documents.read"), h.DownloadZip)
	}
}

func (h *DriveHandler) auditDocument(c *gin.Context, action, gencode, fileName string) {
	idStr := currentUserID(c)
	uid, err := uuid.Parse(idStr)
	if err != nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{"gencode": gencode, "file": fileName})
	_ = h.auditRepo.Log(c.Request.Context(), &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   gencode,
		EntityName: fileName,
		Details:    string(details),
	})
}

// UploadFiles stores attachments under a request's document folders
// @Summary      Upload documents
// @Description  Multipart upload. Field names must be document type keys (sp1BusinessRegistration .. sp6Others); each file lands in the matching SP folder of the gencode tree
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        gencode  formData  string  true  "Request gencode"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/upload-files [post]
func (h *DriveHandler) UploadFiles(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid multipart form: "+err.Error()))
		return
	}

	gencode := c.PostForm("gencode")
	if gencode == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "gencode is required"))
		return
	}

	// The request row must exist before documents attach to its folder tree.
	if _, err := h.customerService.GetByGencode(c.Request.Context(), gencode); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Request not found"))
		return
	}

	var saved []*model.DriveFile
	for docType, headers := range form.File {
		for _, header := range headers {
			src, openErr := header.Open()
			if openErr != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read upload: "+openErr.Error()))
				return
			}

			file, saveErr := h.store.SaveFile(
				c.Request.Context(),
				gencode, docType,
				header.Filename,
				header.Header.Get("Content-Type"),
				src,
			)
			src.Close()
			if saveErr != nil {
				if errors.Is(saveErr, drive.ErrUnknownDocType) {
					c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest,
						fmt.Sprintf("Unknown document type %q", docType)))
					return
				}
				logger.L().Error("document upload failed",
					zap.String("gencode", gencode),
					zap.String("doc_type", docType),
					zap.Error(saveErr))
				c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to store file"))
				return
			}

			h.auditDocument(c, model.ActionUploadDocument, gencode, file.Name)
			saved = append(saved, file)
		}
	}

	if len(saved) == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "No files in upload"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"gencode": gencode,
		"files":   saved,
	}))
}

// ListByGencode lists a request's documents grouped by folder
// @Summary      List documents
// @Description  Returns the request's files keyed by document type; every type key is present even when empty
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        gencode  path      string  true  "Request gencode"
// @Success      200      {object}  response.Response{data=object}
// @Failure      500      {object}  response.Response
// @Router       /api/gencode/{gencode} [get]
func (h *DriveHandler) ListByGencode(c *gin.Context) {
	files, err := h.store.ListByGencode(c.Request.Context(), c.Param("gencode"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, files))
}

// DownloadFile streams one stored document
// @Summary      Download document
// @Tags         documents
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id  path  string  true  "File ID"
// @Success      200 {file} file
// @Failure      404 {object} response.Response
// @Router       /api/drive-file/{id} [get]
func (h *DriveHandler) DownloadFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid file id"))
		return
	}

	file, rc, err := h.store.Open(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "File not found"))
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Header("Content-Type", file.MimeType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.L().Warn("file stream interrupted", zap.String("file_id", id.String()), zap.Error(err))
	}
}

// DeleteFile removes one stored document
// @Summary      Delete document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/delete-file/{id} [delete]
func (h *DriveHandler) DeleteFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid file id"))
		return
	}

	file, err := h.store.DeleteFile(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "File not found"))
		return
	}

	h.auditDocument(c, model.ActionDeleteDocument, file.Gencode, file.Name)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "File deleted"))
}

// DownloadZip streams all documents of a gencode as one zip archive
// @Summary      Download document archive
// @Description  Streams a zip of the gencode's folder tree; entries are placed under their SP folder names
// @Tags         documents
// @Produce      application/zip
// @Security     BearerAuth
// @Param        gencode  path  string  true  "Request gencode"
// @Success      200 {file} file
// @Failure      404 {object} object
// @Router       /api/download-zip/{gencode} [get]
func (h *DriveHandler) DownloadZip(c *gin.Context) {
	gencode := c.Param("gencode")

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gencode+".zip"))

	if err := h.store.WriteZip(c.Request.Context(), gencode, c.Writer); err != nil {
		if errors.Is(err, drive.ErrFolderNotFound) {
			// Headers above are only flushed on first write, so a JSON 404
			// still goes out clean here.
			c.Header("Content-Type", "application/json")
			c.Header("Content-Disposition", "")
			c.JSON(http.StatusNotFound, gin.H{"error": "Gencode folder not found"})
			return
		}
		logger.L().Error("zip stream failed", zap.String("gencode", gencode), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}
