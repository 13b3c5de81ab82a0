package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youthmultiply/welcoming-college/internal/middleware"
	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/service"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/response"
)

type exportJobService interface {
	CreateJob(ctx context.Context, req models.ExportRequest, token string) (*models.ExportJob, error)
	GetStatus(ctx context.Context, id string) (*models.ExportJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportJobHandler exposes asynchronous participant exports.
type ExportJobHandler struct {
	jobs exportJobService
}

// NewExportJobHandler constructs the handler.
func NewExportJobHandler(jobs exportJobService) *ExportJobHandler {
	return &ExportJobHandler{jobs: jobs}
}

// Create godoc
// @Summary Queue a participant export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body models.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /admin/exports [post]
func (h *ExportJobHandler) Create(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req, middleware.AdminTokenFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/exports/{id} [get]
func (h *ExportJobHandler) Status(c *gin.Context) {
	job, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportJobHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()
	response.Attachment(c, download.Filename, download.ContentType, download.Size, download.File)
}
