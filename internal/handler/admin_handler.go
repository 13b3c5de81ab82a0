package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/middleware"
	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/service"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/response"
)

type adminSessionService interface {
	Login(ctx context.Context, token string) (string, time.Time, error)
	Logout(ctx context.Context, sessionID string) error
}

type listingService interface {
	List(ctx context.Context, token string, page, limit int) (*service.ParticipantListing, error)
}

type exportBuilder interface {
	Build(ctx context.Context, token string, format models.ExportFormat, filename, mode string) (*service.Artifact, error)
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// AdminHandler exposes the admin dashboard API.
type AdminHandler struct {
	sessions  adminSessionService
	listing   listingService
	exports   exportBuilder
	metrics   metricsSnapshotter
	validator *validator.Validate
	title     string
	secure    bool
	logger    *zap.Logger
}

// AdminHandlerConfig carries presentation settings for the admin API.
type AdminHandlerConfig struct {
	AppTitle     string
	SecureCookie bool
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(sessions adminSessionService, listing listingService, exports exportBuilder, metrics metricsSnapshotter, validate *validator.Validate, cfg AdminHandlerConfig, logger *zap.Logger) *AdminHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		sessions:  sessions,
		listing:   listing,
		exports:   exports,
		metrics:   metrics,
		validator: validate,
		title:     cfg.AppTitle,
		secure:    cfg.SecureCookie,
		logger:    logger,
	}
}

// Metadata godoc
// @Summary Admin dashboard metadata
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin [get]
func (h *AdminHandler) Metadata(c *gin.Context) {
	meta := models.AdminMetadata{
		Title:       "Admin - " + h.title,
		Description: "Dashboard Admin " + h.title,
	}
	if h.metrics != nil {
		meta.Metrics = h.metrics.Snapshot()
	}
	response.JSON(c, http.StatusOK, meta, nil)
}

// Login godoc
// @Summary Store the admin bearer token
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.AdminSessionRequest true "Backend token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/session [put]
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.AdminSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "token is required"))
		return
	}
	sessionID, expiresAt, err := h.sessions.Login(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AdminSessionCookie, sessionID, maxAge, "/", "", h.secure, true)
	response.JSON(c, http.StatusOK, gin.H{"expires_at": expiresAt}, nil)
}

// Logout godoc
// @Summary Clear the admin bearer token
// @Tags Admin
// @Success 204
// @Router /admin/session [delete]
func (h *AdminHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.AdminSessionCookie); err == nil && sessionID != "" {
		if err := h.sessions.Logout(c.Request.Context(), sessionID); err != nil {
			response.Error(c, err)
			return
		}
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AdminSessionCookie, "", -1, "/", "", h.secure, true)
	response.NoContent(c)
}

// Participants godoc
// @Summary List registered participants
// @Tags Admin
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/participants [get]
func (h *AdminHandler) Participants(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := queryInt(c, "limit", service.DefaultListingLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	listing, err := h.listing.List(c.Request.Context(), middleware.AdminTokenFrom(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, listing.Cached)
	response.JSON(c, http.StatusOK, listing.Participants, &listing.Pagination, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download the participant list
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "xlsx, pdf or csv" default(xlsx)
// @Param filename query string false "Download name without extension"
// @Success 200 {file} file
// @Router /admin/participants/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatXLSX)))
	if !format.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be one of xlsx, pdf, csv"))
		return
	}
	artifact, err := h.exports.Build(c.Request.Context(), middleware.AdminTokenFrom(c), format, c.Query("filename"), service.ExportModeSync)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.Filename, artifact.ContentType, int64(len(artifact.Data)), bytes.NewReader(artifact.Data))
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a number")
	}
	return v, nil
}
