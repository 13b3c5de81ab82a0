package handler

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/registration"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/logger"
	"github.com/youthmultiply/welcoming-college/pkg/response"
)

// RegistrationCookie identifies the browser's form session.
const RegistrationCookie = "registration_session"

//go:embed templates/register.html
var templatesFS embed.FS

var registerPage = template.Must(template.ParseFS(templatesFS, "templates/register.html"))

var formFields = []string{"name", "place", registration.FieldBirthDate, "kampus", "jurusan", "angkatan", "phone"}

type formSessions interface {
	Acquire(id string) (string, *registration.Form)
}

type registrationRecorder interface {
	RecordRegistration(outcome string)
}

type registrationPage struct {
	Title         string
	Form          registration.Snapshot
	CountdownText string
}

// RegistrationHandler serves the public registration page and its form actions.
type RegistrationHandler struct {
	forms   formSessions
	metrics registrationRecorder
	title   string
	secure  bool
	logger  *zap.Logger
}

// NewRegistrationHandler constructs the handler. secure marks the session
// cookie HTTPS-only.
func NewRegistrationHandler(forms formSessions, metrics registrationRecorder, title string, secure bool, logger *zap.Logger) *RegistrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationHandler{forms: forms, metrics: metrics, title: title, secure: secure, logger: logger}
}

// Page renders the registration form for the caller's session.
func (h *RegistrationHandler) Page(c *gin.Context) {
	form := h.form(c)
	snap := form.Snapshot()
	data := registrationPage{Title: h.title, Form: snap}
	if snap.Event != nil {
		data.CountdownText = CountdownText(snap.Countdown)
	}
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := registerPage.Execute(c.Writer, data); err != nil {
		logger.ForRequest(h.logger, c).Error("render registration page", zap.Error(err))
	}
}

// State godoc
// @Summary Registration form state
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /register/state [get]
func (h *RegistrationHandler) State(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.form(c).Snapshot(), nil)
}

// UpdateFields godoc
// @Summary Edit registration fields
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Field values keyed by name"
// @Success 200 {object} response.Envelope
// @Router /register/fields [post]
func (h *RegistrationHandler) UpdateFields(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid field payload"))
		return
	}
	form := h.form(c)
	if err := applyFields(form, values); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form.Snapshot(), nil)
}

// Submit godoc
// @Summary Submit the registration
// @Description Accepts JSON or form fields, posts them to the participant backend and opens the result modal.
// @Tags Registration
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /register [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	form := h.form(c)
	values, err := submittedValues(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := applyFields(form, values); err != nil {
		response.Error(c, err)
		return
	}

	snap, err := form.Submit(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		switch snap.State {
		case registration.StateSuccessModal:
			h.metrics.RecordRegistration("success")
		case registration.StateErrorModal:
			h.metrics.RecordRegistration("failure")
		}
	}
	h.respond(c, snap)
}

// Close godoc
// @Summary Close the result modal
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /register/close [post]
func (h *RegistrationHandler) Close(c *gin.Context) {
	form := h.form(c)
	if !form.Close() {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "no modal is open"))
		return
	}
	h.respond(c, form.Snapshot())
}

// CountdownText is the auto-close notice shown under the event details.
func CountdownText(seconds int) string {
	return fmt.Sprintf("Modal akan tertutup otomatis dalam %d detik.", seconds)
}

func (h *RegistrationHandler) respond(c *gin.Context, snap registration.Snapshot) {
	if wantsJSON(c) {
		response.JSON(c, http.StatusOK, snap, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *RegistrationHandler) form(c *gin.Context) *registration.Form {
	current, _ := c.Cookie(RegistrationCookie)
	id, form := h.forms.Acquire(current)
	if id != current {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(RegistrationCookie, id, 0, "/", "", h.secure, true)
	}
	return form
}

func submittedValues(c *gin.Context) (map[string]string, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var values map[string]string
		if err := c.ShouldBindJSON(&values); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload")
		}
		return values, nil
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid registration form")
	}
	values := make(map[string]string)
	for _, name := range formFields {
		if vals, ok := c.Request.PostForm[name]; ok && len(vals) > 0 {
			values[name] = vals[0]
		}
	}
	return values, nil
}

// applyFields rejects unknown names and an invalid birth date before any
// field changes, then applies the rest in form order.
func applyFields(form *registration.Form, values map[string]string) error {
	for name := range values {
		if !isFormField(name) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown field "+name)
		}
	}
	if value, ok := values[registration.FieldBirthDate]; ok {
		if err := form.SetBirthDate(value); err != nil {
			return err
		}
	}
	for _, name := range formFields {
		value, ok := values[name]
		if !ok || name == registration.FieldBirthDate {
			continue
		}
		if err := form.SetField(name, value); err != nil {
			return err
		}
	}
	return nil
}

func isFormField(name string) bool {
	for _, field := range formFields {
		if field == name {
			return true
		}
	}
	return false
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}
