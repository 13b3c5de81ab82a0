package registration

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/backend"
	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/notify"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
)

// State is a step of the registration flow.
type State string

const (
	StateEditing      State = "editing"
	StateSubmitting   State = "submitting"
	StateSuccessModal State = "success"
	StateErrorModal   State = "error"
)

const (
	MessageSuccess      = "Pendaftaran berhasil!"
	MessageRejected     = "Gagal mendaftar."
	MessageUnexpected   = "Terjadi kesalahan."
	DefaultCountdown    = 20
	FieldBirthDate      = "birth_date"
	countdownInterval   = time.Second
	birthDateValidation = "omitempty,datetime=2006-01-02"
)

// Submitter posts a registration to the participant backend.
type Submitter interface {
	Register(ctx context.Context, payload models.RegistrationPayload) (*models.RegistrationResult, error)
}

// Snapshot is an immutable view of the form for rendering.
type Snapshot struct {
	State      State                      `json:"state"`
	Fields     models.RegistrationPayload `json:"fields"`
	Loading    bool                       `json:"loading"`
	ModalOpen  bool                       `json:"modal_open"`
	Message    string                     `json:"message"`
	Event      *models.EventInfo          `json:"event,omitempty"`
	Countdown  int                        `json:"countdown"`
	ResetToken string                     `json:"reset_token"`
}

// Options tunes a Form.
type Options struct {
	Countdown int
	Scheduler Scheduler
	Validator *validator.Validate
	Logger    *zap.Logger
}

// Form is the registration state machine for one browser session.
type Form struct {
	mu sync.Mutex

	submitter Submitter
	publisher notify.Publisher
	scheduler Scheduler
	validate  *validator.Validate
	logger    *zap.Logger
	countFrom int

	state      State
	fields     models.RegistrationPayload
	message    string
	event      *models.EventInfo
	countdown  int
	resetToken string

	stopTimer func()
	timerGen  uint64
	submitGen uint64
	torn      bool
}

// NewForm returns a form in the Editing state with empty fields.
func NewForm(submitter Submitter, publisher notify.Publisher, opts Options) *Form {
	if opts.Countdown <= 0 {
		opts.Countdown = DefaultCountdown
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Form{
		submitter:  submitter,
		publisher:  publisher,
		scheduler:  opts.Scheduler,
		validate:   opts.Validator,
		logger:     opts.Logger,
		countFrom:  opts.Countdown,
		state:      StateEditing,
		resetToken: uuid.NewString(),
	}
}

// SetField updates one text field. The birth date goes through SetBirthDate.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	switch name {
	case "name":
		f.fields.Name = value
	case "place":
		f.fields.Place = value
	case "kampus":
		f.fields.Kampus = value
	case "jurusan":
		f.fields.Jurusan = value
	case "angkatan":
		f.fields.Angkatan = value
	case "phone":
		f.fields.Phone = value
	case FieldBirthDate:
		return appErrors.Clone(appErrors.ErrValidation, "birth_date must be set through the date picker")
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown field "+name)
	}
	return nil
}

// SetBirthDate accepts an empty value or a YYYY-MM-DD date.
func (f *Form) SetBirthDate(value string) error {
	if err := f.validate.Var(value, birthDateValidation); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "birth_date must use YYYY-MM-DD")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	f.fields.BirthDate = value
	return nil
}

// Submit posts the current fields and moves to a modal state. It blocks for
// the duration of the backend call; the returned snapshot reflects the
// outcome. A result arriving after Close or Teardown is discarded.
func (f *Form) Submit(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		f.mu.Unlock()
		return Snapshot{}, err
	}
	f.state = StateSubmitting
	f.submitGen++
	gen := f.submitGen
	payload := f.fields
	f.mu.Unlock()

	result, err := f.submitter.Register(ctx, payload)

	f.mu.Lock()
	if f.torn || gen != f.submitGen || f.state != StateSubmitting {
		f.mu.Unlock()
		f.logger.Debug("discarding stale registration result")
		return f.Snapshot(), nil
	}

	succeeded := false
	switch {
	case err == nil:
		succeeded = true
		f.state = StateSuccessModal
		f.message = MessageSuccess
		if result != nil && result.Message != "" {
			f.message = result.Message
		}
		if result != nil {
			f.event = result.Event
		}
		if f.event != nil {
			f.startCountdownLocked()
		}
	default:
		f.state = StateErrorModal
		f.event = nil
		if statusErr, ok := backend.AsStatusError(err); ok {
			f.message = MessageRejected
			if statusErr.Message != "" {
				f.message = statusErr.Message
			}
			f.logger.Info("registration rejected", zap.Int("status", statusErr.StatusCode))
		} else {
			f.message = MessageUnexpected
			f.logger.Warn("registration failed", zap.Error(err))
		}
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()

	if succeeded && f.publisher != nil {
		f.publisher.Publish(notify.EventParticipantAdded)
	}
	return snap, nil
}

// Close dismisses an open modal and resets the form. It reports whether a
// modal was open.
func (f *Form) Close() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSuccessModal && f.state != StateErrorModal {
		return false
	}
	f.closeAndResetLocked()
	return true
}

// Teardown releases the countdown timer and discards pending results.
func (f *Form) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.torn = true
	f.cancelTimerLocked()
}

// Snapshot copies the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      f.state,
		Fields:     f.fields,
		Loading:    f.state == StateSubmitting,
		ModalOpen:  f.state == StateSuccessModal || f.state == StateErrorModal,
		Message:    f.message,
		Countdown:  f.countdown,
		ResetToken: f.resetToken,
	}
	if f.event != nil {
		evt := *f.event
		snap.Event = &evt
	}
	return snap
}

func (f *Form) editableLocked() error {
	if f.torn {
		return appErrors.ErrSessionExpired
	}
	if f.state != StateEditing {
		return appErrors.Clone(appErrors.ErrConflict, "form is not editable while "+string(f.state))
	}
	return nil
}

func (f *Form) startCountdownLocked() {
	f.cancelTimerLocked()
	f.timerGen++
	gen := f.timerGen
	f.countdown = f.countFrom
	f.stopTimer = f.scheduler.Every(countdownInterval, func() { f.tick(gen) })
}

func (f *Form) tick(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.timerGen || f.state != StateSuccessModal || f.torn {
		return
	}
	f.countdown--
	if f.countdown <= 0 {
		f.closeAndResetLocked()
	}
}

func (f *Form) cancelTimerLocked() {
	if f.stopTimer != nil {
		f.stopTimer()
		f.stopTimer = nil
	}
	f.timerGen++
}

func (f *Form) closeAndResetLocked() {
	f.cancelTimerLocked()
	f.state = StateEditing
	f.fields = models.RegistrationPayload{}
	f.message = ""
	f.event = nil
	f.countdown = 0
	f.resetToken = uuid.NewString()
}
