package handler

import (
	"context"
	"sync"
	"time"

	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/registration"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

type fakeSubmitter struct {
	mu      sync.Mutex
	result  *models.RegistrationResult
	err     error
	payload models.RegistrationPayload
}

func (f *fakeSubmitter) Register(_ context.Context, payload models.RegistrationPayload) (*models.RegistrationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payload = payload
	return f.result, f.err
}

type singleFormSessions struct {
	form *registration.Form
}

func (s *singleFormSessions) Acquire(id string) (string, *registration.Form) {
	if id == "" {
		id = "session-1"
	}
	return id, s.form
}

type recordingMetrics struct {
	outcomes []string
}

func (r *recordingMetrics) RecordRegistration(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}
