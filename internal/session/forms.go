package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/registration"
)

// FormFactory builds a fresh registration form for a new browser session.
type FormFactory func() *registration.Form

type formEntry struct {
	form     *registration.Form
	lastSeen time.Time
}

// FormRegistry owns one registration form per browser session id. Forms idle
// for longer than the TTL are torn down by Sweep.
type FormRegistry struct {
	mu      sync.Mutex
	entries map[string]*formEntry
	factory FormFactory
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewFormRegistry constructs a registry.
func NewFormRegistry(factory FormFactory, ttl time.Duration, logger *zap.Logger) *FormRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormRegistry{
		entries: make(map[string]*formEntry),
		factory: factory,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Acquire returns the form for id, creating a session with a new id when id
// is empty or unknown.
func (r *FormRegistry) Acquire(id string) (string, *registration.Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[id]; ok && id != "" {
		entry.lastSeen = r.now()
		return id, entry.form
	}
	id = uuid.NewString()
	form := r.factory()
	r.entries[id] = &formEntry{form: form, lastSeen: r.now()}
	return id, form
}

// Lookup returns an existing form and refreshes its idle timer.
func (r *FormRegistry) Lookup(id string) (*registration.Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.form, true
}

// Remove tears the session's form down.
func (r *FormRegistry) Remove(id string) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok {
		entry.form.Teardown()
	}
}

// Len reports the number of live sessions.
func (r *FormRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep tears down idle sessions and returns how many were removed.
func (r *FormRegistry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	expired := make([]*registration.Form, 0)
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, entry.form)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, form := range expired {
		form.Teardown()
	}
	if len(expired) > 0 {
		r.logger.Debug("expired registration sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// StartJanitor sweeps periodically until ctx is done, then tears down every
// remaining form.
func (r *FormRegistry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.closeAll()
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

func (r *FormRegistry) closeAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*formEntry)
	r.mu.Unlock()
	for _, entry := range entries {
		entry.form.Teardown()
	}
}
