package jobs

import (
	"context"
	"sync"

	"opshub/internal/domain/job"
	"opshub/internal/pkg/errs"
)

// Handler executes one leased job attempt. The payload carries identifiers;
// the handler re-fetches and re-validates current state before any
// externally visible action. Returning an error drives the retry bookkeeping
// in the dispatcher; the queue is the only layer that re-raises handler
// errors.
type Handler func(ctx context.Context, j *job.Job) error

// Registry maps a job type to exactly one handler. Double registration is a
// configuration error caught at startup, not at dispatch time.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(jobType string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[jobType]; exists {
		return errs.Mark(errs.New("job type "+jobType), errs.ErrHandlerRegistered)
	}
	r.handlers[jobType] = h
	return nil
}

func (r *Registry) Resolve(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

func (r *Registry) Known(jobType string) bool {
	_, ok := r.Resolve(jobType)
	return ok
}
