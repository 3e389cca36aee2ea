//go:build unit

package jobs_test

import (
	"context"
	"testing"

	"opshub/internal/domain/job"
	"opshub/internal/jobs"
	"opshub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(context.Context, *job.Job) error { return nil }

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := jobs.NewRegistry()

	require.NoError(t, r.Register("missed_call.text_back", noopHandler))

	h, ok := r.Resolve("missed_call.text_back")
	assert.True(t, ok)
	assert.NotNil(t, h)

	_, ok = r.Resolve("unknown.type")
	assert.False(t, ok)
}

func TestRegistryRejectsDoubleRegistration(t *testing.T) {
	r := jobs.NewRegistry()

	require.NoError(t, r.Register("review.request", noopHandler))

	err := r.Register("review.request", noopHandler)
	assert.ErrorIs(t, err, errs.ErrHandlerRegistered)
}

func TestRegistryKnown(t *testing.T) {
	r := jobs.NewRegistry()
	assert.False(t, r.Known("review.request"))

	require.NoError(t, r.Register("review.request", noopHandler))
	assert.True(t, r.Known("review.request"))
}
