package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

func TestWorkflowRegistry(t *testing.T) {
	r := NewWorkflowRegistry()

	require.NoError(t, r.Register("notify", noopHandler()))
	require.NoError(t, r.Register("log", noopHandler()))

	_, ok := r.Lookup("notify")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"log", "notify"}, r.Names())
}

func TestWorkflowRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	r := NewWorkflowRegistry()
	require.NoError(t, r.Register("notify", noopHandler()))

	err := r.Register("notify", noopHandler())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.ErrorIs(t, r.Register("", noopHandler()), domain.ErrInvalidInput)
	assert.ErrorIs(t, r.Register("x", nil), domain.ErrInvalidInput)
}
