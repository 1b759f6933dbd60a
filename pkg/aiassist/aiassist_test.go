package aiassist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftRequiresAPIKey(t *testing.T) {
	d := New("", "", nil)
	assert.False(t, d.IsAvailable())

	_, err := d.Draft(context.Background(), "feature/x", []string{"add thing"})
	require.Error(t, err)
}

func TestDraftRequiresCommits(t *testing.T) {
	d := New("test-key", "", nil)
	_, err := d.Draft(context.Background(), "feature/x", nil)
	require.Error(t, err)
}
