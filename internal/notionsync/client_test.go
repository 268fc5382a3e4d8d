package notionsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotionClient_CancelledContext(t *testing.T) {
	c := NewNotionClient("secret_test")
	// Drain the burst so the next call has to wait on the limiter.
	for range requestBurst {
		require.True(t, c.limiter.Allow())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.QueryDatabase(ctx, "db", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueryDatabase")

	assert.Error(t, c.ArchivePage(ctx, "p1"))
}
