package events_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sr093906/photok/internal/events"
)

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(&buf)

	ctx := events.WithLogger(context.Background(), logger)
	got := events.FromContext(ctx)

	got.Info("through context")
	assert.Contains(t, buf.String(), "through context")
}

func TestContextLoggerDefault(t *testing.T) {
	got := events.FromContext(context.Background())
	assert.NotNil(t, got)
}

func TestWithEntryID(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(&buf)

	ctx := events.WithLogger(context.Background(), logger)
	ctx = events.WithEntryID(ctx, "entry-789")

	assert.Equal(t, "entry-789", events.GetEntryID(ctx))

	events.FromContext(ctx).Info("tagged")
	assert.Contains(t, buf.String(), `"entry_id":"entry-789"`)
}

func TestGetEntryIDMissing(t *testing.T) {
	assert.Equal(t, "", events.GetEntryID(context.Background()))
}
