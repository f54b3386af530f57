package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikluko/xin/internal/config"
)

func TestResolveStartCursor_CursorWins(t *testing.T) {
	got, err := resolveStartCursor(Options{Cursor: "c1", Since: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", got)
}

func TestResolveStartCursor_CheckpointBeatsSince(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint")
	require.NoError(t, config.WriteLine(path, "checkpoint-state"))

	got, err := resolveStartCursor(Options{Checkpoint: path, Since: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "checkpoint-state", got)
}

func TestResolveStartCursor_FallsBackToSince(t *testing.T) {
	got, err := resolveStartCursor(Options{Since: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", got)
}

func TestResolveStartCursor_EmptyWhenNothingSupplied(t *testing.T) {
	got, err := resolveStartCursor(Options{})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestWriteCheckpoint_NoopWhenPathEmpty(t *testing.T) {
	assert.NoError(t, writeCheckpoint("", "s1"))
}

func TestWriteCheckpoint_PersistsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint")
	require.NoError(t, writeCheckpoint(path, "s2"))
	got, err := config.ReadLine(path)
	require.NoError(t, err)
	assert.Equal(t, "s2", got)
}

func TestSleepWithJitter_ReturnsEarlyOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepWithJitter(ctx, 60_000, 0)
	assert.Error(t, err)
}

func TestSleepWithJitter_CompletesAfterInterval(t *testing.T) {
	start := time.Now()
	err := sleepWithJitter(context.Background(), 10, 0)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
