package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikluko/xin/internal/pagetoken"
)

func TestRun_NoSinceAndNoCursorIsUsageError(t *testing.T) {
	_, err := Run(context.Background(), nil, "work", Args{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "--since or --page")
}

func TestRun_MalformedCursorIsUsageError(t *testing.T) {
	_, err := Run(context.Background(), nil, "work", Args{Cursor: "not-valid-base64!!"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
}

func TestRun_CursorSinceMismatchIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeChanges(pagetoken.Changes{SinceState: "s1", MaxChanges: 10})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{
		Cursor:   cursor,
		Since:    "s2",
		HasSince: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "since")
}

func TestRun_CursorMaxChangesMismatchIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeChanges(pagetoken.Changes{SinceState: "s1", MaxChanges: 10})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{
		Cursor:        cursor,
		MaxChanges:    25,
		HasMaxChanges: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "maxChanges")
}

func TestRun_CursorWithEmptySinceStateIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeChanges(pagetoken.Changes{SinceState: "", MaxChanges: 0})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{Cursor: cursor})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "--since or --page")
}
