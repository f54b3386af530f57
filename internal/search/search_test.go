package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikluko/xin/internal/pagetoken"
	"github.com/mikluko/xin/internal/sugar"
)

func TestLimits_DefaultAndMax(t *testing.T) {
	assert.Equal(t, uint64(20), uint64(DefaultLimit))
	assert.Equal(t, uint64(200), uint64(MaxLimit))
}

func TestRun_MalformedCursorIsUsageError(t *testing.T) {
	_, err := Run(context.Background(), nil, "work", Args{Cursor: "not-valid-base64!!"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
}

func TestRun_CursorLimitMismatchIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeSearch(pagetoken.Search{Position: 20, Limit: 20, CollapseThreads: true})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{
		Cursor:   cursor,
		Limit:    50,
		HasLimit: true,
	}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "limit")
}

func TestRun_CursorCollapseThreadsMismatchIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeSearch(pagetoken.Search{Position: 0, Limit: 20, CollapseThreads: true})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{
		Cursor:             cursor,
		CollapseThreads:    false,
		HasCollapseThreads: true,
	}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "collapseThreads")
}

func TestRun_CursorFilterJSONMismatchIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeSearch(pagetoken.Search{Position: 0, Limit: 20, Filter: sugar.Filter{"inMailbox": "m1"}})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{
		Cursor:     cursor,
		FilterJSON: sugar.Filter{"inMailbox": "m2"},
	}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "filter")
}

func TestRun_CursorAscendingMismatchIsUsageError(t *testing.T) {
	cursor, err := pagetoken.EncodeSearch(pagetoken.Search{Position: 0, Limit: 20, IsAscending: false})
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, "work", Args{
		Cursor:       cursor,
		Ascending:    true,
		HasAscending: true,
	}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	assert.Contains(t, err.Error(), "isAscending")
}

func TestHasNextPage(t *testing.T) {
	cases := []struct {
		name                       string
		idsLen                     int
		nextPosition, total, limit uint64
		want                       bool
	}{
		{"no results", 0, 2, 10, 2, false},
		{"total known, more remain", 2, 2, 10, 2, true},
		{"total known, reached total", 2, 10, 10, 2, false},
		{"total absent, page full", 2, 2, 0, 2, true},
		{"total absent, page short", 1, 1, 0, 2, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, hasNextPage(c.idsLen, c.nextPosition, c.total, c.limit))
		})
	}
}
