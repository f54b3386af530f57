package pagetoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikluko/xin/internal/sugar"
)

func TestSearchRoundTrip(t *testing.T) {
	t1 := Search{Position: 40, Limit: 20, CollapseThreads: true, IsAscending: false, Filter: sugar.Filter{"text": "hi"}}
	encoded, err := EncodeSearch(t1)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "=") // raw, unpadded base64url

	decoded, err := DecodeSearch(encoded)
	require.NoError(t, err)
	assert.Equal(t, t1, decoded)
}

func TestChangesRoundTrip(t *testing.T) {
	t1 := Changes{SinceState: "s123", MaxChanges: 50}
	encoded, err := EncodeChanges(t1)
	require.NoError(t, err)

	decoded, err := DecodeChanges(encoded)
	require.NoError(t, err)
	assert.Equal(t, t1, decoded)
}

func TestDecodeSearch_MalformedIsUsageError(t *testing.T) {
	_, err := DecodeSearch("not valid base64!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
}

func TestCheckField_NoMismatchWhenNotSupplied(t *testing.T) {
	err := CheckField("limit", "20", "99", false)
	assert.NoError(t, err)
}

func TestCheckField_MismatchIsUsageError(t *testing.T) {
	err := CheckField("limit", "20", "99", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinUsageError")
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "limit", mismatch.Field)
}

func TestCheckField_AgreesWhenEqual(t *testing.T) {
	err := CheckField("limit", "20", "20", true)
	assert.NoError(t, err)
}
