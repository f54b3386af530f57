package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOk_ExitCodeZero(t *testing.T) {
	env := Ok("search", "work", map[string]any{"total": 1}, Meta{RequestID: "r1"})
	assert.True(t, env.OK)
	assert.Equal(t, 0, env.ExitCode())
	assert.Equal(t, SchemaVersion, env.SchemaVersion)
}

func TestErr_ExitCodeOne(t *testing.T) {
	env := Err("get", "work", UsageError("bad id"))
	assert.False(t, env.OK)
	assert.Equal(t, 1, env.ExitCode())
	assert.Equal(t, KindUsageError, env.Err.Kind)
}

func TestHTTPError_CarriesStatusWhenKnown(t *testing.T) {
	e := HTTPError("server unavailable", 503)
	require.NotNil(t, e.HTTP)
	assert.Contains(t, string(e.HTTP), "503")
}

func TestHTTPError_OmitsStatusWhenUnknown(t *testing.T) {
	e := HTTPError("connection refused", 0)
	assert.Nil(t, e.HTTP)
}

func TestMeta_AddWarning(t *testing.T) {
	var m Meta
	m.AddWarning("body.text truncated")
	m.AddWarning("body.html truncated")
	assert.Equal(t, []string{"body.text truncated", "body.html truncated"}, m.Warnings)
}

func TestMarshalPretty_RoundTripsSchemaVersion(t *testing.T) {
	env := Ok("config.show", "", map[string]any{"account": "work"}, Meta{})
	out, err := env.MarshalPretty()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"schemaVersion": "0.1"`)
}
