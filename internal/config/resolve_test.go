package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfigPath, EnvXDGConfigHome, EnvBaseURL, EnvSessionURL,
		EnvToken, EnvTokenFile, EnvBasicUser, EnvBasicPass, EnvBasicPassFile, EnvTrustRedirectHosts} {
		t.Setenv(k, "")
	}
}

func writeConfigFile(t *testing.T, fc *FileConfig) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, Save(path, fc))
	t.Setenv(EnvConfigPath, path)
	return path
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	writeConfigFile(t, &FileConfig{
		Defaults: Defaults{Account: "work"},
		Accounts: map[string]AccountConfig{
			"work": {BaseURL: "https://work.example.com", Auth: AuthConfig{Type: "bearer", Token: "file-token"}},
		},
	})
	t.Setenv(EnvToken, "env-token")

	rc, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "https://work.example.com", rc.Origin)
	assert.Equal(t, "env-token", rc.Credentials.Bearer)
}

func TestResolve_SingleAccountDefault(t *testing.T) {
	clearEnv(t)
	writeConfigFile(t, &FileConfig{
		Accounts: map[string]AccountConfig{
			"only": {BaseURL: "https://only.example.com", Auth: AuthConfig{Type: "bearer", Token: "t"}},
		},
	})

	rc, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "only", rc.AccountName)
	assert.Equal(t, "https://only.example.com", rc.Origin)
}

func TestResolve_MixedEnvCredentialsIsConfigError(t *testing.T) {
	clearEnv(t)
	writeConfigFile(t, &FileConfig{})
	t.Setenv(EnvToken, "sometoken")
	t.Setenv(EnvBasicUser, "alice")

	_, err := Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xinConfigError")
}

func TestResolve_TokenFileTrimmed(t *testing.T) {
	clearEnv(t)
	writeConfigFile(t, &FileConfig{})
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("secret-value\n"), 0o600))
	t.Setenv(EnvTokenFile, tokenPath)
	t.Setenv(EnvBaseURL, "https://example.com")

	rc, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "secret-value", rc.Credentials.Bearer)
}

func TestRedactedNeverContainsSecret(t *testing.T) {
	rc := &RuntimeConfig{
		Origin:      "https://example.com",
		Credentials: Credentials{Bearer: "super-secret-token"},
	}
	red := rc.Redacted()
	for _, v := range red {
		s, ok := v.(string)
		if !ok {
			continue
		}
		assert.NotContains(t, s, "super-secret-token")
	}
}

func TestWriteAtomic_FailureLeavesExistingFileIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, WriteAtomic(path, []byte("original"), 0o600))

	// Simulate a failed write by making the target's parent a regular file,
	// so the directory cannot be created; the existing file must survive.
	blocker := filepath.Join(dir, "nonexistent-dir-that-is-a-file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	err := WriteAtomic(filepath.Join(blocker, "f.txt"), []byte("new"), 0o600)
	require.Error(t, err)

	got, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "original", string(got))
}
