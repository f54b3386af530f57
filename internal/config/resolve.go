package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Env var names, per spec.md §6.
const (
	EnvConfigPath         = "XIN_CONFIG_PATH"
	EnvXDGConfigHome      = "XDG_CONFIG_HOME"
	EnvBaseURL            = "XIN_BASE_URL"
	EnvSessionURL         = "XIN_SESSION_URL"
	EnvToken              = "XIN_TOKEN"
	EnvTokenFile          = "XIN_TOKEN_FILE"
	EnvBasicUser          = "XIN_BASIC_USER"
	EnvBasicPass          = "XIN_BASIC_PASS"
	EnvBasicPassFile      = "XIN_BASIC_PASS_FILE"
	EnvTrustRedirectHosts = "XIN_TRUST_REDIRECT_HOSTS"
	EnvHome               = "HOME"
)

// Resolve builds the RuntimeConfig for the given account selector ("" means
// "use the configured default"), merging environment and on-disk config
// field-by-field per spec.md §4.2's precedence: explicit env > config-
// selected account > single-account default > stored default.
func Resolve(accountSelector string) (*RuntimeConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("xinConfigError: %w", err)
	}

	file, err := Load(path)
	if err != nil {
		return nil, err
	}

	accountName := accountSelector
	if accountName == "" {
		accountName = file.Defaults.Account
	}
	if accountName == "" && len(file.Accounts) == 1 {
		for name := range file.Accounts {
			accountName = name
		}
	}

	var acct AccountConfig
	if accountName != "" {
		a, ok := file.Accounts[accountName]
		if !ok && accountSelector != "" {
			return nil, fmt.Errorf("xinUsageError: unknown account %q", accountSelector)
		}
		acct = a
	}

	rc := &RuntimeConfig{AccountName: accountName}

	// Origin / session URL.
	if v := os.Getenv(EnvBaseURL); v != "" {
		rc.Origin = v
	} else {
		rc.Origin = acct.BaseURL
	}
	if v := os.Getenv(EnvSessionURL); v != "" {
		rc.SessionURLOverride = v
	} else {
		rc.SessionURLOverride = acct.SessionURL
	}

	// Redirect allow-list.
	if v := os.Getenv(EnvTrustRedirectHosts); v != "" {
		rc.RedirectAllowList = splitAndTrim(v)
	} else {
		rc.RedirectAllowList = acct.TrustRedirectHosts
	}

	// Credentials: env-level bearer/basic are mutually exclusive.
	envBearerSet := os.Getenv(EnvToken) != "" || os.Getenv(EnvTokenFile) != ""
	envBasicSet := os.Getenv(EnvBasicUser) != "" || os.Getenv(EnvBasicPass) != "" || os.Getenv(EnvBasicPassFile) != ""
	if envBearerSet && envBasicSet {
		return nil, fmt.Errorf("xinConfigError: both bearer and basic credentials specified in environment; set only one")
	}

	switch {
	case envBearerSet:
		token, err := resolveLiteralEnvFile(os.Getenv(EnvToken), "", os.Getenv(EnvTokenFile))
		if err != nil {
			return nil, fmt.Errorf("xinConfigError: %w", err)
		}
		rc.Credentials.Bearer = token
	case envBasicSet:
		pass, err := resolveLiteralEnvFile(os.Getenv(EnvBasicPass), "", os.Getenv(EnvBasicPassFile))
		if err != nil {
			return nil, fmt.Errorf("xinConfigError: %w", err)
		}
		rc.Credentials.BasicUser = os.Getenv(EnvBasicUser)
		rc.Credentials.BasicPass = pass
	default:
		cred, err := resolveAccountCredentials(acct.Auth)
		if err != nil {
			return nil, err
		}
		rc.Credentials = cred
	}

	return rc, nil
}

func resolveAccountCredentials(auth AuthConfig) (Credentials, error) {
	switch auth.Type {
	case "", "bearer":
		if auth.Token == "" && auth.TokenEnv == "" && auth.TokenFile == "" {
			return Credentials{}, nil
		}
		token, err := resolveLiteralEnvFile(auth.Token, auth.TokenEnv, auth.TokenFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("xinConfigError: %w", err)
		}
		return Credentials{Bearer: token}, nil
	case "basic":
		pass, err := resolveLiteralEnvFile(auth.Pass, auth.PassEnv, auth.PassFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("xinConfigError: %w", err)
		}
		return Credentials{BasicUser: auth.User, BasicPass: pass}, nil
	default:
		return Credentials{}, fmt.Errorf("xinConfigError: unknown auth type %q", auth.Type)
	}
}

// resolveLiteralEnvFile applies the token-source order: literal, then
// env-var name indirection, then path-to-file-containing-token (trimmed of
// trailing whitespace).
func resolveLiteralEnvFile(literal, envName, filePath string) (string, error) {
	if literal != "" {
		return literal, nil
	}
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			return v, nil
		}
	}
	if filePath != "" {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("reading credential file %s: %w", filePath, err)
		}
		return strings.TrimRight(string(raw), "\r\n\t "), nil
	}
	return "", nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Path resolves the config file location: XIN_CONFIG_PATH, else
// $XDG_CONFIG_HOME/xin/config.json, else $HOME/.config/xin/config.json.
func Path() (string, error) {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v, nil
	}
	if v := os.Getenv(EnvXDGConfigHome); v != "" {
		return filepath.Join(v, "xin", "config.json"), nil
	}
	home := os.Getenv(EnvHome)
	if home == "" {
		return "", fmt.Errorf("cannot determine config path: HOME is not set")
	}
	return filepath.Join(home, ".config", "xin", "config.json"), nil
}

// Load reads and parses the config file at path. A missing file is not an
// error — it yields an empty FileConfig, matching the original's
// first-run-friendly behavior.
func Load(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{Accounts: map[string]AccountConfig{}}, nil
		}
		return nil, fmt.Errorf("xinConfigError: reading config file: %w", err)
	}
	var fc FileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("xinConfigError: parsing config file: %w", err)
	}
	if fc.Accounts == nil {
		fc.Accounts = map[string]AccountConfig{}
	}
	return &fc, nil
}

// Save atomically writes fc to path.
func Save(path string, fc *FileConfig) error {
	raw, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return WriteAtomic(path, raw, 0o600)
}
