// Package config resolves the runtime JMAP endpoint and credentials from
// environment variables and an on-disk account config file, per spec.md
// §4.2, and provides the atomic-write primitive shared by the config file,
// token file, and watch checkpoint file.
package config

// FileConfig is the on-disk JSON document: {defaults, accounts}.
type FileConfig struct {
	Defaults Defaults                 `json:"defaults"`
	Accounts map[string]AccountConfig `json:"accounts"`
}

// Defaults names the account used when none is explicitly selected.
type Defaults struct {
	Account string `json:"account,omitempty"`
}

// AccountConfig is one named account's stored endpoint/credential bundle.
type AccountConfig struct {
	BaseURL            string     `json:"baseUrl,omitempty"`
	SessionURL         string     `json:"sessionUrl,omitempty"`
	Auth               AuthConfig `json:"auth"`
	TrustRedirectHosts []string   `json:"trustRedirectHosts,omitempty"`
}

// AuthConfig is a tagged union: Type selects which of the bearer or basic
// fields apply. Token/Pass may be given literally, via an env var name
// (*Env) to indirect through, or via a file path (*File) to read and trim.
type AuthConfig struct {
	Type string `json:"type"` // "bearer" | "basic"

	Token     string `json:"token,omitempty"`
	TokenEnv  string `json:"tokenEnv,omitempty"`
	TokenFile string `json:"tokenFile,omitempty"`

	User     string `json:"user,omitempty"`
	Pass     string `json:"pass,omitempty"`
	PassEnv  string `json:"passEnv,omitempty"`
	PassFile string `json:"passFile,omitempty"`
}

// Credentials is the resolved, in-memory credential bundle. Exactly one of
// Bearer or BasicUser is expected to be set; never serialized verbatim into
// any output (see RuntimeConfig.Redacted).
type Credentials struct {
	Bearer    string
	BasicUser string
	BasicPass string
}

// IsSet reports whether any credential was resolved.
func (c Credentials) IsSet() bool {
	return c.Bearer != "" || c.BasicUser != ""
}

// RuntimeConfig is the resolved {origin, credentials, redirectAllowList,
// accountName} bundle a command needs to talk to a JMAP server.
type RuntimeConfig struct {
	AccountName        string
	Origin             string
	SessionURLOverride string
	Credentials        Credentials
	RedirectAllowList  []string
}

// SessionURL returns the well-known JMAP session discovery URL: the
// explicit override if set, otherwise Origin + the well-known path.
func (rc *RuntimeConfig) SessionURL() string {
	if rc.SessionURLOverride != "" {
		return rc.SessionURLOverride
	}
	return rc.Origin + "/.well-known/jmap"
}

// Redacted returns a copy of rc safe to print: credentials are replaced
// with a shape-preserving placeholder, never the literal secret.
func (rc *RuntimeConfig) Redacted() map[string]any {
	cred := "none"
	switch {
	case rc.Credentials.Bearer != "":
		cred = "Bearer ****"
	case rc.Credentials.BasicUser != "":
		cred = "Basic user=" + rc.Credentials.BasicUser + " pass=****"
	}
	return map[string]any{
		"account":           rc.AccountName,
		"origin":            rc.Origin,
		"sessionUrl":        rc.SessionURL(),
		"credentials":       cred,
		"redirectAllowList": rc.RedirectAllowList,
	}
}
