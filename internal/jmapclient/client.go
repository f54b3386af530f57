// Package jmapclient wraps github.com/mikluko/jmap client construction and
// authentication behind the runtime config produced by internal/config.
package jmapclient

import (
	"fmt"
	"net/http"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail"

	_ "github.com/mikluko/jmap/mail/email"
	_ "github.com/mikluko/jmap/mail/emailsubmission"
	_ "github.com/mikluko/jmap/mail/identity"
	_ "github.com/mikluko/jmap/mail/mailbox"
	_ "github.com/mikluko/jmap/mail/thread"

	"github.com/mikluko/xin/internal/config"
)

// basicAuthTransport injects a static Basic Authorization header; used when
// the resolved credentials are a user/pass pair rather than a bearer token.
type basicAuthTransport struct {
	user, pass string
	base       http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.user, t.pass)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// New authenticates a JMAP session for the given runtime config and
// returns a ready client. Session fetch is retried never — a failure here
// is surfaced as-is by the caller, which wraps it as an httpError.
func New(rc *config.RuntimeConfig) (*jmap.Client, error) {
	client := &jmap.Client{SessionEndpoint: rc.SessionURL()}
	switch {
	case rc.Credentials.Bearer != "":
		client = client.WithAccessToken(rc.Credentials.Bearer)
	case rc.Credentials.BasicUser != "":
		client.HttpClient = &http.Client{
			Transport: &basicAuthTransport{user: rc.Credentials.BasicUser, pass: rc.Credentials.BasicPass},
		}
	default:
		return nil, fmt.Errorf("no credentials configured")
	}

	if err := client.Authenticate(); err != nil {
		return nil, fmt.Errorf("jmap session: %w", err)
	}
	return client, nil
}

// PrimaryMailAccount returns the primary account id for the Mail capability,
// or an error if the server does not advertise one.
func PrimaryMailAccount(client *jmap.Client) (jmap.ID, error) {
	id := client.Session.PrimaryAccounts[mail.URI]
	if id == "" {
		return "", fmt.Errorf("no primary mail account")
	}
	return id, nil
}
