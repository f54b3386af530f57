// Package envelope implements the stable top-level JSON output shape every
// xin command returns, and the closed error-kind vocabulary that fills its
// error field.
package envelope

import "encoding/json"

// SchemaVersion is frozen at the major; breaking wire changes bump it.
const SchemaVersion = "0.1"

// Kind is the closed error-kind vocabulary. No other values are valid.
type Kind string

const (
	KindUsageError    Kind = "xinUsageError"
	KindConfigError   Kind = "xinConfigError"
	KindNotImplemented Kind = "xinNotImplemented"
	KindHTTPError     Kind = "httpError"
	KindJMAPRequestError Kind = "jmapRequestError"
)

// Error is the envelope's error object. Secret values must never be placed
// in Message, HTTP, or JMAP.
type Error struct {
	Kind    Kind            `json:"kind"`
	Message string          `json:"message"`
	HTTP    json.RawMessage `json:"http,omitempty"`
	JMAP    json.RawMessage `json:"jmap,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// UsageError builds a xinUsageError.
func UsageError(message string) *Error {
	return &Error{Kind: KindUsageError, Message: message}
}

// ConfigError builds a xinConfigError.
func ConfigError(message string) *Error {
	return &Error{Kind: KindConfigError, Message: message}
}

// NotImplementedError builds a xinNotImplemented error.
func NotImplementedError(message string) *Error {
	return &Error{Kind: KindNotImplemented, Message: message}
}

// HTTPError builds an httpError carrying the HTTP status, if known.
func HTTPError(message string, status int) *Error {
	e := &Error{Kind: KindHTTPError, Message: message}
	if status > 0 {
		e.HTTP, _ = json.Marshal(map[string]int{"status": status})
	}
	return e
}

// JMAPRequestError builds a jmapRequestError, optionally carrying the
// offending JMAP method-error payload.
func JMAPRequestError(message string, jmapPayload any) *Error {
	e := &Error{Kind: KindJMAPRequestError, Message: message}
	if jmapPayload != nil {
		e.JMAP, _ = json.Marshal(jmapPayload)
	}
	return e
}

// Meta carries paging/diagnostic metadata that rides alongside data or error.
type Meta struct {
	RequestID string   `json:"requestId,omitempty"`
	NextPage  string   `json:"nextPage,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// AddWarning appends a warning to Meta, initializing the slice if needed.
func (m *Meta) AddWarning(w string) {
	m.Warnings = append(m.Warnings, w)
}

// Envelope is the fixed top-level JSON structure every command returns.
// Exactly one of Data or Err is set.
type Envelope struct {
	SchemaVersion string `json:"schemaVersion"`
	OK            bool   `json:"ok"`
	Command       string `json:"command"`
	Account       string `json:"account,omitempty"`
	Data          any    `json:"data,omitempty"`
	Err           *Error `json:"error,omitempty"`
	Meta          Meta   `json:"meta"`
}

// Ok builds a successful envelope.
func Ok(command, account string, data any, meta Meta) *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		OK:            true,
		Command:       command,
		Account:       account,
		Data:          data,
		Meta:          meta,
	}
}

// Err builds a failed envelope. Meta is always the zero value, matching the
// original implementation's behavior of discarding any partial meta on error.
func Err(command, account string, err *Error) *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		OK:            false,
		Command:       command,
		Account:       account,
		Err:           err,
	}
}

// ExitCode returns the process exit code for this envelope: 0 when ok,
// otherwise 1. Code 2 (pre-dispatch argument-parse failure) is never
// produced here — it is the CLI layer's responsibility before an envelope
// exists at all.
func (e *Envelope) ExitCode() int {
	if e.OK {
		return 0
	}
	return 1
}

// MarshalPretty renders the envelope as a single pretty-printed JSON document.
func (e *Envelope) MarshalPretty() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
