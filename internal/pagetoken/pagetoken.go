// Package pagetoken encodes and decodes the opaque, self-describing paging
// cursors used by search, history, and watch.
package pagetoken

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mikluko/xin/internal/sugar"
)

var encoding = base64.RawURLEncoding

// Search is the page token shape for search/messages.search.
type Search struct {
	Position        uint64       `json:"position"`
	Limit           uint64       `json:"limit"`
	CollapseThreads bool         `json:"collapseThreads"`
	IsAscending     bool         `json:"isAscending"`
	Filter          sugar.Filter `json:"filter"`
}

// Changes is the page token shape for history/watch.
type Changes struct {
	SinceState string `json:"sinceState"`
	MaxChanges uint64 `json:"maxChanges,omitempty"`
}

// EncodeSearch serializes a Search token to its opaque wire form.
func EncodeSearch(t Search) (string, error) { return encode(t) }

// DecodeSearch parses an opaque token into a Search token, or returns a
// usage error on malformed input.
func DecodeSearch(s string) (Search, error) {
	var t Search
	err := decode(s, &t)
	return t, err
}

// EncodeChanges serializes a Changes token to its opaque wire form.
func EncodeChanges(t Changes) (string, error) { return encode(t) }

// DecodeChanges parses an opaque token into a Changes token, or returns a
// usage error on malformed input.
func DecodeChanges(s string) (Changes, error) {
	var t Changes
	err := decode(s, &t)
	return t, err
}

// MismatchError reports a page token field that disagrees with a
// caller-supplied argument. Per spec, the token is the source of truth and
// any disagreement is a usage error with zero server calls.
type MismatchError struct {
	Field          string
	TokenValue     string
	SuppliedValue  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("xinUsageError: page token does not match args: %s (token=%s, supplied=%s)", e.Field, e.TokenValue, e.SuppliedValue)
}

// CheckField compares a token field against an optional caller-supplied
// value (ok=false means the caller did not supply it, so there is nothing
// to check). Returns a *MismatchError when both are present and differ.
func CheckField(field, tokenValue string, supplied string, ok bool) error {
	if !ok {
		return nil
	}
	if supplied != tokenValue {
		return &MismatchError{Field: field, TokenValue: tokenValue, SuppliedValue: supplied}
	}
	return nil
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return encoding.EncodeToString(raw), nil
}

func decode(s string, v any) error {
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("xinUsageError: malformed page token: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("xinUsageError: malformed page token: %w", err)
	}
	return nil
}
