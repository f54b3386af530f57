// Package sugar compiles xin's query sugar DSL into a JMAP Email/query
// filter tree.
//
// v0 grammar:
//   - Tokens are whitespace-separated; a "…" span is one token.
//   - A token prefixed by '-' is negated.
//   - A token matching or:(x|y|z) is a single OR group of simple terms.
//   - A bare term (no key:) compiles as {text: token}.
//   - key:value compiles per the term table in compileTerm.
//
// Nested or:(...), parenthesised grouping, and group-level negation are
// deliberately unsupported — each produces an actionable usage error
// pointing at --filter-json, matching the original implementation this
// package is ported from.
package sugar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikluko/jmap/mail/mailbox"

	resolver "github.com/mikluko/xin/internal/mailbox"
)

// Filter is a JMAP query filter node: either a leaf condition or an
// operator node with nested conditions.
type Filter map[string]any

// MailboxLister resolves in:<mailbox> terms; it is only invoked when the
// query contains at least one in: term, so a caller can defer the mailbox
// list round-trip until it's actually needed.
type MailboxLister func() ([]*mailbox.Mailbox, error)

type term struct {
	negated bool
	key     string
	value   string
}

type orGroup struct {
	terms []term
}

type token interface{ isToken() }

func (term) isToken()    {}
func (orGroup) isToken() {}

// Compile lexes and compiles a sugar query string into a JMAP filter tree.
// An empty or whitespace-only query compiles to an empty filter ({}).
func Compile(query string, listMailboxes MailboxLister) (Filter, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Filter{}, nil
	}

	tokens, err := lex(query)
	if err != nil {
		return nil, err
	}

	needsMailboxes := false
	for _, t := range tokens {
		switch tt := t.(type) {
		case term:
			if tt.key == "in" {
				needsMailboxes = true
			}
		case orGroup:
			for _, inner := range tt.terms {
				if inner.key == "in" {
					needsMailboxes = true
				}
			}
		}
	}

	var mailboxes []*mailbox.Mailbox
	if needsMailboxes {
		if listMailboxes == nil {
			return nil, fmt.Errorf("in:<mailbox> requires mailbox listing (internal error)")
		}
		mailboxes, err = listMailboxes()
		if err != nil {
			return nil, err
		}
	}

	var compiled []Filter
	for _, t := range tokens {
		switch tt := t.(type) {
		case term:
			cond, err := compileTerm(tt.key, tt.value, mailboxes)
			if err != nil {
				return nil, err
			}
			if tt.negated {
				cond = not(cond)
			}
			compiled = append(compiled, cond)
		case orGroup:
			var ors []Filter
			for _, inner := range tt.terms {
				cond, err := compileTerm(inner.key, inner.value, mailboxes)
				if err != nil {
					return nil, err
				}
				if inner.negated {
					cond = not(cond)
				}
				ors = append(ors, cond)
			}
			compiled = append(compiled, op("OR", ors))
		}
	}

	return andAll(compiled), nil
}

func lex(input string) ([]token, error) {
	raw, err := splitWhitespaceQuoted(input)
	if err != nil {
		return nil, err
	}

	var out []token
	for _, tok := range raw {
		if strings.HasPrefix(tok, "or:(") {
			if !strings.HasSuffix(tok, ")") {
				return nil, usageErr("or:(...) group must be a single token; quote the full query")
			}
			inner := strings.TrimSuffix(strings.TrimPrefix(tok, "or:("), ")")
			if strings.Contains(inner, "or:(") {
				return nil, usageErr("nested or:(...) is not supported in v0; use `--filter-json` for nested boolean logic")
			}
			parts, err := splitOrTerms(inner)
			if err != nil {
				return nil, err
			}
			var terms []term
			for _, p := range parts {
				neg, key, val, err := parseSimpleTerm(p)
				if err != nil {
					return nil, err
				}
				terms = append(terms, term{negated: neg, key: key, value: val})
			}
			if len(terms) == 0 {
				return nil, usageErr("or:(...) group is empty")
			}
			out = append(out, orGroup{terms: terms})
			continue
		}

		neg, key, val, err := parseSimpleTerm(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, term{negated: neg, key: key, value: val})
	}
	return out, nil
}

func parseSimpleTerm(tok string) (negated bool, key, value string, err error) {
	s := strings.TrimSpace(tok)
	if s == "" {
		return false, "", "", usageErr("empty token")
	}

	if strings.HasPrefix(strings.TrimSpace(tok), "-(") {
		return false, "", "", usageErr("group negation `-(...)` is not supported in v0; negate individual terms (e.g. `-from:alice -subject:foo`) or use `--filter-json` (inline JSON or @file). Example: --filter-json '{\"operator\":\"NOT\",\"conditions\":[{\"from\":\"alice\"}]}'")
	}

	if strings.HasPrefix(s, "-") {
		negated = true
		s = s[1:]
	}

	if strings.HasPrefix(s, "(") || strings.HasSuffix(s, ")") {
		return false, "", "", usageErr("parentheses grouping is not supported in v0; use `or:(a|b|...)`, `-term`, or `--filter-json` (inline JSON or @file) for complex filters. Example: --filter-json '{\"operator\":\"AND\",\"conditions\":[{\"from\":\"alice\"},{\"subject\":\"foo\"}]}'")
	}

	if k, v, ok := strings.Cut(s, ":"); ok {
		return negated, strings.ToLower(strings.TrimSpace(k)), unquote(strings.TrimSpace(v)), nil
	}
	return negated, "text", unquote(s), nil
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

func splitWhitespaceQuoted(input string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuotes := false

	for _, ch := range input {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			cur.WriteRune(ch)
		case isSpace(ch) && !inQuotes:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(ch)
		}
	}

	if inQuotes {
		return nil, usageErr("unterminated quote")
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out, nil
}

func splitOrTerms(inner string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuotes := false

	for _, ch := range inner {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			cur.WriteRune(ch)
		case ch == '|' && !inQuotes:
			s := strings.TrimSpace(cur.String())
			if s != "" {
				out = append(out, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}

	if inQuotes {
		return nil, usageErr("unterminated quote in or:(...)")
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out, nil
}

func compileTerm(key, value string, mailboxes []*mailbox.Mailbox) (Filter, error) {
	switch key {
	case "from", "to", "cc", "bcc", "subject", "text", "body":
		return Filter{key: value}, nil

	case "in":
		id, ok := resolver.Resolve(value, mailboxes)
		if !ok {
			return nil, usageErr(fmt.Sprintf("unknown mailbox: %s", value))
		}
		return Filter{"inMailbox": string(id)}, nil

	case "has":
		if value == "attachment" {
			return Filter{"hasAttachment": true}, nil
		}
		return nil, usageErr(fmt.Sprintf("unsupported term: has:%s", value))

	case "hasattachment":
		b, err := parseBool(value, "hasAttachment")
		if err != nil {
			return nil, err
		}
		return Filter{"hasAttachment": b}, nil

	case "seen":
		b, err := parseBool(value, "seen")
		if err != nil {
			return nil, err
		}
		if b {
			return Filter{"hasKeyword": "$seen"}, nil
		}
		return Filter{"notKeyword": "$seen"}, nil

	case "flagged":
		b, err := parseBool(value, "flagged")
		if err != nil {
			return nil, err
		}
		if b {
			return Filter{"hasKeyword": "$flagged"}, nil
		}
		return Filter{"notKeyword": "$flagged"}, nil

	case "after":
		t, err := parseDate(value, "after")
		if err != nil {
			return nil, err
		}
		return Filter{"after": t}, nil

	case "before":
		t, err := parseDate(value, "before")
		if err != nil {
			return nil, err
		}
		return Filter{"before": t}, nil

	default:
		return nil, usageErr(fmt.Sprintf("unsupported term: %s", key))
	}
}

func parseBool(value, label string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, usageErr(fmt.Sprintf("%s must be true|false", label))
	}
}

func parseDate(value, label string) (string, error) {
	if len(value) == 10 && value[4] == '-' && value[7] == '-' {
		if _, err := strconv.Atoi(value[:4]); err == nil {
			d, err := time.Parse("2006-01-02", value)
			if err == nil {
				return d.UTC().Format(time.RFC3339), nil
			}
		}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", usageErr(fmt.Sprintf("invalid %s date: %s", label, value))
	}
	return t.UTC().Format(time.RFC3339), nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func op(kind string, conditions []Filter) Filter {
	return Filter{"operator": kind, "conditions": conditions}
}

func not(cond Filter) Filter {
	return op("NOT", []Filter{cond})
}

func andAll(conditions []Filter) Filter {
	switch len(conditions) {
	case 0:
		return Filter{}
	case 1:
		return conditions[0]
	default:
		return op("AND", conditions)
	}
}

func usageErr(msg string) error { return usageError(msg) }

// usageError is a distinguishable error type so the dispatch layer can map
// it to envelope.KindUsageError without string-sniffing.
type usageError string

func (e usageError) Error() string { return string(e) }

// IsUsageError reports whether err originated from the sugar compiler as a
// DSL usage error (as opposed to a mailbox-listing failure bubbling through).
func IsUsageError(err error) bool {
	_, ok := err.(usageError)
	return ok
}
