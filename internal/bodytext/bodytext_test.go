package bodytext

import (
	"strings"
	"testing"

	"github.com/mikluko/jmap/mail/email"
)

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
	}{
		{name: "under limit is untouched", text: "short", limit: 100},
		{name: "cuts at newline before limit", text: strings.Repeat("line\n", 20), limit: 40},
		{name: "tiny limit falls back to marker", text: strings.Repeat("x", 100), limit: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateBody(tt.text, tt.limit)
			if len(tt.text) <= tt.limit {
				if got != tt.text {
					t.Errorf("expected untouched text, got %q", got)
				}
				return
			}
			if !strings.Contains(got, truncationMarker) {
				t.Errorf("expected truncation marker in %q", got)
			}
		})
	}
}

func TestStripBlockquotesRemovesQuotedReply(t *testing.T) {
	in := `<html><body><p>Hello</p><blockquote><p>Quoted reply</p></blockquote></body></html>`
	got := stripBlockquotes(in)
	if !strings.Contains(got, "Hello") {
		t.Errorf("expected output to retain Hello, got:\n%s", got)
	}
	if strings.Contains(got, "Quoted reply") {
		t.Errorf("expected output to drop quoted reply, got:\n%s", got)
	}
}

func TestFull_PicksFirstPartAndFlagsTruncation(t *testing.T) {
	e := &email.Email{
		TextBody: []*email.BodyPart{{PartID: "1", Type: "text/plain"}},
		HTMLBody: []*email.BodyPart{{PartID: "2", Type: "text/html"}},
		BodyValues: map[string]*email.BodyValue{
			"1": {Value: "plain text", IsTruncated: true},
			"2": {Value: "<p>html</p>"},
		},
	}
	text, html, warnings := Full(e, 1024)
	if !text.Present || text.Value != "plain text" {
		t.Fatalf("expected text part present with decoded value, got %+v", text)
	}
	if !text.Meta.IsTruncated {
		t.Errorf("expected text part to be flagged truncated")
	}
	if !html.Present || html.Value != "<p>html</p>" {
		t.Fatalf("expected html part present, got %+v", html)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "body.text truncated") {
		t.Errorf("expected exactly one body.text truncation warning, got %v", warnings)
	}
}

func TestFull_AbsentPartsReportNotPresent(t *testing.T) {
	e := &email.Email{}
	text, html, warnings := Full(e, 1024)
	if text.Present || html.Present {
		t.Errorf("expected neither part present for an email with no body parts")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestPrefixThreadWarnings(t *testing.T) {
	got := PrefixThreadWarnings("M1", []string{"body.text truncated (limit=100); request a higher --max-body-bytes"})
	if len(got) != 1 || !strings.HasPrefix(got[0], "emailId=M1: ") {
		t.Errorf("expected emailId prefix, got %v", got)
	}
}
