// Package bodytext decodes an email's text/html body parts against a byte
// budget, and separately prepares a quoted-reply-stripped rendering for
// summary display, per spec.md §4.13.
package bodytext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/k3a/html2text"
	"github.com/mikluko/jmap/mail/email"
	erp "github.com/web-ridge/email-reply-parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxBodyChars is the per-email body size cap applied to the
// summary rendering (Summary) when no explicit limit is given.
const DefaultMaxBodyChars = 4000

const truncationMarker = "\n\n[... body truncated ...]"

// Meta mirrors the JMAP EmailBodyValue flags the server reports alongside
// a decoded body part.
type Meta struct {
	IsTruncated       bool
	IsEncodingProblem bool
}

// Decoded holds one kind's (text or html) decoded value plus its Meta, or
// a false Present if the email has no part of that kind.
type Decoded struct {
	Present bool
	Value   string
	Meta    Meta
}

// Full picks the first textBody and first htmlBody part present in bodyValues
// and returns their decoded values and flags, per spec.md §4.13. Limit is the
// maxBodyValueBytes argument the caller used when fetching the email (for
// warning text only — the server, not this function, enforces the cap).
func Full(e *email.Email, limitBytes int) (text, htmlBody Decoded, warnings []string) {
	text = pick(e.TextBody, e.BodyValues)
	htmlBody = pick(e.HTMLBody, e.BodyValues)

	if text.Present && text.Meta.IsTruncated {
		warnings = append(warnings, fmt.Sprintf("body.text truncated (limit=%d); request a higher --max-body-bytes", limitBytes))
	}
	if htmlBody.Present && htmlBody.Meta.IsTruncated {
		warnings = append(warnings, fmt.Sprintf("body.html truncated (limit=%d); request a higher --max-body-bytes", limitBytes))
	}
	return text, htmlBody, warnings
}

// PrefixThreadWarnings prefixes each warning with "emailId=<id>: ", as
// thread.get --full does when flattening warnings from multiple emails.
func PrefixThreadWarnings(emailID string, warnings []string) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = fmt.Sprintf("emailId=%s: %s", emailID, w)
	}
	return out
}

func pick(parts []*email.BodyPart, values map[string]*email.BodyValue) Decoded {
	for _, part := range parts {
		if bv, ok := values[part.PartID]; ok {
			return Decoded{Present: true, Value: bv.Value, Meta: Meta{IsTruncated: bv.IsTruncated, IsEncodingProblem: bv.IsEncodingProblem}}
		}
	}
	return Decoded{}
}

// Summary renders a quoted-reply-stripped, length-capped plain-text body
// for list/summary views. The first text part is used when present;
// otherwise the first HTML part has its <blockquote> elements removed and is
// flattened to text. Full does no such stripping. maxChars <= 0 uses
// DefaultMaxBodyChars.
func Summary(e *email.Email, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxBodyChars
	}
	for _, part := range e.TextBody {
		if bv, ok := e.BodyValues[part.PartID]; ok {
			return prepareBody(bv.Value, maxChars)
		}
	}
	for _, part := range e.HTMLBody {
		if bv, ok := e.BodyValues[part.PartID]; ok {
			return prepareBody(html2text.HTML2Text(stripBlockquotes(bv.Value)), maxChars)
		}
	}
	return ""
}

// prepareBody strips text-level quoted replies and signatures, then truncates.
func prepareBody(text string, maxChars int) string {
	stripped := erp.Parse(text)
	return TruncateBody(stripped, maxChars)
}

// TruncateBody cuts text to fit within limit characters, preferring to cut
// at the last newline before the limit and appending a truncation marker.
// When limit leaves no room beyond the marker, only the marker is returned,
// which is then longer than limit.
func TruncateBody(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	budget := limit - len(truncationMarker)
	if budget <= 0 {
		return truncationMarker
	}
	cut := strings.LastIndex(text[:budget], "\n")
	if cut <= 0 {
		cut = budget
	}
	return text[:cut] + truncationMarker
}

// stripBlockquotes parses HTML and removes all <blockquote> elements and
// their children, structurally dropping quoted replies before the
// remaining HTML is flattened to text.
func stripBlockquotes(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	removeBlockquotes(doc)
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return rawHTML
	}
	return buf.String()
}

func removeBlockquotes(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && c.DataAtom == atom.Blockquote {
			n.RemoveChild(c)
			continue
		}
		removeBlockquotes(c)
	}
}
