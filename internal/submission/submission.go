// Package submission implements draft create/update and the send path
// (EmailSubmission/set with OnSuccessUpdateEmail moving Drafts -> Sent),
// per spec.md's drafts.* and send commands.
package submission

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail"
	"github.com/mikluko/jmap/mail/email"
	"github.com/mikluko/jmap/mail/emailsubmission"
	"github.com/mikluko/jmap/mail/identity"
	"github.com/mikluko/jmap/mail/mailbox"

	resolver "github.com/mikluko/xin/internal/mailbox"
	"github.com/mikluko/xin/internal/reqbuild"
)

// Draft is the input to CreateDraft/UpdateDraft.
type Draft struct {
	To, CC, BCC []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is one already-uploaded blob ready to attach to a draft.
type Attachment struct {
	BlobID jmap.ID
	Name   string
	Type   string
	Size   uint64
}

// UploadAttachment reads the full contents of r, POSTs it to the account's
// upload endpoint, and returns the resulting blob descriptor. contentType
// should come from GuessContentType(name) when the caller doesn't already
// know it.
func UploadAttachment(ctx context.Context, client *jmap.Client, accountID jmap.ID, name, contentType string, r io.Reader) (Attachment, error) {
	uploaded, err := client.UploadWithContext(ctx, accountID, r)
	if err != nil {
		return Attachment{}, fmt.Errorf("httpError: uploading attachment %s: %w", name, err)
	}
	return Attachment{BlobID: uploaded.ID, Name: name, Type: contentType, Size: uploaded.Size}, nil
}

// GuessContentType maps a filename's extension to a MIME type, falling
// back conservatively to application/octet-stream when unrecognized.
func GuessContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return strings.Split(t, ";")[0]
	}
	return "application/octet-stream"
}

func attachmentParts(atts []Attachment) []*email.BodyPart {
	if len(atts) == 0 {
		return nil
	}
	parts := make([]*email.BodyPart, len(atts))
	for i, a := range atts {
		parts[i] = &email.BodyPart{BlobID: a.BlobID, Name: a.Name, Type: a.Type, Size: a.Size, Disposition: "attachment"}
	}
	return parts
}

// CreateDraft creates a new email in the Drafts mailbox.
func CreateDraft(ctx context.Context, client *jmap.Client, accountID jmap.ID, mailboxes []*mailbox.Mailbox, d Draft) (jmap.ID, error) {
	draftsID, ok := resolver.RequireCoreRole(mailbox.RoleDrafts, mailboxes)
	if !ok {
		return "", fmt.Errorf("xinConfigError: account has no drafts mailbox")
	}

	draft := &email.Email{
		MailboxIDs: map[jmap.ID]bool{draftsID: true},
		Keywords:   map[string]bool{"$draft": true},
		To:         toAddresses(d.To),
		CC:         toAddresses(d.CC),
		BCC:        toAddresses(d.BCC),
		Subject:    d.Subject,
		BodyValues: map[string]*email.BodyValue{"body": {Value: d.Body}},
		TextBody:   []*email.BodyPart{{PartID: "body", Type: "text/plain"}},
		Attachments: attachmentParts(d.Attachments),
	}

	b := reqbuild.New(ctx)
	b.Invoke("set", &email.Set{Account: accountID, Create: map[jmap.ID]*email.Email{"draft": draft}})
	resp, err := b.Do(client)
	if err != nil {
		return "", fmt.Errorf("httpError: %w", err)
	}
	setResp, err := reqbuild.Extract[*email.SetResponse](resp, 0, "Email/set")
	if err != nil {
		return "", err
	}
	if se, ok := setResp.NotCreated["draft"]; ok {
		return "", fmt.Errorf("jmapRequestError: draft creation failed: %s", se.Type)
	}
	created, ok := setResp.Created["draft"]
	if !ok {
		return "", fmt.Errorf("jmapRequestError: server did not return the created draft id")
	}
	return created.ID, nil
}

// UpdateDraft patches an existing draft's fields via Email/set update.
// replaceAttachments discards the draft's existing attachments instead of
// appending; it is meaningless (and the caller should reject it) combined
// with clearAttachments, which drops all attachments outright.
func UpdateDraft(ctx context.Context, client *jmap.Client, accountID, draftID jmap.ID, d Draft, replaceAttachments, clearAttachments bool) error {
	patch := jmap.Patch{}
	if d.Subject != "" {
		patch["subject"] = d.Subject
	}
	if len(d.To) > 0 {
		patch["to"] = toAddresses(d.To)
	}
	if len(d.CC) > 0 {
		patch["cc"] = toAddresses(d.CC)
	}
	if len(d.BCC) > 0 {
		patch["bcc"] = toAddresses(d.BCC)
	}
	if d.Body != "" {
		patch["bodyValues"] = map[string]*email.BodyValue{"body": {Value: d.Body}}
		patch["textBody"] = []*email.BodyPart{{PartID: "body", Type: "text/plain"}}
	}

	switch {
	case clearAttachments:
		patch["attachments"] = nil
	case len(d.Attachments) > 0 && replaceAttachments:
		patch["attachments"] = attachmentParts(d.Attachments)
	case len(d.Attachments) > 0:
		existing, err := fetchAttachments(ctx, client, accountID, draftID)
		if err != nil {
			return err
		}
		patch["attachments"] = attachmentParts(append(existing, d.Attachments...))
	}

	if len(patch) == 0 {
		return fmt.Errorf("xinUsageError: drafts update requires at least one field")
	}

	b := reqbuild.New(ctx)
	b.Invoke("set", &email.Set{Account: accountID, Update: map[jmap.ID]jmap.Patch{draftID: patch}})
	resp, err := b.Do(client)
	if err != nil {
		return fmt.Errorf("httpError: %w", err)
	}
	setResp, err := reqbuild.Extract[*email.SetResponse](resp, 0, "Email/set")
	if err != nil {
		return err
	}
	if se, ok := setResp.NotUpdated[draftID]; ok {
		return fmt.Errorf("jmapRequestError: draft update failed: %s", se.Type)
	}
	return nil
}

// Send submits emailID for delivery. When identityID is empty, the
// account's first identity is used. On success the server moves the
// message from Drafts to Sent and clears $draft in the same round-trip via
// OnSuccessUpdateEmail.
func Send(ctx context.Context, client *jmap.Client, accountID, emailID, identityID jmap.ID) error {
	b := reqbuild.New(ctx)
	b.Invoke("mailboxes", &mailbox.Get{Account: accountID})
	b.Invoke("identities", &identity.Get{Account: accountID})
	discoverResp, err := b.Do(client)
	if err != nil {
		return fmt.Errorf("httpError: %w", err)
	}

	mailboxResp, err := reqbuild.Extract[*mailbox.GetResponse](discoverResp, 0, "Mailbox/get")
	if err != nil {
		return err
	}
	draftsID, ok := resolver.RequireCoreRole(mailbox.RoleDrafts, mailboxResp.List)
	if !ok {
		return fmt.Errorf("xinConfigError: account has no drafts mailbox")
	}
	sentID, ok := resolver.RequireCoreRole(mailbox.RoleSent, mailboxResp.List)
	if !ok {
		return fmt.Errorf("xinConfigError: account has no sent mailbox")
	}

	if identityID == "" {
		identityResp, err := reqbuild.Extract[*identity.GetResponse](discoverResp, 1, "Identity/get")
		if err != nil {
			return err
		}
		if len(identityResp.List) == 0 {
			return fmt.Errorf("xinConfigError: account has no sender identities")
		}
		identityID = identityResp.List[0].ID
	}

	b2 := reqbuild.New(ctx)
	b2.Invoke("submit", &emailsubmission.Set{
		Account: accountID,
		Create: map[jmap.ID]*emailsubmission.EmailSubmission{
			"send": {IdentityID: identityID, EmailID: emailID},
		},
		OnSuccessUpdateEmail: map[jmap.ID]jmap.Patch{
			"#send": {
				"mailboxIds/" + string(draftsID): nil,
				"mailboxIds/" + string(sentID):    true,
				"keywords/$draft":                  nil,
			},
		},
	})
	submitResp, err := b2.Do(client)
	if err != nil {
		return fmt.Errorf("httpError: %w", err)
	}
	setResp, err := reqbuild.Extract[*emailsubmission.SetResponse](submitResp, 0, "EmailSubmission/set")
	if err != nil {
		return err
	}
	if se, ok := setResp.NotCreated["send"]; ok {
		return fmt.Errorf("jmapRequestError: submission failed: %s", se.Type)
	}
	return nil
}

// DeleteDraft destroys a draft email outright (drafts.delete).
func DeleteDraft(ctx context.Context, client *jmap.Client, accountID, draftID jmap.ID) error {
	b := reqbuild.New(ctx)
	b.Invoke("set", &email.Set{Account: accountID, Destroy: []jmap.ID{draftID}})
	resp, err := b.Do(client)
	if err != nil {
		return fmt.Errorf("httpError: %w", err)
	}
	setResp, err := reqbuild.Extract[*email.SetResponse](resp, 0, "Email/set")
	if err != nil {
		return err
	}
	if se, ok := setResp.NotDestroyed[draftID]; ok {
		return fmt.Errorf("jmapRequestError: draft delete failed: %s", se.Type)
	}
	return nil
}

// fetchAttachments reads a draft's current attachment parts, for the
// default append behavior of drafts.update.
func fetchAttachments(ctx context.Context, client *jmap.Client, accountID, draftID jmap.ID) ([]Attachment, error) {
	b := reqbuild.New(ctx)
	b.Invoke("get", &email.Get{Account: accountID, IDs: []jmap.ID{draftID}, Properties: []string{"id", "attachments"}})
	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	getResp, err := reqbuild.Extract[*email.GetResponse](resp, 0, "Email/get")
	if err != nil {
		return nil, err
	}
	if len(getResp.List) == 0 {
		return nil, fmt.Errorf("xinUsageError: draft not found: %s", draftID)
	}
	existing := make([]Attachment, 0, len(getResp.List[0].Attachments))
	for _, part := range getResp.List[0].Attachments {
		existing = append(existing, Attachment{BlobID: part.BlobID, Name: part.Name, Type: part.Type, Size: part.Size})
	}
	return existing, nil
}

func toAddresses(addrs []string) []*mail.Address {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]*mail.Address, len(addrs))
	for i, a := range addrs {
		out[i] = &mail.Address{Email: a}
	}
	return out
}
