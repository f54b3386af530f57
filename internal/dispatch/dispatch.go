// Package dispatch routes a parsed command and its arguments to the
// relevant component package and wraps the result into the stable output
// envelope, per spec.md §4.14.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/email"
	"github.com/mikluko/jmap/mail/identity"
	"github.com/mikluko/jmap/mail/mailbox"
	"github.com/mikluko/jmap/mail/thread"
	"github.com/mikluko/jmap/sieve"
	"github.com/mikluko/jmap/sieve/sievescript"

	"github.com/mikluko/xin/internal/bodytext"
	"github.com/mikluko/xin/internal/config"
	"github.com/mikluko/xin/internal/envelope"
	"github.com/mikluko/xin/internal/history"
	"github.com/mikluko/xin/internal/jmapclient"
	resolver "github.com/mikluko/xin/internal/mailbox"
	"github.com/mikluko/xin/internal/modify"
	"github.com/mikluko/xin/internal/reqbuild"
	"github.com/mikluko/xin/internal/search"
	"github.com/mikluko/xin/internal/submission"
	"github.com/mikluko/xin/internal/sugar"
	"github.com/mikluko/xin/internal/watch"
)

// Deps bundles what a Dispatch call needs beyond its own arguments: the
// resolved runtime config (for account name / redacted reporting) and an
// already-authenticated client. The CLI builds one through Connect for each
// command invocation.
type Deps struct {
	RuntimeConfig *config.RuntimeConfig
	Client        *jmap.Client
	AccountID     jmap.ID
	Logger        *slog.Logger
}

// Connect resolves config and authenticates a client for accountSelector,
// returning Deps ready for Dispatch. A failure carries the tag config.Resolve
// gave it, httpError for a failed session fetch, or jmapRequestError when no
// primary mail account is found; the caller renders it as an envelope. logger receives
// diagnostic detail gated by the CLI's --verbose flag; a nil logger is
// replaced with one that discards everything.
func Connect(accountSelector string, logger *slog.Logger) (*Deps, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rc, err := config.Resolve(accountSelector)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved account config", "account", rc.AccountName, "sessionUrl", rc.SessionURL())
	client, err := jmapclient.New(rc)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	accountID, err := jmapclient.PrimaryMailAccount(client)
	if err != nil {
		return nil, fmt.Errorf("jmapRequestError: %w", err)
	}
	logger.Debug("authenticated JMAP session", "account", rc.AccountName, "accountId", accountID)
	return &Deps{RuntimeConfig: rc, Client: client, AccountID: accountID, Logger: logger}, nil
}

func newMeta() envelope.Meta {
	return envelope.Meta{RequestID: uuid.NewString()}
}

// classify turns an internal error (tagged with a leading "xinUsageError:"
// / "xinConfigError:" / "httpError:" / "jmapRequestError:" prefix by
// convention, per the component packages above) into an envelope.Error. An
// untagged error defaults to jmapRequestError, the most common failure mode
// for untyped JMAP-adjacent errors.
func classify(err error) *envelope.Error {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "xinUsageError: "):
		return envelope.UsageError(strings.TrimPrefix(msg, "xinUsageError: "))
	case strings.HasPrefix(msg, "xinConfigError: "):
		return envelope.ConfigError(strings.TrimPrefix(msg, "xinConfigError: "))
	case strings.HasPrefix(msg, "httpError: "):
		return envelope.HTTPError(strings.TrimPrefix(msg, "httpError: "), 0)
	case strings.HasPrefix(msg, "jmapRequestError: "):
		return envelope.JMAPRequestError(strings.TrimPrefix(msg, "jmapRequestError: "), nil)
	default:
		if sugar.IsUsageError(err) {
			return envelope.UsageError(msg)
		}
		return envelope.JMAPRequestError(msg, nil)
	}
}

func fail(command, account string, err error) *envelope.Envelope {
	return envelope.Err(command, account, classify(err))
}

// Fail classifies err by its tagged-prefix convention and wraps it into a
// failed envelope. Exported for the CLI layer's pre-dispatch failures (e.g.
// Connect returning a config or transport error before any command runs).
func Fail(command, account string, err error) *envelope.Envelope {
	return fail(command, account, err)
}

func listMailboxes(ctx context.Context, client *jmap.Client, accountID jmap.ID) ([]*mailbox.Mailbox, error) {
	b := reqbuild.New(ctx)
	b.Invoke("get", &mailbox.Get{Account: accountID})
	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	getResp, err := reqbuild.Extract[*mailbox.GetResponse](resp, 0, "Mailbox/get")
	if err != nil {
		return nil, err
	}
	return getResp.List, nil
}

func emailSummary(e *email.Email) map[string]any {
	mailboxIDs := map[string]bool{}
	for id := range e.MailboxIDs {
		mailboxIDs[string(id)] = true
	}
	keywords := map[string]bool{}
	for kw := range e.Keywords {
		keywords[kw] = true
	}
	return map[string]any{
		"emailId":       e.ID,
		"threadId":      e.ThreadID,
		"receivedAt":    formatTime(e.ReceivedAt),
		"subject":       e.Subject,
		"from":          e.From,
		"to":            e.To,
		"preview":       e.Preview,
		"hasAttachment": e.HasAttachment,
		"mailboxIds":    mailboxIDs,
		"keywords":      keywords,
		"unread":        !keywords["$seen"],
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var summaryProperties = []string{
	"id", "threadId", "receivedAt", "subject", "from", "to", "preview",
	"hasAttachment", "mailboxIds", "keywords",
}

// --- search / messages.search / inbox.next / drafts.list ---

// SearchArgs is the CLI-layer input to the search family of commands.
type SearchArgs struct {
	Command            string // "search", "messages.search", "inbox.next", "drafts.list"
	Query              string
	FilterJSON         sugar.Filter
	Limit              uint64
	HasLimit           bool
	Oldest             bool
	HasOldest          bool
	CollapseThreads    bool
	HasCollapseThreads bool
	Page               string
	All                bool // inbox.next: include already-seen messages
}

// Search runs the search/messages.search/inbox.next/drafts.list family.
func Search(ctx context.Context, d *Deps, a SearchArgs) *envelope.Envelope {
	d.Logger.Debug("dispatching search", "command", a.Command, "query", a.Query, "page", a.Page != "")
	query := a.Query
	collapse := a.CollapseThreads
	hasCollapse := a.HasCollapseThreads
	switch a.Command {
	case "messages.search":
		collapse = false
		hasCollapse = true
	case "inbox.next":
		prefix := "in:inbox "
		if !a.All {
			prefix += "seen:false "
		}
		query = prefix + query
	case "drafts.list":
		mbs, err := listMailboxes(ctx, d.Client, d.AccountID)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		draftsID, ok := resolver.RequireCoreRole(mailbox.RoleDrafts, mbs)
		if !ok {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinConfigError: account has no drafts mailbox"))
		}
		if query != "" {
			query = "in:" + string(draftsID) + " " + query
		} else {
			a.FilterJSON = sugar.Filter{"inMailbox": string(draftsID)}
		}
	}

	page, err := search.Run(ctx, d.Client, d.AccountID, search.Args{
		Query: query, FilterJSON: a.FilterJSON, Limit: a.Limit, HasLimit: a.HasLimit,
		CollapseThreads: collapse, HasCollapseThreads: hasCollapse,
		Ascending: a.Oldest, HasAscending: a.HasOldest, Cursor: a.Page,
	}, summaryProperties, func(ctx context.Context) ([]*mailbox.Mailbox, error) {
		return listMailboxes(ctx, d.Client, d.AccountID)
	})
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, err)
	}

	items := make([]map[string]any, len(page.Emails))
	for i, e := range page.Emails {
		items[i] = emailSummary(e)
	}

	meta := newMeta()
	meta.NextPage = page.NextPage
	return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"total": page.Total, "items": items}, meta)
}

// --- get ---

// GetArgs is the input to the "get" command (fetch by id).
type GetArgs struct {
	EmailID      string
	Format       string // "metadata" | "full" | "raw"
	MaxBodyBytes int
	Headers      []string
}

// Get fetches one email's content at the requested fidelity.
func Get(ctx context.Context, d *Deps, a GetArgs) *envelope.Envelope {
	properties := append([]string{}, summaryProperties...)
	if a.Format == "full" || a.Format == "raw" {
		properties = append(properties, "textBody", "htmlBody", "bodyValues")
	}
	if len(a.Headers) > 0 || a.Format == "raw" {
		properties = append(properties, "headers")
	}

	b := reqbuild.New(ctx)
	get := &email.Get{
		Account: d.AccountID, IDs: []jmap.ID{jmap.ID(a.EmailID)}, Properties: properties, FetchAllBodyValues: true,
	}
	if a.MaxBodyBytes > 0 {
		get.MaxBodyValueBytes = uint64(a.MaxBodyBytes)
	}
	b.Invoke("get", get)
	resp, err := b.Do(d.Client)
	if err != nil {
		return fail("get", d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
	}
	getResp, err := reqbuild.Extract[*email.GetResponse](resp, 0, "Email/get")
	if err != nil {
		return fail("get", d.RuntimeConfig.AccountName, err)
	}
	if len(getResp.List) == 0 {
		return fail("get", d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: email not found: %s", a.EmailID))
	}
	e := getResp.List[0]

	data := emailSummary(e)
	meta := newMeta()
	if a.Format == "full" || a.Format == "raw" {
		text, html, warnings := bodytext.Full(e, a.MaxBodyBytes)
		body := map[string]any{}
		if text.Present {
			body["text"] = map[string]any{"value": text.Value, "isTruncated": text.Meta.IsTruncated, "isEncodingProblem": text.Meta.IsEncodingProblem}
		}
		if html.Present {
			body["html"] = map[string]any{"value": html.Value, "isTruncated": html.Meta.IsTruncated, "isEncodingProblem": html.Meta.IsEncodingProblem}
		}
		data["body"] = body
		meta.Warnings = warnings
	}
	if len(a.Headers) > 0 {
		wanted := map[string]bool{}
		for _, h := range a.Headers {
			wanted[strings.ToLower(h)] = true
		}
		var hdrs []map[string]string
		for _, h := range e.Headers {
			if wanted[strings.ToLower(h.Name)] {
				hdrs = append(hdrs, map[string]string{"name": h.Name, "value": strings.TrimSpace(h.Value)})
			}
		}
		data["headers"] = hdrs
	}

	return envelope.Ok("get", d.RuntimeConfig.AccountName, data, meta)
}

// --- modify sugar commands & batch ---

// ModifyArgs is the input to archive/read/unread/trash/batch-modify.
type ModifyArgs struct {
	Command      string // "archive", "read", "unread", "trash", "batch.modify"
	EmailIDs     []string
	WholeThread  bool
	DryRun       bool
	Add, Remove  []string // auto-routed
	AddMailboxes, RemoveMailboxes []string
	AddKeywords, RemoveKeywords   []string
}

// Modify runs the sugar or explicit modify commands, including thread
// expansion when WholeThread is set.
func Modify(ctx context.Context, d *Deps, a ModifyArgs) *envelope.Envelope {
	d.Logger.Debug("dispatching modify", "command", a.Command, "emailIds", len(a.EmailIDs), "wholeThread", a.WholeThread, "dryRun", a.DryRun)
	if len(a.EmailIDs) == 0 {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: at least one email id is required"))
	}

	ids := make([]jmap.ID, len(a.EmailIDs))
	for i, s := range a.EmailIDs {
		ids[i] = jmap.ID(s)
	}

	var appliedTo *modify.ThreadExpansion
	if a.WholeThread {
		exp, err := modify.ResolveThread(ctx, d.Client, d.AccountID, ids[0])
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		appliedTo = exp
		ids = exp.EmailIDs
	}

	var plan modify.Plan
	var err error
	switch a.Command {
	case "archive":
		mbs, merr := listMailboxes(ctx, d.Client, d.AccountID)
		if merr != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, merr)
		}
		plan, err = modify.Archive(mbs)
	case "read":
		plan = modify.ReadUnread(true)
	case "unread":
		plan = modify.ReadUnread(false)
	case "trash":
		mbs, merr := listMailboxes(ctx, d.Client, d.AccountID)
		if merr != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, merr)
		}
		plan, err = modify.Trash(mbs)
	case "batch.modify":
		mbs, merr := listMailboxes(ctx, d.Client, d.AccountID)
		if merr != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, merr)
		}
		addIDs, addKw := modify.AutoRoute(a.Add, mbs)
		removeIDs, removeKw := modify.AutoRoute(a.Remove, mbs)
		for _, s := range a.AddMailboxes {
			if id, ok := resolver.Resolve(s, mbs); ok {
				addIDs = append(addIDs, id)
			}
		}
		for _, s := range a.RemoveMailboxes {
			if id, ok := resolver.Resolve(s, mbs); ok {
				removeIDs = append(removeIDs, id)
			}
		}
		plan = modify.Plan{
			AddMailboxes: addIDs, RemoveMailboxes: removeIDs,
			AddKeywords:  append(addKw, a.AddKeywords...),
			RemoveKeywords: append(removeKw, a.RemoveKeywords...),
		}
	default:
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: unknown modify command %q", a.Command))
	}
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, err)
	}

	result, err := modify.Apply(ctx, d.Client, d.AccountID, ids, plan, a.DryRun)
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, err)
	}

	data := map[string]any{"dryRun": result.DryRun, "changes": planJSON(plan)}
	if !result.DryRun {
		data["updated"] = result.Updated
		var failed []map[string]any
		for _, f := range result.Failed {
			failed = append(failed, map[string]any{"id": f.ID, "jmapError": f.JMAPType})
		}
		data["failed"] = failed
	}
	if appliedTo != nil {
		data["appliedTo"] = map[string]any{"threadId": appliedTo.ThreadID, "emailIds": appliedTo.EmailIDs}
	}
	return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, data, newMeta())
}

func planJSON(p modify.Plan) map[string]any {
	return map[string]any{
		"addMailboxes": p.AddMailboxes, "removeMailboxes": p.RemoveMailboxes,
		"addKeywords": p.AddKeywords, "removeKeywords": p.RemoveKeywords,
		"replaceMailboxes": p.ReplaceMailboxes,
	}
}

// --- delete (batch.delete / thread.delete) ---

// DeleteArgs is the input to the destructive delete commands.
type DeleteArgs struct {
	Command     string // "batch.delete", "thread.delete"
	EmailIDs    []string
	WholeThread bool
	Force       bool
}

// Delete permanently destroys emails; requires Force, per spec.md's
// destructive-command gate (zero HTTP requests without it).
func Delete(ctx context.Context, d *Deps, a DeleteArgs) *envelope.Envelope {
	d.Logger.Debug("dispatching delete", "command", a.Command, "emailIds", len(a.EmailIDs), "wholeThread", a.WholeThread, "force", a.Force)
	if !a.Force {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: %s requires --force", a.Command))
	}
	if len(a.EmailIDs) == 0 {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: at least one email id is required"))
	}

	ids := make([]jmap.ID, len(a.EmailIDs))
	for i, s := range a.EmailIDs {
		ids[i] = jmap.ID(s)
	}

	var appliedTo *modify.ThreadExpansion
	if a.WholeThread {
		exp, err := modify.ResolveThread(ctx, d.Client, d.AccountID, ids[0])
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		appliedTo = exp
		ids = exp.EmailIDs
	}

	result, err := modify.Destroy(ctx, d.Client, d.AccountID, ids)
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, err)
	}

	data := map[string]any{"destroyed": result.Updated}
	var failed []map[string]any
	for _, f := range result.Failed {
		failed = append(failed, map[string]any{"id": f.ID, "jmapError": f.JMAPType})
	}
	data["failed"] = failed
	if appliedTo != nil {
		data["appliedTo"] = map[string]any{"threadId": appliedTo.ThreadID, "emailIds": appliedTo.EmailIDs}
	}
	return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, data, newMeta())
}

// --- thread ---

// ThreadArgs is the input to thread get|attachments.
type ThreadArgs struct {
	Command      string // "thread.get", "thread.attachments"
	ThreadID     string
	MaxBodyBytes int
}

// Thread fetches a thread's member emails (optionally just attachments).
func Thread(ctx context.Context, d *Deps, a ThreadArgs) *envelope.Envelope {
	b := reqbuild.New(ctx)
	b.Invoke("thread", &thread.Get{Account: d.AccountID, IDs: []jmap.ID{jmap.ID(a.ThreadID)}})
	resp, err := b.Do(d.Client)
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
	}
	threadResp, err := reqbuild.Extract[*thread.GetResponse](resp, 0, "Thread/get")
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, err)
	}
	if len(threadResp.List) == 0 {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: thread not found: %s", a.ThreadID))
	}
	emailIDs := threadResp.List[0].EmailIDs

	properties := append([]string{}, summaryProperties...)
	if a.Command == "thread.get" {
		properties = append(properties, "textBody", "htmlBody", "bodyValues")
	} else {
		properties = append(properties, "bodyStructure", "attachments")
	}

	b2 := reqbuild.New(ctx)
	get := &email.Get{Account: d.AccountID, IDs: emailIDs, Properties: properties, FetchAllBodyValues: true}
	if a.MaxBodyBytes > 0 {
		get.MaxBodyValueBytes = uint64(a.MaxBodyBytes)
	}
	b2.Invoke("get", get)
	resp2, err := b2.Do(d.Client)
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
	}
	getResp, err := reqbuild.Extract[*email.GetResponse](resp2, 0, "Email/get")
	if err != nil {
		return fail(a.Command, d.RuntimeConfig.AccountName, err)
	}

	var items []map[string]any
	var warnings []string
	for _, e := range getResp.List {
		item := emailSummary(e)
		if a.Command == "thread.get" {
			text, html, ws := bodytext.Full(e, a.MaxBodyBytes)
			body := map[string]any{}
			if text.Present {
				body["text"] = text.Value
			}
			if html.Present {
				body["html"] = html.Value
			}
			item["body"] = body
			warnings = append(warnings, bodytext.PrefixThreadWarnings(string(e.ID), ws)...)
		} else {
			item["attachments"] = e.Attachments
		}
		items = append(items, item)
	}

	meta := newMeta()
	meta.Warnings = warnings
	return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"threadId": a.ThreadID, "items": items}, meta)
}

// --- attachment ---

// Attachment downloads one email's blob by blob id. When outPath is set,
// the content is written there and the envelope reports the path and size
// instead of embedding the (base64-encoded) bytes inline.
func Attachment(ctx context.Context, d *Deps, emailID, blobID, outPath string) *envelope.Envelope {
	reader, err := d.Client.DownloadWithContext(ctx, d.AccountID, jmap.ID(blobID))
	if err != nil {
		return fail("attachment", d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		return fail("attachment", d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return fail("attachment", d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: writing %s: %w", outPath, err))
		}
		return envelope.Ok("attachment", d.RuntimeConfig.AccountName, map[string]any{
			"emailId": emailID, "blobId": blobID, "bytes": len(content), "path": outPath,
		}, newMeta())
	}

	return envelope.Ok("attachment", d.RuntimeConfig.AccountName, map[string]any{
		"emailId": emailID, "blobId": blobID, "bytes": len(content), "content": content,
	}, newMeta())
}

// --- labels / mailboxes ---

// MailboxArgs is the input to labels|mailboxes list|get|create|rename|delete.
type MailboxArgs struct {
	Command  string // "labels.list", "labels.get", "labels.create", "labels.rename", "labels.delete"
	ID       string
	Name     string
	ParentID string
}

// Mailbox runs the labels/mailboxes management family.
func Mailbox(ctx context.Context, d *Deps, a MailboxArgs) *envelope.Envelope {
	switch a.Command {
	case "labels.list", "labels.get":
		get := &mailbox.Get{Account: d.AccountID}
		if a.ID != "" {
			get.IDs = []jmap.ID{jmap.ID(a.ID)}
		}
		b := reqbuild.New(ctx)
		b.Invoke("get", get)
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
		}
		getResp, err := reqbuild.Extract[*mailbox.GetResponse](resp, 0, "Mailbox/get")
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		var items []map[string]any
		for _, mb := range getResp.List {
			items = append(items, map[string]any{
				"id": mb.ID, "name": mb.Name, "role": mb.Role, "parentId": mb.ParentID,
				"totalEmails": mb.TotalEmails, "unreadEmails": mb.UnreadEmails,
			})
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"items": items}, newMeta())

	case "labels.create":
		mb := &mailbox.Mailbox{Name: a.Name}
		if a.ParentID != "" {
			mb.ParentID = jmap.ID(a.ParentID)
		}
		b := reqbuild.New(ctx)
		b.Invoke("set", &mailbox.Set{Account: d.AccountID, Create: map[jmap.ID]*mailbox.Mailbox{"new": mb}})
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
		}
		setResp, err := reqbuild.Extract[*mailbox.SetResponse](resp, 0, "Mailbox/set")
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		if se, ok := setResp.NotCreated["new"]; ok {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("jmapRequestError: %s", se.Type))
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": setResp.Created["new"].ID}, newMeta())

	case "labels.rename":
		patch := jmap.Patch{}
		if a.Name != "" {
			patch["name"] = a.Name
		}
		if a.ParentID != "" {
			patch["parentId"] = a.ParentID
		}
		if len(patch) == 0 {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: nothing to rename"))
		}
		b := reqbuild.New(ctx)
		b.Invoke("set", &mailbox.Set{Account: d.AccountID, Update: map[jmap.ID]jmap.Patch{jmap.ID(a.ID): patch}})
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
		}
		setResp, err := reqbuild.Extract[*mailbox.SetResponse](resp, 0, "Mailbox/set")
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		if se, ok := setResp.NotUpdated[jmap.ID(a.ID)]; ok {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("jmapRequestError: %s", se.Type))
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": a.ID}, newMeta())

	case "labels.delete":
		b := reqbuild.New(ctx)
		b.Invoke("set", &mailbox.Set{Account: d.AccountID, Destroy: []jmap.ID{jmap.ID(a.ID)}})
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
		}
		setResp, err := reqbuild.Extract[*mailbox.SetResponse](resp, 0, "Mailbox/set")
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		if se, ok := setResp.NotDestroyed[jmap.ID(a.ID)]; ok {
			return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("jmapRequestError: %s", se.Type))
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": a.ID}, newMeta())

	default:
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: unknown mailbox command %q", a.Command))
	}
}

// --- identities ---

// Identities lists or gets sender identities.
func Identities(ctx context.Context, d *Deps, id string) *envelope.Envelope {
	command := "identities.list"
	get := &identity.Get{Account: d.AccountID}
	if id != "" {
		command = "identities.get"
		get.IDs = []jmap.ID{jmap.ID(id)}
	}
	b := reqbuild.New(ctx)
	b.Invoke("get", get)
	resp, err := b.Do(d.Client)
	if err != nil {
		return fail(command, d.RuntimeConfig.AccountName, fmt.Errorf("httpError: %w", err))
	}
	getResp, err := reqbuild.Extract[*identity.GetResponse](resp, 0, "Identity/get")
	if err != nil {
		return fail(command, d.RuntimeConfig.AccountName, err)
	}
	var items []map[string]any
	for _, id := range getResp.List {
		items = append(items, map[string]any{"id": id.ID, "name": id.Name, "email": id.Email})
	}
	return envelope.Ok(command, d.RuntimeConfig.AccountName, map[string]any{"items": items}, newMeta())
}

// --- drafts / send ---

// DraftArgs is the input to the drafts.* family and top-level send.
type DraftArgs struct {
	Command     string // "drafts.create", "drafts.update", "drafts.send", "drafts.delete", "send"
	DraftID     string
	IdentityID  string
	To, CC, BCC []string
	Subject     string
	Body        string

	AttachmentPaths    []string
	ReplaceAttachments bool
	ClearAttachments   bool
}

// Draft runs the drafts.* / send commands.
func Draft(ctx context.Context, d *Deps, a DraftArgs) *envelope.Envelope {
	if a.ClearAttachments && (a.ReplaceAttachments || len(a.AttachmentPaths) > 0) {
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: --clear-attachments is mutually exclusive with --replace-attachments/--attach"))
	}

	switch a.Command {
	case "drafts.create", "send":
		mbs, err := listMailboxes(ctx, d.Client, d.AccountID)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		atts, err := uploadAttachments(ctx, d, a.AttachmentPaths)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		id, err := submission.CreateDraft(ctx, d.Client, d.AccountID, mbs, submission.Draft{To: a.To, CC: a.CC, BCC: a.BCC, Subject: a.Subject, Body: a.Body, Attachments: atts})
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		if a.Command == "drafts.create" {
			return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": id}, newMeta())
		}
		if err := submission.Send(ctx, d.Client, d.AccountID, id, jmap.ID(a.IdentityID)); err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": id}, newMeta())

	case "drafts.update":
		atts, err := uploadAttachments(ctx, d, a.AttachmentPaths)
		if err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		draft := submission.Draft{To: a.To, CC: a.CC, BCC: a.BCC, Subject: a.Subject, Body: a.Body, Attachments: atts}
		if err := submission.UpdateDraft(ctx, d.Client, d.AccountID, jmap.ID(a.DraftID), draft, a.ReplaceAttachments, a.ClearAttachments); err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": a.DraftID}, newMeta())

	case "drafts.delete":
		if err := submission.DeleteDraft(ctx, d.Client, d.AccountID, jmap.ID(a.DraftID)); err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": a.DraftID}, newMeta())

	case "drafts.send":
		if err := submission.Send(ctx, d.Client, d.AccountID, jmap.ID(a.DraftID), jmap.ID(a.IdentityID)); err != nil {
			return fail(a.Command, d.RuntimeConfig.AccountName, err)
		}
		return envelope.Ok(a.Command, d.RuntimeConfig.AccountName, map[string]any{"id": a.DraftID}, newMeta())

	default:
		return fail(a.Command, d.RuntimeConfig.AccountName, fmt.Errorf("xinUsageError: unknown draft command %q", a.Command))
	}
}

// uploadAttachments reads each local path and uploads it as a blob, guessing
// its content type from the file extension per spec.md §4.12.
func uploadAttachments(ctx context.Context, d *Deps, paths []string) ([]submission.Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	atts := make([]submission.Attachment, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("xinUsageError: opening attachment %s: %w", path, err)
		}
		name := filepath.Base(path)
		att, err := submission.UploadAttachment(ctx, d.Client, d.AccountID, name, submission.GuessContentType(name), f)
		f.Close()
		if err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}
	return atts, nil
}

// --- history ---

// History runs the history command.
func History(ctx context.Context, d *Deps, a history.Args) *envelope.Envelope {
	if a.Since == "" && a.Cursor == "" {
		boot, err := history.Bootstrap(ctx, d.Client, d.AccountID)
		if err != nil {
			return fail("history", d.RuntimeConfig.AccountName, err)
		}
		return envelope.Ok("history", d.RuntimeConfig.AccountName, map[string]any{
			"sinceState": boot.SinceState, "newState": boot.NewState, "hasMoreChanges": false,
			"changes": map[string]any{"created": []jmap.ID{}, "updated": []jmap.ID{}, "destroyed": []jmap.ID{}},
		}, newMeta())
	}

	res, err := history.Run(ctx, d.Client, d.AccountID, a)
	if err != nil {
		return fail("history", d.RuntimeConfig.AccountName, err)
	}
	meta := newMeta()
	meta.NextPage = res.NextPage
	data := map[string]any{
		"sinceState": res.SinceState, "newState": res.NewState, "hasMoreChanges": res.HasMoreChanges,
		"changes": map[string]any{"created": res.Created, "updated": res.Updated, "destroyed": res.Destroyed},
	}
	if a.Hydrate {
		var created, updated []map[string]any
		for _, e := range res.HydratedCreated {
			created = append(created, emailSummary(e))
		}
		for _, e := range res.HydratedUpdated {
			updated = append(updated, emailSummary(e))
		}
		data["hydrated"] = map[string]any{"created": created, "updated": updated}
	}
	return envelope.Ok("history", d.RuntimeConfig.AccountName, data, meta)
}

// --- watch ---

// Watch runs the watch command, streaming NDJSON events to out; nothing is
// envelope-wrapped on success. It returns the loop's error, which the CLI
// renders as an error envelope unless opts.NoEnvelope is set.
func Watch(ctx context.Context, d *Deps, opts watch.Options, out io.Writer) error {
	return watch.Run(ctx, d.Client, d.AccountID, opts, out)
}

// --- config / auth ---

// ConfigInit writes a brand-new config file with one account; it refuses
// when a config file already exists.
func ConfigInit(accountName, baseURL, token string) *envelope.Envelope {
	path, err := config.Path()
	if err != nil {
		return fail("config.init", "", fmt.Errorf("xinConfigError: %w", err))
	}
	if _, err := os.Stat(path); err == nil {
		return fail("config.init", "", fmt.Errorf("xinUsageError: config file already exists: %s", path))
	}
	fc := &config.FileConfig{
		Defaults: config.Defaults{Account: accountName},
		Accounts: map[string]config.AccountConfig{
			accountName: {BaseURL: baseURL, Auth: config.AuthConfig{Type: "bearer", Token: token}},
		},
	}
	if err := config.Save(path, fc); err != nil {
		return fail("config.init", "", fmt.Errorf("xinConfigError: %w", err))
	}
	return envelope.Ok("config.init", accountName, map[string]any{"path": path}, newMeta())
}

// ConfigList lists configured account names.
func ConfigList() *envelope.Envelope {
	path, err := config.Path()
	if err != nil {
		return fail("config.list", "", fmt.Errorf("xinConfigError: %w", err))
	}
	fc, err := config.Load(path)
	if err != nil {
		return fail("config.list", "", err)
	}
	names := make([]string, 0, len(fc.Accounts))
	for name := range fc.Accounts {
		names = append(names, name)
	}
	return envelope.Ok("config.list", "", map[string]any{"accounts": names, "default": fc.Defaults.Account}, newMeta())
}

// ConfigSetDefault sets the default account name.
func ConfigSetDefault(accountName string) *envelope.Envelope {
	path, err := config.Path()
	if err != nil {
		return fail("config.set-default", "", fmt.Errorf("xinConfigError: %w", err))
	}
	fc, err := config.Load(path)
	if err != nil {
		return fail("config.set-default", "", err)
	}
	if _, ok := fc.Accounts[accountName]; !ok {
		return fail("config.set-default", "", fmt.Errorf("xinUsageError: unknown account %q", accountName))
	}
	fc.Defaults.Account = accountName
	if err := config.Save(path, fc); err != nil {
		return fail("config.set-default", "", fmt.Errorf("xinConfigError: %w", err))
	}
	return envelope.Ok("config.set-default", accountName, map[string]any{"default": accountName}, newMeta())
}

// ConfigShow reports the resolved (redacted) runtime config for an account.
func ConfigShow(accountSelector string, effective bool) *envelope.Envelope {
	rc, err := config.Resolve(accountSelector)
	if err != nil {
		return fail("config.show", "", err)
	}
	command := "config.show"
	if effective {
		command = "config.show.effective"
	}
	return envelope.Ok(command, rc.AccountName, rc.Redacted(), newMeta())
}

// AuthSetToken stores a bearer token for an account, creating it if absent.
func AuthSetToken(accountName, token string) *envelope.Envelope {
	path, err := config.Path()
	if err != nil {
		return fail("auth.set-token", accountName, fmt.Errorf("xinConfigError: %w", err))
	}
	fc, err := config.Load(path)
	if err != nil {
		return fail("auth.set-token", accountName, err)
	}
	acct := fc.Accounts[accountName]
	acct.Auth = config.AuthConfig{Type: "bearer", Token: token}
	fc.Accounts[accountName] = acct
	if err := config.Save(path, fc); err != nil {
		return fail("auth.set-token", accountName, fmt.Errorf("xinConfigError: %w", err))
	}
	return envelope.Ok("auth.set-token", accountName, map[string]any{"account": accountName}, newMeta())
}

// --- sieve ---

// SieveArgs is the input to the sieve.* family: list/get/create/update/delete
// scripts and validate a script without saving it.
type SieveArgs struct {
	Command     string // "sieve.list", "sieve.get", "sieve.create", "sieve.update", "sieve.delete", "sieve.validate"
	ID          string
	Name        string
	Content     string
	Activate    bool
	HasActivate bool
}

// sieveAccountID returns the account ID the server advertises for the
// Sieve capability, distinct from the mail account ID when the server
// splits them.
func sieveAccountID(client *jmap.Client) (jmap.ID, error) {
	id := client.Session.PrimaryAccounts[sieve.URI]
	if id == "" {
		return "", fmt.Errorf("xinConfigError: server does not advertise %s", sieve.URI)
	}
	return id, nil
}

// Sieve runs the sieve script management family, mapping onto
// SieveScript/get, SieveScript/set, and SieveScript/validate.
func Sieve(ctx context.Context, d *Deps, a SieveArgs) *envelope.Envelope {
	account := d.RuntimeConfig.AccountName

	sieveAccount, err := sieveAccountID(d.Client)
	if err != nil {
		return fail(a.Command, account, err)
	}

	switch a.Command {
	case "sieve.list", "sieve.get":
		get := &sievescript.Get{Account: sieveAccount}
		if a.ID != "" {
			get.IDs = []jmap.ID{jmap.ID(a.ID)}
		}
		b := reqbuild.New(ctx)
		b.Invoke("get", get)
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		getResp, err := reqbuild.Extract[*sievescript.GetResponse](resp, 0, "SieveScript/get")
		if err != nil {
			return fail(a.Command, account, err)
		}
		if len(getResp.NotFound) > 0 {
			return fail(a.Command, account, fmt.Errorf("xinUsageError: sieve script not found: %v", getResp.NotFound))
		}

		if a.ID != "" {
			if len(getResp.List) == 0 {
				return fail(a.Command, account, fmt.Errorf("xinUsageError: sieve script %s not found", a.ID))
			}
			script := getResp.List[0]
			reader, err := d.Client.DownloadWithContext(ctx, sieveAccount, script.BlobID)
			if err != nil {
				return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
			}
			defer reader.Close()
			content, err := io.ReadAll(reader)
			if err != nil {
				return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
			}
			return envelope.Ok(a.Command, account, map[string]any{
				"id": script.ID, "name": script.Name, "active": script.IsActive, "content": string(content),
			}, newMeta())
		}

		var items []map[string]any
		for _, script := range getResp.List {
			items = append(items, map[string]any{"id": script.ID, "name": script.Name, "active": script.IsActive})
		}
		return envelope.Ok(a.Command, account, map[string]any{"items": items}, newMeta())

	case "sieve.create":
		if a.Content == "" {
			return fail(a.Command, account, fmt.Errorf("xinUsageError: content is required for create"))
		}
		uploaded, err := d.Client.UploadWithContext(ctx, sieveAccount, strings.NewReader(a.Content))
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		set := &sievescript.Set{
			Account: sieveAccount,
			Create:  map[jmap.ID]*sievescript.SieveScript{"new": {Name: &a.Name, BlobID: uploaded.ID}},
		}
		if a.Activate {
			id := jmap.ID("#new")
			set.OnSuccessActivateScript = &id
		}
		b := reqbuild.New(ctx)
		b.Invoke("set", set)
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		setResp, err := reqbuild.Extract[*sievescript.SetResponse](resp, 0, "SieveScript/set")
		if err != nil {
			return fail(a.Command, account, err)
		}
		if se, ok := setResp.NotCreated["new"]; ok {
			return fail(a.Command, account, fmt.Errorf("jmapRequestError: %s", se.Type))
		}
		return envelope.Ok(a.Command, account, map[string]any{"id": setResp.Created["new"].ID}, newMeta())

	case "sieve.update":
		if a.ID == "" {
			return fail(a.Command, account, fmt.Errorf("xinUsageError: id is required for update"))
		}
		patch := jmap.Patch{}
		if a.Content != "" {
			uploaded, err := d.Client.UploadWithContext(ctx, sieveAccount, strings.NewReader(a.Content))
			if err != nil {
				return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
			}
			patch["blobId"] = uploaded.ID
		}
		if a.Name != "" {
			patch["name"] = a.Name
		}
		set := &sievescript.Set{Account: sieveAccount}
		if len(patch) > 0 {
			set.Update = map[jmap.ID]jmap.Patch{jmap.ID(a.ID): patch}
		}
		if a.HasActivate && a.Activate {
			id := jmap.ID(a.ID)
			set.OnSuccessActivateScript = &id
		}
		if len(patch) == 0 && set.OnSuccessActivateScript == nil {
			return fail(a.Command, account, fmt.Errorf("xinUsageError: nothing to update"))
		}
		b := reqbuild.New(ctx)
		b.Invoke("set", set)
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		setResp, err := reqbuild.Extract[*sievescript.SetResponse](resp, 0, "SieveScript/set")
		if err != nil {
			return fail(a.Command, account, err)
		}
		if se, ok := setResp.NotUpdated[jmap.ID(a.ID)]; ok {
			return fail(a.Command, account, fmt.Errorf("jmapRequestError: %s", se.Type))
		}
		return envelope.Ok(a.Command, account, map[string]any{"id": a.ID}, newMeta())

	case "sieve.delete":
		if a.ID == "" {
			return fail(a.Command, account, fmt.Errorf("xinUsageError: id is required for delete"))
		}
		b := reqbuild.New(ctx)
		b.Invoke("set", &sievescript.Set{Account: sieveAccount, Destroy: []jmap.ID{jmap.ID(a.ID)}})
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		setResp, err := reqbuild.Extract[*sievescript.SetResponse](resp, 0, "SieveScript/set")
		if err != nil {
			return fail(a.Command, account, err)
		}
		if se, ok := setResp.NotDestroyed[jmap.ID(a.ID)]; ok {
			return fail(a.Command, account, fmt.Errorf("jmapRequestError: %s", se.Type))
		}
		return envelope.Ok(a.Command, account, map[string]any{"id": a.ID}, newMeta())

	case "sieve.validate":
		if a.Content == "" {
			return fail(a.Command, account, fmt.Errorf("xinUsageError: content is required for validate"))
		}
		uploaded, err := d.Client.UploadWithContext(ctx, sieveAccount, strings.NewReader(a.Content))
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		b := reqbuild.New(ctx)
		b.Invoke("validate", &sievescript.Validate{Account: sieveAccount, BlobID: uploaded.ID})
		resp, err := b.Do(d.Client)
		if err != nil {
			return fail(a.Command, account, fmt.Errorf("httpError: %w", err))
		}
		validateResp, err := reqbuild.Extract[*sievescript.ValidateResponse](resp, 0, "SieveScript/validate")
		if err != nil {
			return fail(a.Command, account, err)
		}
		if validateResp.Error != nil {
			desc := validateResp.Error.Type
			if validateResp.Error.Description != nil {
				desc += ": " + *validateResp.Error.Description
			}
			return envelope.Ok(a.Command, account, map[string]any{"valid": false, "error": desc}, newMeta())
		}
		return envelope.Ok(a.Command, account, map[string]any{"valid": true}, newMeta())

	default:
		return fail(a.Command, account, fmt.Errorf("xinUsageError: unknown sieve command %q", a.Command))
	}
}
