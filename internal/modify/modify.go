// Package modify plans and applies mailbox-membership and keyword changes
// to one or more emails, including the sugar shortcuts (archive, read,
// unread, trash, delete) and thread-scoped expansion.
package modify

import (
	"context"
	"fmt"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/email"
	"github.com/mikluko/jmap/mail/mailbox"
	"github.com/mikluko/jmap/mail/thread"

	resolver "github.com/mikluko/xin/internal/mailbox"
	"github.com/mikluko/xin/internal/reqbuild"
)

// Plan is the computed set of changes for one or more email ids, per
// spec.md §4.9. ReplaceMailboxes, when non-nil, is mutually exclusive with
// AddMailboxes/RemoveMailboxes.
type Plan struct {
	AddMailboxes    []jmap.ID
	RemoveMailboxes []jmap.ID
	AddKeywords     []string
	RemoveKeywords  []string
	ReplaceMailboxes []jmap.ID
}

// IsEmpty reports whether the plan would make no change at all — callers
// must reject this as a usage error before doing any work.
func (p Plan) IsEmpty() bool {
	return len(p.AddMailboxes) == 0 && len(p.RemoveMailboxes) == 0 &&
		len(p.AddKeywords) == 0 && len(p.RemoveKeywords) == 0 && p.ReplaceMailboxes == nil
}

// Patch renders the plan as the per-id jmap.Patch Email/set expects.
func (p Plan) Patch() jmap.Patch {
	patch := jmap.Patch{}
	if p.ReplaceMailboxes != nil {
		set := make(map[string]bool, len(p.ReplaceMailboxes))
		for _, id := range p.ReplaceMailboxes {
			set[string(id)] = true
		}
		patch["mailboxIds"] = set
	} else {
		for _, id := range p.AddMailboxes {
			patch["mailboxIds/"+string(id)] = true
		}
		for _, id := range p.RemoveMailboxes {
			patch["mailboxIds/"+string(id)] = nil
		}
	}
	for _, kw := range p.AddKeywords {
		patch["keywords/"+kw] = true
	}
	for _, kw := range p.RemoveKeywords {
		patch["keywords/"+kw] = nil
	}
	return patch
}

// AutoRoute classifies each token in tokens (from --add/--remove) as a
// mailbox id (if the Mailbox Resolver finds one) or a keyword, per
// spec.md §4.9's parse-phase auto-routing.
func AutoRoute(tokens []string, mailboxes []*mailbox.Mailbox) (ids []jmap.ID, keywords []string) {
	for _, t := range tokens {
		if id, ok := resolver.Resolve(t, mailboxes); ok {
			ids = append(ids, id)
		} else {
			keywords = append(keywords, t)
		}
	}
	return ids, keywords
}

// Result summarizes a completed (or dry-run) apply, for envelope rendering.
type Result struct {
	DryRun       bool
	Plan         Plan
	Updated      []jmap.ID
	Failed       []FailedUpdate
	AppliedToThread *ThreadExpansion
}

// FailedUpdate is one server-reported per-id failure.
type FailedUpdate struct {
	ID       jmap.ID
	JMAPType string
}

// ThreadExpansion records what a thread-scoped apply expanded to, for
// envelope reporting (appliedTo.threadId / appliedTo.emailIds).
type ThreadExpansion struct {
	ThreadID jmap.ID
	EmailIDs []jmap.ID
}

// ResolveThread expands a single email id to
// its full set of member email ids via Email/get + Thread/get, per
// spec.md §4.9's thread-scoped variant. Missing thread is a usage error.
func ResolveThread(ctx context.Context, client *jmap.Client, accountID jmap.ID, emailID jmap.ID) (*ThreadExpansion, error) {
	b := reqbuild.New(ctx)
	b.Invoke("email", &email.Get{
		Account:    accountID,
		IDs:        []jmap.ID{emailID},
		Properties: []string{"id", "threadId"},
	})
	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	getResp, err := reqbuild.Extract[*email.GetResponse](resp, 0, "Email/get")
	if err != nil {
		return nil, err
	}
	if len(getResp.List) == 0 {
		return nil, fmt.Errorf("xinUsageError: email not found: %s", emailID)
	}
	threadID := getResp.List[0].ThreadID

	b2 := reqbuild.New(ctx)
	b2.Invoke("thread", &thread.Get{
		Account: accountID,
		IDs:     []jmap.ID{threadID},
	})
	resp2, err := b2.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	threadResp, err := reqbuild.Extract[*thread.GetResponse](resp2, 0, "Thread/get")
	if err != nil {
		return nil, err
	}
	if len(threadResp.List) == 0 {
		return nil, fmt.Errorf("xinUsageError: thread not found: %s", threadID)
	}

	return &ThreadExpansion{ThreadID: threadID, EmailIDs: threadResp.List[0].EmailIDs}, nil
}

// Apply builds and, unless dryRun, executes an Email/set update for plan
// against ids. When dryRun is true, no request is issued at all.
func Apply(ctx context.Context, client *jmap.Client, accountID jmap.ID, ids []jmap.ID, plan Plan, dryRun bool) (*Result, error) {
	if plan.IsEmpty() {
		return nil, fmt.Errorf("xinUsageError: modify plan is empty")
	}
	if dryRun {
		return &Result{DryRun: true, Plan: plan}, nil
	}

	patch := plan.Patch()
	updates := make(map[jmap.ID]jmap.Patch, len(ids))
	for _, id := range ids {
		updates[id] = patch
	}

	b := reqbuild.New(ctx)
	b.Invoke("set", &email.Set{Account: accountID, Update: updates})
	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	setResp, err := reqbuild.Extract[*email.SetResponse](resp, 0, "Email/set")
	if err != nil {
		return nil, err
	}

	result := &Result{Plan: plan}
	for id := range setResp.Updated {
		result.Updated = append(result.Updated, id)
	}
	for id, se := range setResp.NotUpdated {
		result.Failed = append(result.Failed, FailedUpdate{ID: id, JMAPType: se.Type})
	}
	return result, nil
}

// Destroy permanently destroys ids via Email/set destroy — used by
// `delete`, gated by the caller on an explicit confirmation flag.
func Destroy(ctx context.Context, client *jmap.Client, accountID jmap.ID, ids []jmap.ID) (*Result, error) {
	b := reqbuild.New(ctx)
	b.Invoke("set", &email.Set{Account: accountID, Destroy: ids})
	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	setResp, err := reqbuild.Extract[*email.SetResponse](resp, 0, "Email/set")
	if err != nil {
		return nil, err
	}

	result := &Result{Updated: setResp.Destroyed}
	for id, se := range setResp.NotDestroyed {
		result.Failed = append(result.Failed, FailedUpdate{ID: id, JMAPType: se.Type})
	}
	return result, nil
}

// Archive builds the sugar "archive" plan: remove inbox, add archive (if
// that role exists in mailboxes).
func Archive(mailboxes []*mailbox.Mailbox) (Plan, error) {
	inboxID, ok := resolver.RequireCoreRole(mailbox.RoleInbox, mailboxes)
	if !ok {
		return Plan{}, fmt.Errorf("xinConfigError: account has no inbox mailbox")
	}
	plan := Plan{RemoveMailboxes: []jmap.ID{inboxID}}
	if archiveID, ok := resolver.RequireCoreRole(mailbox.RoleArchive, mailboxes); ok {
		plan.AddMailboxes = append(plan.AddMailboxes, archiveID)
	}
	return plan, nil
}

// ReadUnread builds the sugar "read"/"unread" plan: add/remove $seen.
func ReadUnread(markRead bool) Plan {
	if markRead {
		return Plan{AddKeywords: []string{"$seen"}}
	}
	return Plan{RemoveKeywords: []string{"$seen"}}
}

// Trash builds the sugar "trash" plan: whole-mailbox replacement to trash,
// matching typical IMAP move semantics.
func Trash(mailboxes []*mailbox.Mailbox) (Plan, error) {
	trashID, ok := resolver.RequireCoreRole(mailbox.RoleTrash, mailboxes)
	if !ok {
		return Plan{}, fmt.Errorf("xinConfigError: account has no trash mailbox")
	}
	return Plan{ReplaceMailboxes: []jmap.ID{trashID}}, nil
}
