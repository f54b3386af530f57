// Package history implements the incremental Email/changes engine: cursor
// bootstrap, paged changes, and optional hydration, per spec.md §4.10.
package history

import (
	"context"
	"fmt"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/email"

	"github.com/mikluko/xin/internal/pagetoken"
	"github.com/mikluko/xin/internal/reqbuild"
)

// Result is one page of change output.
type Result struct {
	SinceState   string
	NewState     string
	HasMoreChanges bool
	Created      []jmap.ID
	Updated      []jmap.ID
	Destroyed    []jmap.ID
	NextPage     string

	HydratedCreated []*email.Email
	HydratedUpdated []*email.Email
}

// Bootstrap seeds a cursor with the account's current state, reporting no
// changes — used when the caller supplies neither --since nor --page.
func Bootstrap(ctx context.Context, client *jmap.Client, accountID jmap.ID) (*Result, error) {
	b := reqbuild.New(ctx)
	b.Invoke("get", &email.Get{Account: accountID, IDs: []jmap.ID{}})
	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}
	getResp, err := reqbuild.Extract[*email.GetResponse](resp, 0, "Email/get")
	if err != nil {
		return nil, err
	}
	return &Result{SinceState: getResp.State, NewState: getResp.State}, nil
}

// Args is one history request.
type Args struct {
	Since     string
	MaxChanges uint64
	Cursor    string
	Hydrate   bool

	HasSince      bool
	HasMaxChanges bool
}

// Run decodes/validates the cursor, issues Email/changes (optionally
// hydrating created/updated ids in the same batch), and builds the next
// page token per spec.md §4.10's "token keeps the caller-supplied
// sinceState" rule.
func Run(ctx context.Context, client *jmap.Client, accountID jmap.ID, a Args) (*Result, error) {
	sinceState := a.Since
	maxChanges := a.MaxChanges

	if a.Cursor != "" {
		tok, err := pagetoken.DecodeChanges(a.Cursor)
		if err != nil {
			return nil, err
		}
		if err := pagetoken.CheckField("since", tok.SinceState, a.Since, a.HasSince); err != nil {
			return nil, err
		}
		if err := pagetoken.CheckField("maxChanges", fmt.Sprint(tok.MaxChanges), fmt.Sprint(a.MaxChanges), a.HasMaxChanges); err != nil {
			return nil, err
		}
		sinceState = tok.SinceState
		maxChanges = tok.MaxChanges
	}
	if sinceState == "" {
		return nil, fmt.Errorf("xinUsageError: history requires --since or --page (or run with neither to bootstrap a cursor)")
	}

	b := reqbuild.New(ctx)
	b.Invoke("changes", &email.Changes{
		Account:    accountID,
		SinceState: sinceState,
		MaxChanges: maxChanges,
	})
	if a.Hydrate {
		b.Invoke("get-created", &email.Get{
			Account: accountID,
			ReferenceIDs: &jmap.ResultReference{
				ResultOf: b.Tag("changes"),
				Name:     "Email/changes",
				Path:     "/created",
			},
			Properties: hydrateProperties,
		})
		b.Invoke("get-updated", &email.Get{
			Account: accountID,
			ReferenceIDs: &jmap.ResultReference{
				ResultOf: b.Tag("changes"),
				Name:     "Email/changes",
				Path:     "/updated",
			},
			Properties: hydrateProperties,
		})
	}

	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}

	changesResp, err := reqbuild.Extract[*email.ChangesResponse](resp, 0, "Email/changes")
	if err != nil {
		return nil, err
	}

	result := &Result{
		SinceState:     sinceState,
		NewState:       changesResp.NewState,
		HasMoreChanges: changesResp.HasMoreChanges,
		Created:        changesResp.Created,
		Updated:        changesResp.Updated,
		Destroyed:      changesResp.Destroyed,
	}

	if a.Hydrate {
		if createdResp, err := reqbuild.Extract[*email.GetResponse](resp, 1, "Email/get"); err == nil {
			result.HydratedCreated = createdResp.List
		}
		if updatedResp, err := reqbuild.Extract[*email.GetResponse](resp, 2, "Email/get"); err == nil {
			result.HydratedUpdated = updatedResp.List
		}
	}

	if result.HasMoreChanges {
		next, err := pagetoken.EncodeChanges(pagetoken.Changes{SinceState: sinceState, MaxChanges: maxChanges})
		if err != nil {
			return nil, err
		}
		result.NextPage = next
	}

	return result, nil
}

var hydrateProperties = []string{"id", "threadId", "receivedAt", "subject", "from", "to", "preview", "hasAttachment", "mailboxIds", "keywords"}
