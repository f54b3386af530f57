// Package search implements Email/query + chained Email/get, producing a
// paged result set driven by the opaque cursors in internal/pagetoken.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mikluko/jmap"
	"github.com/mikluko/jmap/mail/email"
	"github.com/mikluko/jmap/mail/mailbox"

	"github.com/mikluko/xin/internal/pagetoken"
	"github.com/mikluko/xin/internal/reqbuild"
	"github.com/mikluko/xin/internal/sugar"
)

// DefaultLimit is applied when a caller supplies no limit.
const DefaultLimit = 20

// MaxLimit caps a single page regardless of what the caller requests.
const MaxLimit = 200

// Args is one search request. Cursor, when non-empty, is the opaque token
// from a prior page's NextPage; its fields take precedence over any other
// field also supplied (checked for mismatch, never merged).
type Args struct {
	Query           string
	FilterJSON      sugar.Filter // pre-compiled filter, from --filter-json; mutually exclusive with Query
	Limit           uint64
	CollapseThreads bool
	Ascending       bool
	Cursor          string

	HasLimit           bool
	HasAscending       bool
	HasCollapseThreads bool
}

// Page is one page of search results plus the token for the next one, if any.
type Page struct {
	Total    uint64
	IDs      []jmap.ID
	Emails   []*email.Email
	NextPage string
}

// MailboxFetcher resolves the account's current mailbox list; only called
// when the compiled query needs to resolve an in:<mailbox> term.
type MailboxFetcher func(ctx context.Context) ([]*mailbox.Mailbox, error)

// Run executes args against client for accountID, compiling the sugar query
// (or using the pre-supplied FilterJSON) and applying page-token rules.
func Run(ctx context.Context, client *jmap.Client, accountID jmap.ID, a Args, properties []string, fetchMailboxes MailboxFetcher) (*Page, error) {
	var filter sugar.Filter
	position := uint64(0)
	limit := a.Limit
	collapse := a.CollapseThreads
	ascending := a.Ascending

	if a.Cursor != "" {
		tok, err := pagetoken.DecodeSearch(a.Cursor)
		if err != nil {
			return nil, err
		}
		if err := pagetoken.CheckField("limit", fmt.Sprint(tok.Limit), fmt.Sprint(a.Limit), a.HasLimit); err != nil {
			return nil, err
		}
		if err := pagetoken.CheckField("isAscending", fmt.Sprint(tok.IsAscending), fmt.Sprint(a.Ascending), a.HasAscending); err != nil {
			return nil, err
		}
		if err := pagetoken.CheckField("collapseThreads", fmt.Sprint(tok.CollapseThreads), fmt.Sprint(a.CollapseThreads), a.HasCollapseThreads); err != nil {
			return nil, err
		}
		if a.FilterJSON != nil || a.Query != "" {
			var supplied sugar.Filter
			if a.FilterJSON != nil {
				supplied = a.FilterJSON
			} else {
				compiled, err := sugar.Compile(a.Query, func() ([]*mailbox.Mailbox, error) { return fetchMailboxes(ctx) })
				if err != nil {
					return nil, err
				}
				supplied = compiled
			}
			tokJSON, err := json.Marshal(tok.Filter)
			if err != nil {
				return nil, fmt.Errorf("xinUsageError: malformed page token: %w", err)
			}
			suppliedJSON, err := json.Marshal(supplied)
			if err != nil {
				return nil, fmt.Errorf("xinUsageError: malformed filter: %w", err)
			}
			if err := pagetoken.CheckField("filter", string(tokJSON), string(suppliedJSON), true); err != nil {
				return nil, err
			}
		}
		filter = tok.Filter
		position = tok.Position
		limit = tok.Limit
		collapse = tok.CollapseThreads
		ascending = tok.IsAscending
	} else {
		if a.FilterJSON != nil {
			filter = a.FilterJSON
		} else {
			compiled, err := sugar.Compile(a.Query, func() ([]*mailbox.Mailbox, error) { return fetchMailboxes(ctx) })
			if err != nil {
				return nil, err
			}
			filter = compiled
		}
		if limit == 0 {
			limit = DefaultLimit
		}
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	b := reqbuild.New(ctx)
	b.Invoke("query", &email.Query{
		Account:         accountID,
		Filter:          filter,
		Sort:            []*email.SortComparator{{Property: "receivedAt", IsAscending: ascending}},
		Position:        int64(position),
		Limit:           limit,
		CollapseThreads: collapse,
		CalculateTotal:  true,
	})
	b.Invoke("get", &email.Get{
		Account: accountID,
		ReferenceIDs: &jmap.ResultReference{
			ResultOf: b.Tag("query"),
			Name:     "Email/query",
			Path:     "/ids",
		},
		Properties: properties,
	})

	resp, err := b.Do(client)
	if err != nil {
		return nil, fmt.Errorf("httpError: %w", err)
	}

	queryResp, err := reqbuild.Extract[*email.QueryResponse](resp, 0, "Email/query")
	if err != nil {
		return nil, err
	}
	getResp, err := reqbuild.Extract[*email.GetResponse](resp, 1, "Email/get")
	if err != nil {
		return nil, err
	}

	page := &Page{Total: queryResp.Total, IDs: queryResp.IDs, Emails: getResp.List}

	nextPosition := position + uint64(len(queryResp.IDs))
	if hasNextPage(len(queryResp.IDs), nextPosition, queryResp.Total, limit) {
		next, err := pagetoken.EncodeSearch(pagetoken.Search{
			Position:        nextPosition,
			Limit:           limit,
			CollapseThreads: collapse,
			IsAscending:     ascending,
			Filter:          filter,
		})
		if err != nil {
			return nil, err
		}
		page.NextPage = next
	}

	return page, nil
}

// hasNextPage reports whether another page follows this one: either the
// server reported a total and we haven't reached it, or it omitted total
// (0) and this page was full, per spec.md §8's "total absent" disjunct.
func hasNextPage(idsLen int, nextPosition, total, limit uint64) bool {
	if idsLen == 0 {
		return false
	}
	if total != 0 {
		return nextPosition < total
	}
	return uint64(idsLen) == limit
}
