// Package reqbuild composes batched JMAP method-call requests and extracts
// typed results from the response, per spec.md §4.4. It is a thin layer
// over github.com/mikluko/jmap's *jmap.Request/*jmap.Response — the
// underlying client already computes the capability ("using") superset
// from the invoked method types, so this package's job is purely ergonomic:
// stable tag tracking for back-references, and response extraction by
// method name (falling back to response error surfacing).
package reqbuild

import (
	"context"
	"fmt"

	"github.com/mikluko/jmap"
)

// Batch wraps a *jmap.Request, remembering the tag of each invoked method
// by name so later stages can build back-references without re-deriving
// tags ad hoc.
type Batch struct {
	req  *jmap.Request
	tags map[string]jmap.ID
}

// New starts a new batch bound to ctx.
func New(ctx context.Context) *Batch {
	return &Batch{req: &jmap.Request{Context: ctx}, tags: map[string]jmap.ID{}}
}

// Invoke adds a method call to the batch and records its tag under label
// (a caller-chosen name distinct from the JMAP method name, e.g. "query",
// "get-created") for later back-reference construction via Tag.
func (b *Batch) Invoke(label string, method any) {
	tag := b.req.Invoke(method)
	b.tags[label] = jmap.ID(fmt.Sprint(tag))
}

// Tag returns the tag recorded for label, or "" if none was invoked under
// that label.
func (b *Batch) Tag(label string) jmap.ID {
	return b.tags[label]
}

// Request returns the underlying *jmap.Request for Do().
func (b *Batch) Request() *jmap.Request { return b.req }

// Do executes the batch against client.
func (b *Batch) Do(client *jmap.Client) (*jmap.Response, error) {
	return client.Do(b.req)
}

// Extract finds the response tuple at position index whose method name
// equals methodName and type-asserts its Args into T. A position mismatch
// or wrong type yields a jmapRequestError-flavored error naming the
// expected method.
func Extract[T any](resp *jmap.Response, index int, methodName string) (T, error) {
	var zero T
	if resp == nil || index >= len(resp.Responses) {
		return zero, fmt.Errorf("jmapRequestError: missing expected response for %s", methodName)
	}
	inv := resp.Responses[index]
	if inv.Name != methodName {
		return zero, fmt.Errorf("jmapRequestError: expected response for %s, got %s", methodName, inv.Name)
	}
	if me, ok := inv.Args.(*jmap.MethodError); ok {
		return zero, fmt.Errorf("jmapRequestError: %s failed: %s", methodName, me.Type)
	}
	typed, ok := inv.Args.(T)
	if !ok {
		return zero, fmt.Errorf("jmapRequestError: unexpected response type for %s: %T", methodName, inv.Args)
	}
	return typed, nil
}
