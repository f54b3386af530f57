// Package watch implements the long-lived polling loop that turns
// Email/changes into a stream of NDJSON events, per spec.md §4.11.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/mikluko/jmap"

	"github.com/mikluko/xin/internal/config"
	"github.com/mikluko/xin/internal/history"
)

// Options configures one watch run.
type Options struct {
	Since       string
	Cursor      string
	Checkpoint  string
	MaxChanges  uint64
	IntervalMS  int
	JitterMS    int
	Once        bool
	Hydrate     bool
	NoEnvelope  bool
}

// Event is one NDJSON line. Type selects which of the optional fields are
// populated; zero-value fields are omitted by the json tags below.
type Event struct {
	Type   string    `json:"type"`
	Reason string    `json:"reason,omitempty"`

	Created   []jmap.ID `json:"created,omitempty"`
	Updated   []jmap.ID `json:"updated,omitempty"`
	Destroyed []jmap.ID `json:"destroyed,omitempty"`

	NewState string `json:"newState,omitempty"`

	Message string `json:"message,omitempty"`
}

// Run drives the poll/sleep loop until ctx is cancelled, --once is
// satisfied, or an error terminates it. Events are written as NDJSON to w,
// one flushed line per event.
func Run(ctx context.Context, client *jmap.Client, accountID jmap.ID, opts Options, w io.Writer) error {
	enc := json.NewEncoder(w)

	cursor, err := resolveStartCursor(opts)
	if err != nil {
		emit(enc, Event{Type: "error", Message: err.Error()})
		return err
	}

	if err := emit(enc, Event{Type: "ready"}); err != nil {
		return err
	}

	sinceState := cursor
	if sinceState == "" {
		boot, err := history.Bootstrap(ctx, client, accountID)
		if err != nil {
			emit(enc, Event{Type: "error", Message: err.Error()})
			return err
		}
		sinceState = boot.NewState
		if err := writeCheckpoint(opts.Checkpoint, sinceState); err != nil {
			emit(enc, Event{Type: "error", Message: err.Error()})
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			emit(enc, Event{Type: "stopped", Reason: "ctrl_c"})
			return nil
		default:
		}

		res, err := history.Run(ctx, client, accountID, history.Args{
			Since:      sinceState,
			MaxChanges: opts.MaxChanges,
			Hydrate:    opts.Hydrate,
		})
		if err != nil {
			emit(enc, Event{Type: "error", Message: err.Error()})
			return err
		}

		if len(res.Created)+len(res.Updated)+len(res.Destroyed) > 0 {
			if err := emit(enc, Event{
				Type: "tick", Created: res.Created, Updated: res.Updated, Destroyed: res.Destroyed, NewState: res.NewState,
			}); err != nil {
				return err
			}
			for _, id := range res.Created {
				emit(enc, Event{Type: "email.change", Created: []jmap.ID{id}})
			}
			for _, id := range res.Updated {
				emit(enc, Event{Type: "email.change", Updated: []jmap.ID{id}})
			}
			for _, id := range res.Destroyed {
				emit(enc, Event{Type: "email.change", Destroyed: []jmap.ID{id}})
			}
			if opts.Hydrate && (len(res.HydratedCreated) > 0 || len(res.HydratedUpdated) > 0) {
				emit(enc, Event{Type: "email.hydrated"})
			}
		}

		sinceState = res.NewState
		if err := writeCheckpoint(opts.Checkpoint, sinceState); err != nil {
			emit(enc, Event{Type: "error", Message: err.Error()})
			return err
		}

		if res.HasMoreChanges {
			continue
		}

		if opts.Once {
			return nil
		}

		if err := sleepWithJitter(ctx, opts.IntervalMS, opts.JitterMS); err != nil {
			emit(enc, Event{Type: "stopped", Reason: "ctrl_c"})
			return nil
		}
	}
}

func resolveStartCursor(opts Options) (string, error) {
	if opts.Cursor != "" {
		return opts.Cursor, nil
	}
	if opts.Checkpoint != "" {
		if s, err := config.ReadLine(opts.Checkpoint); err == nil && s != "" {
			return s, nil
		}
	}
	return opts.Since, nil
}

func writeCheckpoint(path, state string) error {
	if path == "" {
		return nil
	}
	return config.WriteLine(path, state)
}

// sleepWithJitter blocks for intervalMS + a random fraction of jitterMS, or
// returns early with an error if ctx is cancelled first.
func sleepWithJitter(ctx context.Context, intervalMS, jitterMS int) error {
	d := time.Duration(intervalMS) * time.Millisecond
	if jitterMS > 0 {
		d += time.Duration(rand.Int63n(int64(jitterMS))) * time.Millisecond
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func emit(enc *json.Encoder, e Event) error {
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("writing NDJSON event: %w", err)
	}
	return nil
}
