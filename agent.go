package httpagent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/httpagent/httpagent/internal/poller"
	"github.com/httpagent/httpagent/internal/server"
	"github.com/httpagent/httpagent/internal/state"
)

// Agent runs a set of configuration entries against one shared publisher,
// HTTP client, and state registry.
//
// Each entry polls independently on its own interval; the agent owns their
// lifecycle and the optional diagnostics API. Agents are created with [New]
// and configured using the functional options pattern:
//
//	agent, err := httpagent.New(
//	    httpagent.WithEntries(entries),
//	    httpagent.WithPublisher(pub),
//	    httpagent.WithAPIPort(8844),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := agent.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
type Agent struct {
	entries   []*Entry
	publisher Publisher
	logger    *slog.Logger
	apiPort   int

	registry *state.Registry
	client   *poller.Client
}

// New creates an [Agent] from the given options.
//
// At least one entry is required. The publisher defaults to a
// [LogPublisher] and the logger to [slog.Default]. The diagnostics API is
// disabled unless [WithAPIPort] is given.
func New(opts ...Option) (*Agent, error) {
	a := &Agent{}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if len(a.entries) == 0 {
		return nil, errors.New("agent requires at least one entry")
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.publisher == nil {
		a.publisher = NewLogPublisher(a.logger)
	}

	a.registry = state.NewRegistry()
	a.client = poller.NewClient()
	return a, nil
}

// Entries returns the agent's entries, e.g. for reconfiguring one via
// [Entry.Apply].
func (a *Agent) Entries() []*Entry {
	out := make([]*Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Start runs the agent until the context is cancelled.
//
// Start is blocking: it binds and starts every entry, serves the
// diagnostics API if configured, and on cancellation stops all entries
// before returning. Stopping does not unregister entities; use
// [Entry.Teardown] to remove an entry's entities from the host platform.
func (a *Agent) Start(ctx context.Context) error {
	if a.apiPort > 0 {
		srv := server.NewServer(a.registry, a.apiPort, a.logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		a.logger.Info("diagnostics api listening", "port", a.apiPort)
	}

	started := make([]*Entry, 0, len(a.entries))
	for _, e := range a.entries {
		e.bind(a.registry, a.publisher, a.client, a.logger)
		if err := e.Start(ctx); err != nil {
			for _, s := range started {
				s.Stop()
			}
			a.client.Close()
			return err
		}
		started = append(started, e)
		a.logger.Info("entry started",
			"entry", e.Name(),
			"entities", len(e.IDs()),
		)
	}

	<-ctx.Done()

	a.logger.Info("shutting down", "entries", len(a.entries))
	for _, e := range a.entries {
		e.Stop()
	}
	a.client.Close()
	return nil
}
