package httpagent

import (
	"errors"
	"log/slog"
)

// Option configures an [Agent] during construction with [New].
type Option func(*Agent) error

// WithEntry adds one configuration entry to the agent.
func WithEntry(e *Entry) Option {
	return func(a *Agent) error {
		if e == nil {
			return errors.New("entry cannot be nil")
		}
		a.entries = append(a.entries, e)
		return nil
	}
}

// WithEntries adds multiple configuration entries to the agent.
func WithEntries(entries []*Entry) Option {
	return func(a *Agent) error {
		for _, e := range entries {
			if e == nil {
				return errors.New("entry cannot be nil")
			}
		}
		a.entries = append(a.entries, entries...)
		return nil
	}
}

// WithPublisher sets the host platform publisher shared by all entries.
// Defaults to a [LogPublisher].
func WithPublisher(p Publisher) Option {
	return func(a *Agent) error {
		if p == nil {
			return errors.New("publisher cannot be nil")
		}
		a.publisher = p
		return nil
	}
}

// WithLogger sets the structured logger used by the agent and its entries.
// Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}

// WithAPIPort enables the diagnostics HTTP API on the given port. The API
// serves current entity states as JSON and a live SSE event stream. Zero
// (the default) disables it.
func WithAPIPort(port int) Option {
	return func(a *Agent) error {
		if port < 0 || port > 65535 {
			return errors.New("api port must be between 0 and 65535")
		}
		a.apiPort = port
		return nil
	}
}
