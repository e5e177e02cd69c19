package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TickFunc runs one complete poll cycle for one endpoint: render, fetch,
// extract, resolve, publish. Failures are handled inside the tick; the
// returned error is purely informational for logging.
type TickFunc func(ctx context.Context) error

// Coordinator drives the poll loop for a single endpoint.
//
// Each endpoint owns one Coordinator with one timer. The tick function runs
// synchronously inside the loop goroutine, which gives two guarantees for
// free: ticks for the same endpoint never overlap, and results are
// published in tick order. Endpoints run concurrently with respect to each
// other because each has its own Coordinator.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Coordinator struct {
	name     string
	interval time.Duration
	tick     TickFunc
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator creates a poll [Coordinator] for one endpoint.
//
// The name appears in log records. The interval is fixed; there is no
// backoff, the next scheduled tick is the retry mechanism.
func NewCoordinator(name string, interval time.Duration, tick TickFunc, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		name:     name,
		interval: interval,
		tick:     tick,
		logger:   logger,
	}
}

// Start begins the poll loop in a background goroutine.
//
// Start is non-blocking. The loop ticks immediately, then at the configured
// interval, until [Coordinator.Stop] is called or the context is cancelled.
// Start is idempotent; calls after the first (or after Stop) are no-ops.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		c.runTick(loopCtx)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				c.runTick(loopCtx)
			}
		}
	}()
}

// Stop cancels pending and future ticks and waits for the loop to exit.
//
// An in-flight fetch is bounded by its own timeout plus context
// cancellation, so Stop never blocks longer than that. Stop is idempotent
// and safe to call before Start.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		if c.cancel != nil {
			c.cancel()
		}
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// runTick executes one tick with panic recovery. A panicking tick (e.g. a
// pathological response blowing up extraction) must not kill the endpoint's
// loop or the process; it is logged with a correlation ID and the loop
// continues at the next interval.
func (c *Coordinator) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("tick panic",
				"endpoint", c.name,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := c.tick(ctx); err != nil {
		c.logger.Warn("tick completed with error", "endpoint", c.name, "error", err)
	}
}
