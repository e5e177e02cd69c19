// Package poller implements the HTTP fetch client and the per-endpoint
// tick coordinator.
//
// The package is deliberately generic: it knows how to run a rendered
// request and how to drive a tick loop, but nothing about templates,
// extraction, or entities. The pipeline that composes those steps lives in
// the root package and is injected as a [TickFunc], keeping this package
// free of circular dependencies.
//
// Concurrency model: one Coordinator (one goroutine, one timer) per
// endpoint. A tick runs synchronously in its loop goroutine, so ticks for
// the same endpoint never overlap and results publish in tick order, while
// distinct endpoints poll fully concurrently.
package poller
