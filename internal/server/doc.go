// Package server exposes the engine's entity states over HTTP: a JSON
// snapshot endpoint and a Server-Sent Events stream for live updates.
// It is a diagnostics surface, not the host platform integration; values
// reach the host platform through the Publisher contract.
package server
