package gateway

import "log/slog"

// bestEffort runs fn on its own goroutine, logging and swallowing any
// error or panic. Presence writes, audit publishes and similar side
// effects are intentionally fire-and-forget: their failure must never
// interrupt the connection path or a live session. Using one named helper
// instead of ad hoc goroutines keeps the swallow-and-log policy visible
// at every call site.
func bestEffort(op string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Best-effort operation panicked", "op", op, "panic", r)
			}
		}()
		if err := fn(); err != nil {
			slog.Error("Best-effort operation failed", "op", op, "error", err)
		}
	}()
}
