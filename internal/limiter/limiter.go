// Package limiter provides the per-session token bucket used to pace
// message delivery. It never bans or disconnects a session; it only
// makes an outbound drain loop wait its turn, which is what the "soft
// bound" on a session's outbound queue amounts to.
package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// SessionLimiter paces one session's outbound frame delivery.
type SessionLimiter struct {
	rl *rate.Limiter
}

// New builds a limiter allowing eventsPerSecond sustained, with burst
// extra frames absorbed instantly.
func New(eventsPerSecond float64, burst int) *SessionLimiter {
	return &SessionLimiter{rl: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

// Wait blocks until the limiter admits one frame or ctx is done. A
// canceled context (session draining, shutdown deadline) unblocks it
// immediately with ctx.Err().
func (s *SessionLimiter) Wait(ctx context.Context) error {
	return s.rl.Wait(ctx)
}
