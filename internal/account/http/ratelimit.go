package http

import (
	"sync"

	"golang.org/x/time/rate"
)

// resendLimiter throttles verification-email resends per uid. One email a
// minute with a small burst matches the provider's own throttling closely
// enough to avoid TOO_MANY_ATTEMPTS round trips.
type resendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newResendLimiter() *resendLimiter {
	return &resendLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(1.0 / 60.0),
		burst:    3,
	}
}

func (l *resendLimiter) Allow(uid string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[uid]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[uid] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
