package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles sign-in attempts per client key, usually the remote
// IP. Each key gets its own rate.Limiter; keys idle for longer than the
// expiry are evicted in the background until Stop is called.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int

	done     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginLimiter allows burst attempts per key, refilled at perSecond. A
// zero perSecond never refills.
func NewLoginLimiter(perSecond float64, burst int) *LoginLimiter {
	l := &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		done:     make(chan struct{}),
	}
	go l.cleanupLoop(5*time.Minute, 10*time.Minute)
	return l
}

// Allow consumes one attempt for key and reports whether it was available.
func (l *LoginLimiter) Allow(key string) bool {
	return l.limiterFor(key).Allow()
}

func (l *LoginLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

// Len reports how many keys are currently tracked.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *LoginLimiter) cleanupLoop(every, expiry time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.prune(now.Add(-expiry))
		}
	}
}

// prune drops limiters last used before cutoff.
func (l *LoginLimiter) prune(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}
