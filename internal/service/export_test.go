package service

import "time"

// Prune exposes limiter eviction to tests.
func (l *LoginLimiter) Prune(cutoff time.Time) { l.prune(cutoff) }
