package common

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing requests and tracks venue-reported usage.
// Pacing uses a token bucket; usage comes from response headers when the
// venue reports weight (Binance), otherwise from the local request count.
type RateLimiter struct {
	bucket *rate.Limiter

	usedWeight    int
	limit         int
	lastReset     time.Time
	resetInterval time.Duration
	mu            sync.RWMutex
}

// NewRateLimiter creates a limiter allowing limit units per resetInterval.
// limit: e.g. 2400 weight/min for Binance futures, 20 req/2s for OKX private
// endpoints.
func NewRateLimiter(limit int, resetInterval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	every := resetInterval / time.Duration(limit)
	burst := limit / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		bucket:        rate.NewLimiter(rate.Every(every), burst),
		limit:         limit,
		resetInterval: resetInterval,
		lastReset:     time.Now(),
	}
}

// Wait blocks until a request may be sent or ctx is done. When the
// venue-reported usage is close to the limit it also waits for the window
// to roll over.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.ShouldDelay() {
		rl.mu.RLock()
		remaining := rl.resetInterval - time.Since(rl.lastReset)
		rl.mu.RUnlock()
		if remaining > 0 {
			t := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	if err := rl.bucket.Wait(ctx); err != nil {
		return err
	}
	rl.mu.Lock()
	rl.rollLocked()
	rl.usedWeight++
	rl.mu.Unlock()
	return nil
}

// UpdateFromHeader replaces the local count with the venue-reported weight.
func (rl *RateLimiter) UpdateFromHeader(headerValue string) {
	if headerValue == "" {
		return
	}

	weight, err := strconv.Atoi(headerValue)
	if err != nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.rollLocked()
	rl.usedWeight = weight

	percentage := float64(rl.usedWeight) / float64(rl.limit) * 100
	if percentage >= 95 {
		log.Printf("rate limit critical: %d/%d (%.1f%%) - approaching ban threshold", rl.usedWeight, rl.limit, percentage)
	} else if percentage >= 80 {
		log.Printf("rate limit warning: %d/%d (%.1f%%)", rl.usedWeight, rl.limit, percentage)
	}
}

func (rl *RateLimiter) rollLocked() {
	if time.Since(rl.lastReset) >= rl.resetInterval {
		rl.usedWeight = 0
		rl.lastReset = time.Now()
	}
}

// GetUsage returns current usage information.
func (rl *RateLimiter) GetUsage() (used int, limit int, percentage float64) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if time.Since(rl.lastReset) >= rl.resetInterval {
		return 0, rl.limit, 0
	}

	return rl.usedWeight, rl.limit, float64(rl.usedWeight) / float64(rl.limit) * 100
}

// ShouldDelay returns true if we should delay the next request.
func (rl *RateLimiter) ShouldDelay() bool {
	_, _, pct := rl.GetUsage()
	return pct >= 90
}
