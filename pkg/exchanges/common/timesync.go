package common

import (
	"context"
	"log"
	"sync"
	"time"
)

// TimeSync keeps the offset between local clock and an exchange server.
// Signed requests are rejected when the timestamp drifts, so both venue
// clients stamp requests with Now().
type TimeSync struct {
	getServerTime func(ctx context.Context) (time.Time, error)
	offset        time.Duration // server - local
	lastSync      time.Time
	syncInterval  time.Duration
	mu            sync.RWMutex
}

// NewTimeSync creates a new time synchronization manager.
func NewTimeSync(getServerTime func(ctx context.Context) (time.Time, error)) *TimeSync {
	return &TimeSync{
		getServerTime: getServerTime,
		syncInterval:  30 * time.Minute,
	}
}

// Start syncs once and then periodically until ctx is done.
func (ts *TimeSync) Start(ctx context.Context) {
	if err := ts.Sync(ctx); err != nil {
		log.Printf("initial time sync failed: %v", err)
	}

	go func() {
		ticker := time.NewTicker(ts.syncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ts.Sync(ctx); err != nil {
					log.Printf("time sync failed: %v", err)
				}
			}
		}
	}()
}

// Sync synchronizes with server time.
func (ts *TimeSync) Sync(ctx context.Context) error {
	before := time.Now()
	serverTime, err := ts.getServerTime(ctx)
	if err != nil {
		return err
	}
	after := time.Now()

	// Assume network latency is symmetric
	local := before.Add(after.Sub(before) / 2)

	ts.mu.Lock()
	ts.offset = serverTime.Sub(local)
	ts.lastSync = time.Now()
	offset := ts.offset
	ts.mu.Unlock()

	log.Printf("time sync: offset=%dms", offset.Milliseconds())
	return nil
}

// Now returns current time adjusted for server offset.
func (ts *TimeSync) Now() time.Time {
	if ts == nil {
		return time.Now()
	}
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return time.Now().Add(ts.offset)
}

// Offset returns the current time offset.
func (ts *TimeSync) Offset() time.Duration {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.offset
}
