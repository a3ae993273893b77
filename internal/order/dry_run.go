package order

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// DryRunPlacer stands in for the venue when DRY_RUN is set. Every order is
// acknowledged as filled without leaving the process; positions therefore
// never appear and the risk engine stays idle.
type DryRunPlacer struct {
	Venue string

	// Simulated round trip, drawn uniformly from [LatencyMin, LatencyMax].
	// DRY_RUN_LATENCY_MIN_MS / DRY_RUN_LATENCY_MAX_MS; zero means instant.
	LatencyMin time.Duration
	LatencyMax time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDryRunPlacer(venue string) *DryRunPlacer {
	return &DryRunPlacer{
		Venue: venue,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *DryRunPlacer) Name() string { return d.Venue + "-dry-run" }

func (d *DryRunPlacer) PlaceMarketOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	if wait := d.latency(); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return common.OrderResult{}, ctx.Err()
		case <-t.C:
		}
	}
	id := "dry-" + uuid.NewString()
	log.Printf("dry-run: %s %s %g reduceOnly=%v tag=%s -> %s", req.Symbol, req.Side, req.Qty, req.ReduceOnly, req.Tag, id)
	return common.OrderResult{ExchangeOrderID: id, ClientID: req.ClientID, Status: common.StatusFilled}, nil
}

func (d *DryRunPlacer) latency() time.Duration {
	lo, hi := d.LatencyMin, d.LatencyMax
	if hi <= 0 {
		return lo
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return lo + time.Duration(d.rng.Int63n(int64(hi-lo)+1))
}
