package risk

import (
	"errors"
	"testing"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

func ptr(v float64) *float64 { return &v }

func TestEvaluateLadder(t *testing.T) {
	long := func(pnl, mark float64) common.Position {
		return common.Position{Symbol: "BTC/USDT:USDT", Side: common.PositionLong, Contracts: 1, UnrealizedPnl: pnl, InitialMargin: 100, MarkPrice: mark}
	}
	short := func(pnl, mark float64) common.Position {
		p := long(pnl, mark)
		p.Side = common.PositionShort
		return p
	}

	tests := []struct {
		name   string
		pos    common.Position
		stop   *float64
		peak   float64
		close  bool
		reason ExitReason
	}{
		{"hard stop at -20%", long(-20, 49000), nil, -20, true, ExitHardStop},
		{"hard stop ignores tier 2 peak", long(-25, 49000), nil, 150, true, ExitHardStop},
		{"hard stop wins over initial stop", long(-30, 47000), ptr(48000), 5, true, ExitHardStop},
		{"just above hard stop", long(-19.9, 49000), nil, -19.9, false, ""},
		{"long crosses initial stop", long(-5, 47900), ptr(48000), 10, true, ExitInitialStop},
		{"long touches initial stop", long(-5, 48000), ptr(48000), 10, true, ExitInitialStop},
		{"long above initial stop", long(-5, 48100), ptr(48000), 10, false, ""},
		{"short crosses initial stop", short(-5, 52100), ptr(52000), 0, true, ExitInitialStop},
		{"short below initial stop", short(-5, 51900), ptr(52000), 0, false, ""},
		{"no stop stored", long(-5, 1), nil, 10, false, ""},
		{"initial stop off in tier 1", long(19, 47000), ptr(48000), 20, false, ""},
		{"tier 1 keeps 81% of peak", long(40.5, 50000), nil, 50, false, ""},
		{"tier 1 closes at 80% of peak", long(39.9, 50000), nil, 50, true, ExitTier1Trailing},
		{"tier 1 upper bound", long(79, 50000), nil, 99.9, true, ExitTier1Trailing},
		{"tier 2 keeps 76% of peak", long(152, 50000), nil, 200, false, ""},
		{"tier 2 closes at 75% of peak", long(150, 50000), nil, 200, true, ExitTier2Trailing},
		{"tier 2 starts at 100%", long(80, 50000), nil, 100, false, ""},
		{"tier 2 at peak", long(100, 50000), nil, 100, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Evaluate(tt.pos, tt.stop, tt.peak)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if d.Close != tt.close || d.Reason != tt.reason {
				t.Fatalf("got close=%v reason=%q, want close=%v reason=%q (%+v)", d.Close, d.Reason, tt.close, tt.reason, d)
			}
		})
	}
}

func TestEvaluateRatios(t *testing.T) {
	pos := common.Position{Side: common.PositionLong, Contracts: 1, UnrealizedPnl: 60, InitialMargin: 200}
	d, err := Evaluate(pos, nil, 80)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.PnlRatio != 0.3 || d.MaxPnlRatio != 0.4 {
		t.Fatalf("ratios %v %v", d.PnlRatio, d.MaxPnlRatio)
	}
}

func TestEvaluateWithoutMargin(t *testing.T) {
	for _, margin := range []float64{0, -1} {
		_, err := Evaluate(common.Position{Contracts: 1, UnrealizedPnl: 5, InitialMargin: margin}, nil, 5)
		if !errors.Is(err, ErrNoMargin) {
			t.Fatalf("margin %v: expected ErrNoMargin, got %v", margin, err)
		}
	}
}

func TestStatePeakIsMonotonic(t *testing.T) {
	var s State
	if snap := s.Snapshot(); snap.PeakPnl != nil || snap.InitialStop != nil {
		t.Fatalf("fresh state should be empty: %+v", snap)
	}
	want := []float64{-5, 10, 10, 30, 30}
	for i, pnl := range []float64{-5, 10, 3, 30, -50} {
		if got := s.ObservePnl(pnl); got != want[i] {
			t.Fatalf("step %d: peak=%v want %v", i, got, want[i])
		}
	}
	s.SetInitialStop(48000)
	if !s.HasInitialStop() {
		t.Fatalf("stop should be set")
	}
	s.Reset()
	s.Reset()
	if snap := s.Snapshot(); snap.PeakPnl != nil || snap.InitialStop != nil {
		t.Fatalf("reset should clear both fields: %+v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	var s State
	s.SetInitialStop(100)
	snap := s.Snapshot()
	*snap.InitialStop = 1
	if got := *s.Snapshot().InitialStop; got != 100 {
		t.Fatalf("snapshot leaked internal pointer: %v", got)
	}
}
