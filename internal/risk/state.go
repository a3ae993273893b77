package risk

import "sync"

// Snapshot is a consistent read of a symbol's risk state. Nil means unset.
type Snapshot struct {
	InitialStop *float64 `json:"initial_stop_price"`
	PeakPnl     *float64 `json:"peak_pnl"`
}

// State is the per-symbol pair shared by the entry loop and the risk
// engine. Every access goes through its mutex so the pair is never read
// torn.
type State struct {
	mu          sync.Mutex
	initialStop *float64
	peakPnl     *float64
}

// Snapshot returns copies of both fields.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{InitialStop: clone(s.initialStop), PeakPnl: clone(s.peakPnl)}
}

// SetInitialStop stores the stop price for the current episode.
func (s *State) SetInitialStop(price float64) {
	s.mu.Lock()
	s.initialStop = &price
	s.mu.Unlock()
}

// HasInitialStop reports whether a stop price is stored.
func (s *State) HasInitialStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialStop != nil
}

// ObservePnl folds pnl into the running peak and returns the new peak.
// The peak never decreases until Reset.
func (s *State) ObservePnl(pnl float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peakPnl == nil || pnl > *s.peakPnl {
		p := pnl
		s.peakPnl = &p
	}
	return *s.peakPnl
}

// Reset clears both fields. Safe to call repeatedly.
func (s *State) Reset() {
	s.mu.Lock()
	s.initialStop = nil
	s.peakPnl = nil
	s.mu.Unlock()
}

func clone(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Book holds one State per tracked symbol. It is filled at startup and
// only read afterwards, so lookups need no lock.
type Book struct {
	states map[string]*State
}

func NewBook(symbols []string) *Book {
	b := &Book{states: make(map[string]*State, len(symbols))}
	for _, s := range symbols {
		b.states[s] = &State{}
	}
	return b
}

// Get returns the state for symbol, or nil if it is not tracked.
func (b *Book) Get(symbol string) *State {
	return b.states[symbol]
}

// Symbols lists tracked symbols in no particular order.
func (b *Book) Symbols() []string {
	out := make([]string, 0, len(b.states))
	for s := range b.states {
		out = append(out, s)
	}
	return out
}
