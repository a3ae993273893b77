package analysis

import "fmt"

// SourceError is any failed signal source call: transport failure,
// non-2xx status or a malformed body. No order is placed on the tick that
// sees one.
type SourceError struct {
	Symbol   string
	Endpoint string
	Status   int // 0 when no response was received
	Err      error
}

func (e *SourceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("signal source %s %s: status %d: %v", e.Endpoint, e.Symbol, e.Status, e.Err)
	}
	return fmt.Sprintf("signal source %s %s: %v", e.Endpoint, e.Symbol, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
