package analysis

import (
	"encoding/json"
	"fmt"
)

// Signal is the entry recommendation.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

func (s *Signal) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, (*string)(s), "signal", "buy", "sell", "hold")
}

// Direction maps a buy/sell signal to the position it opens.
func (s Signal) Direction() (Direction, bool) {
	switch s {
	case SignalBuy:
		return DirectionLong, true
	case SignalSell:
		return DirectionShort, true
	default:
		return "", false
	}
}

// Confidence is the source's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c *Confidence) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, (*string)(c), "confidence", "high", "medium", "low")
}

// Trend is the source's market trend reading.
type Trend string

const (
	TrendRising        Trend = "rising"
	TrendFalling       Trend = "falling"
	TrendSideways      Trend = "sideways"
	TrendStrongRising  Trend = "strong_rising"
	TrendStrongFalling Trend = "strong_falling"
)

func (t *Trend) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, (*string)(t), "trend", "rising", "falling", "sideways", "strong_rising", "strong_falling")
}

// Direction is the position side passed to the stop-loss endpoint.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// EntrySignal is the body of the swap analysis endpoint.
type EntrySignal struct {
	Signal     Signal     `json:"signal"`
	Reason     string     `json:"reason"`
	Confidence Confidence `json:"confidence"`
	Trend      Trend      `json:"trend"`
}

func (s EntrySignal) String() string {
	return fmt.Sprintf("signal=%s confidence=%s trend=%s reason=%q", s.Signal, s.Confidence, s.Trend, s.Reason)
}

// StopRecommendation is the body of the stop-loss endpoint.
type StopRecommendation struct {
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	Reason     string     `json:"reason"`
	Confidence Confidence `json:"confidence"`
}

func (s StopRecommendation) String() string {
	return fmt.Sprintf("stop_loss=%g take_profit=%g confidence=%s reason=%q", s.StopLoss, s.TakeProfit, s.Confidence, s.Reason)
}

// decodeEntrySignal requires every field to be present.
func decodeEntrySignal(body []byte) (EntrySignal, error) {
	var raw struct {
		Signal     *Signal     `json:"signal"`
		Reason     *string     `json:"reason"`
		Confidence *Confidence `json:"confidence"`
		Trend      *Trend      `json:"trend"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return EntrySignal{}, err
	}
	switch {
	case raw.Signal == nil:
		return EntrySignal{}, missing("signal")
	case raw.Reason == nil:
		return EntrySignal{}, missing("reason")
	case raw.Confidence == nil:
		return EntrySignal{}, missing("confidence")
	case raw.Trend == nil:
		return EntrySignal{}, missing("trend")
	}
	return EntrySignal{Signal: *raw.Signal, Reason: *raw.Reason, Confidence: *raw.Confidence, Trend: *raw.Trend}, nil
}

func decodeStopRecommendation(body []byte) (StopRecommendation, error) {
	var raw struct {
		StopLoss   *float64    `json:"stop_loss"`
		TakeProfit *float64    `json:"take_profit"`
		Reason     *string     `json:"reason"`
		Confidence *Confidence `json:"confidence"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return StopRecommendation{}, err
	}
	switch {
	case raw.StopLoss == nil:
		return StopRecommendation{}, missing("stop_loss")
	case raw.TakeProfit == nil:
		return StopRecommendation{}, missing("take_profit")
	case raw.Reason == nil:
		return StopRecommendation{}, missing("reason")
	case raw.Confidence == nil:
		return StopRecommendation{}, missing("confidence")
	}
	if *raw.StopLoss <= 0 {
		return StopRecommendation{}, fmt.Errorf("stop_loss must be positive, got %g", *raw.StopLoss)
	}
	return StopRecommendation{StopLoss: *raw.StopLoss, TakeProfit: *raw.TakeProfit, Reason: *raw.Reason, Confidence: *raw.Confidence}, nil
}

func unmarshalEnum(b []byte, dst *string, field string, allowed ...string) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, a := range allowed {
		if v == a {
			*dst = v
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q", field, v)
}

func missing(field string) error {
	return fmt.Errorf("field %s missing", field)
}
