package okx

import (
	"encoding/json"
	"strconv"
	"strings"
)

// envelope is the v5 response wrapper; code "0" means success.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type positionRow struct {
	InstID  string `json:"instId"`
	PosSide string `json:"posSide"`
	Pos     string `json:"pos"`
	AvgPx   string `json:"avgPx"`
	MarkPx  string `json:"markPx"`
	Upl     string `json:"upl"`
	Imr     string `json:"imr"`
	Margin  string `json:"margin"`
	MgnMode string `json:"mgnMode"`
}

type instrumentRow struct {
	InstID string `json:"instId"`
	CtVal  string `json:"ctVal"`
	LotSz  string `json:"lotSz"`
	MinSz  string `json:"minSz"`
}

type tickerRow struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

type orderBody struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"`
	Side       string `json:"side"`
	OrdType    string `json:"ordType"`
	Sz         string `json:"sz"`
	ReduceOnly bool   `json:"reduceOnly,omitempty"`
	Tag        string `json:"tag,omitempty"`
	ClOrdID    string `json:"clOrdId,omitempty"`
}

type orderAck struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

type timeRow struct {
	Ts string `json:"ts"`
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
