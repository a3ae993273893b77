package futures_usdt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

func sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func mapStatus(s string) common.OrderStatus {
	switch strings.ToUpper(s) {
	case "NEW":
		return common.StatusNew
	case "PARTIALLY_FILLED":
		return common.StatusPartial
	case "FILLED":
		return common.StatusFilled
	case "CANCELED":
		return common.StatusCanceled
	case "REJECTED":
		return common.StatusRejected
	case "EXPIRED":
		return common.StatusExpired
	default:
		return common.StatusUnknown
	}
}

// settleAssets are the quote assets USDT-M symbols may end with.
var settleAssets = []string{"USDT", "USDC", "BUSD"}

// toVenueSymbol maps BTC/USDT:USDT to BTCUSDT.
func toVenueSymbol(symbol string) (string, error) {
	ins, err := common.ParseSymbol(symbol)
	if err != nil {
		return "", err
	}
	return ins.Base + ins.Quote, nil
}

// fromVenueSymbol maps BTCUSDT back to BTC/USDT:USDT.
func fromVenueSymbol(s string) string {
	s = strings.ToUpper(s)
	for _, q := range settleAssets {
		if base, ok := strings.CutSuffix(s, q); ok && base != "" {
			return fmt.Sprintf("%s/%s:%s", base, q, q)
		}
	}
	return s
}

func toMarginType(m common.MarginMode) string {
	if m == common.MarginIsolated {
		return "ISOLATED"
	}
	return "CROSSED"
}
