// Package gateway builds the venue client selected by configuration.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
	exfutusdt "github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/binance/futures_usdt"
	exchange "github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/okx"
)

// Venue is a gateway together with its server clock.
type Venue struct {
	Gateway exchange.Gateway
	Clock   *exchange.TimeSync
	// ServerTime queries the venue's public time endpoint.
	ServerTime func(ctx context.Context) (time.Time, error)
}

// New creates the gateway named by cfg.Exchange.
func New(cfg *config.Config) (Venue, error) {
	switch cfg.Exchange {
	case "okx":
		c := okx.NewClient(okx.Config{
			APIKey:     cfg.OKXAPIKey,
			APISecret:  cfg.OKXSecret,
			Passphrase: cfg.OKXPassword,
			Simulated:  cfg.OKXSimulated,
		})
		return Venue{Gateway: c, Clock: c.TimeSync(), ServerTime: c.GetServerTime}, nil

	case "binance":
		c := exfutusdt.NewClient(exfutusdt.Config{
			APIKey:    cfg.BinanceUSDTKey,
			APISecret: cfg.BinanceUSDTSecret,
			Testnet:   cfg.BinanceTestnet,
		})
		return Venue{Gateway: c, Clock: c.TimeSync(), ServerTime: c.GetServerTime}, nil

	default:
		return Venue{}, fmt.Errorf("unsupported exchange: %s", cfg.Exchange)
	}
}
