package sizing

import (
	"context"
	"errors"
	"testing"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

type fakeMarket struct {
	market    common.Market
	marketErr error
	price     float64
	priceErr  error
}

func (f fakeMarket) MarketInfo(context.Context, string) (common.Market, error) {
	return f.market, f.marketErr
}

func (f fakeMarket) LastPrice(context.Context, string) (float64, error) {
	return f.price, f.priceErr
}

func TestSize(t *testing.T) {
	tests := []struct {
		name    string
		md      fakeMarket
		usdt    float64
		lev     int
		want    float64
		wantErr bool
	}{
		{name: "okx btc", md: fakeMarket{market: common.Market{ContractSize: 0.01}, price: 50000}, usdt: 100, lev: 5, want: 1.0},
		{name: "missing contract size defaults to 1", md: fakeMarket{price: 2000}, usdt: 100, lev: 2, want: 0.1},
		{name: "rounds to 8 places", md: fakeMarket{market: common.Market{ContractSize: 1}, price: 3}, usdt: 1, lev: 1, want: 0.33333333},
		{name: "zero price", md: fakeMarket{market: common.Market{ContractSize: 1}, price: 0}, usdt: 100, lev: 5, wantErr: true},
		{name: "negative price", md: fakeMarket{price: -1}, usdt: 100, lev: 5, wantErr: true},
		{name: "missing metadata", md: fakeMarket{marketErr: errors.New("instrument not found"), price: 50000}, usdt: 100, lev: 5, wantErr: true},
		{name: "ticker failure", md: fakeMarket{priceErr: errors.New("timeout")}, usdt: 100, lev: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.md).Size(context.Background(), "BTC/USDT:USDT", tt.usdt, tt.lev)
			if tt.wantErr {
				var se *SizingError
				if !errors.As(err, &se) {
					t.Fatalf("expected SizingError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Size: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSizingErrorUnwraps(t *testing.T) {
	cause := errors.New("instrument not found")
	_, err := New(fakeMarket{marketErr: cause}).Size(context.Background(), "X", 100, 5)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap, got %v", err)
	}
}
