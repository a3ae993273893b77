package gateway

import (
	"testing"

	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
)

func TestNewSelectsVenue(t *testing.T) {
	for _, name := range []string{"okx", "binance"} {
		v, err := New(&config.Config{Exchange: name})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if v.Gateway.Name() != name || v.Clock == nil || v.ServerTime == nil {
			t.Fatalf("%s: incomplete venue %+v", name, v)
		}
	}
	if _, err := New(&config.Config{Exchange: "kraken"}); err == nil {
		t.Fatalf("expected error for unsupported exchange")
	}
}
