package config

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/pkg/crypto"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"INTERVAL_MINUTES":          "15",
		"USDT_AMOUNT":               "100",
		"LEVERAGE":                  "5",
		"MGN_MODE":                  "cross",
		"SYMBOLS":                   "BTC/USDT:USDT, eth/usdt:usdt",
		"OKX_APIKEY":                "key",
		"OKX_SECRET":                "secret",
		"OKX_PASSWORD":              "pass",
		"AI_ENDPOINT":               "http://ai.local/",
		"OPENAI_API_KEY":            "sk-test",
		"OPENAI_BASE_URL":           "https://api.openai.com/v1",
		"OPENAI_MODEL":              "gpt-4o",
		"EXCHANGE":                  "",
		"SYMBOLS_FILE":              "",
		"USE_SECRET":                "",
		"LANGUAGE":                  "",
		"AI_COMPARE":                "",
		"AI_TIMEOUT_SECONDS":        "",
		"STOP_LOSS_INTERVAL_SECOND": "",
		"ENABLE_API":                "",
		"JWT_SECRET":                "",
		"DRY_RUN":                   "",
		"DRY_RUN_LATENCY_MIN_MS":    "",
		"DRY_RUN_LATENCY_MAX_MS":    "",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Exchange != "okx" || cfg.StopLossIntervalSeconds != 30 || cfg.AICompare != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AITimeframes != "1m,5m,15m,30m,1h,4h,1d" {
		t.Fatalf("timeframes = %q", cfg.AITimeframes)
	}
	if cfg.AIEndpoint != "http://ai.local" {
		t.Fatalf("endpoint should lose trailing slash: %q", cfg.AIEndpoint)
	}
	if cfg.ClientTag != DefaultClientTag {
		t.Fatalf("tag = %q", cfg.ClientTag)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[1].Symbol != "ETH/USDT:USDT" {
		t.Fatalf("symbols = %+v", cfg.Symbols)
	}
	want := TrackedSymbol{Symbol: "BTC/USDT:USDT", Leverage: 5, USDTAmount: 100, MarginMode: common.MarginCross}
	if cfg.Symbols[0] != want {
		t.Fatalf("symbol[0] = %+v, want %+v", cfg.Symbols[0], want)
	}
}

func TestFromEnvCollectsEveryProblem(t *testing.T) {
	setValidEnv(t)
	t.Setenv("INTERVAL_MINUTES", "0")
	t.Setenv("USDT_AMOUNT", "0.5")
	t.Setenv("LEVERAGE", "x")
	t.Setenv("MGN_MODE", "portfolio")
	t.Setenv("OKX_PASSWORD", "")

	_, err := FromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	for _, key := range []string{"INTERVAL_MINUTES", "USDT_AMOUNT", "LEVERAGE", "MGN_MODE", "OKX_PASSWORD"} {
		if !cfgErr.Has(key) {
			t.Errorf("missing problem for %s in %v", key, cfgErr)
		}
	}
}

func TestFromEnvAPIRequiresJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		api     string
		secret  string
		wantErr bool
	}{
		{name: "api off, no secret", api: "false", secret: ""},
		{name: "api on, no secret", api: "true", secret: "", wantErr: true},
		{name: "api on, placeholder secret", api: "true", secret: "dev-secret", wantErr: true},
		{name: "api on, real secret", api: "true", secret: "9f4c1e0b7a2d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv("ENABLE_API", tt.api)
			t.Setenv("JWT_SECRET", tt.secret)

			cfg, err := FromEnv()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("FromEnv: %v", err)
				}
				if cfg.JWTSecret != tt.secret {
					t.Fatalf("JWTSecret = %q, want %q", cfg.JWTSecret, tt.secret)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || !cfgErr.Has("JWT_SECRET") {
				t.Fatalf("expected JWT_SECRET problem, got %v", err)
			}
		})
	}
}

func TestFromEnvDryRunLatency(t *testing.T) {
	setValidEnv(t)
	t.Setenv("DRY_RUN", "true")
	t.Setenv("DRY_RUN_LATENCY_MIN_MS", "50")
	t.Setenv("DRY_RUN_LATENCY_MAX_MS", "200")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.DryRun || cfg.DryRunLatencyMin != 50*time.Millisecond || cfg.DryRunLatencyMax != 200*time.Millisecond {
		t.Fatalf("unexpected dry-run settings: %v %v %v", cfg.DryRun, cfg.DryRunLatencyMin, cfg.DryRunLatencyMax)
	}

	t.Setenv("DRY_RUN_LATENCY_MIN_MS", "-1")
	_, err = FromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || !cfgErr.Has("DRY_RUN_LATENCY_MIN_MS") {
		t.Fatalf("expected latency problem, got %v", err)
	}
}

func TestFromEnvBinanceCredentials(t *testing.T) {
	setValidEnv(t)
	t.Setenv("EXCHANGE", "binance")
	t.Setenv("BINANCE_USDT_KEY", "")
	t.Setenv("BINANCE_USDT_SECRET", "")

	_, err := FromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || !cfgErr.Has("BINANCE_USDT_KEY") {
		t.Fatalf("expected binance credential problem, got %v", err)
	}
}

func TestSymbolsFileOverrides(t *testing.T) {
	setValidEnv(t)
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	content := `symbols:
  - symbol: BTC/USDT:USDT
    leverage: 10
    margin_mode: isolated
  - symbol: SOL/USDT:USDT
    usdt_amount: 20
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYMBOLS_FILE", path)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.Symbols) != 3 {
		t.Fatalf("symbols = %+v", cfg.Symbols)
	}
	btc := cfg.Symbols[0]
	if btc.Leverage != 10 || btc.MarginMode != common.MarginIsolated || btc.USDTAmount != 100 {
		t.Fatalf("btc override = %+v", btc)
	}
	sol := cfg.Symbols[2]
	if sol.Symbol != "SOL/USDT:USDT" || sol.USDTAmount != 20 || sol.Leverage != 5 {
		t.Fatalf("sol = %+v", sol)
	}
}

func TestSymbolsFileInvalidEntry(t *testing.T) {
	setValidEnv(t)
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	os.WriteFile(path, []byte("symbols:\n  - symbol: BTC/USDT:USDT\n    leverage: -1\n"), 0o600)
	t.Setenv("SYMBOLS_FILE", path)

	_, err := FromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || !cfgErr.Has("LEVERAGE") {
		t.Fatalf("expected leverage problem, got %v", err)
	}
}

func TestUseSecretDecryptsCredentials(t *testing.T) {
	setValidEnv(t)
	t.Setenv("MASTER_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(make([]byte, crypto.KeySize)))
	kr, err := crypto.LoadKeyring()
	if err != nil {
		t.Fatal(err)
	}
	sealed, _ := kr.Seal("real-secret")
	t.Setenv("OKX_SECRET", sealed)
	t.Setenv("USE_SECRET", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.OKXSecret != "real-secret" || cfg.OKXAPIKey != "key" {
		t.Fatalf("secrets not revealed: %q %q", cfg.OKXSecret, cfg.OKXAPIKey)
	}
}
