package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dunea/blockchain-ai-quantificat/pkg/crypto"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// DefaultClientTag is attached to every order placed by the agent.
const DefaultClientTag = "f1ee03b510d5SUDE"

// placeholderJWTSecret is the value shipped in sample env files.
const placeholderJWTSecret = "dev-secret"

// Config holds environment-driven settings for the agent.
type Config struct {
	// Loops
	IntervalMinutes         int
	StopLossIntervalSeconds int

	// Entry defaults, per-symbol values live in Symbols
	USDTAmount float64
	Leverage   int
	MarginMode common.MarginMode
	Symbols    []TrackedSymbol
	ClientTag  string

	// Exchange
	Exchange          string // "okx" or "binance"
	OKXAPIKey         string
	OKXSecret         string
	OKXPassword       string
	OKXSimulated      bool
	BinanceUSDTKey    string
	BinanceUSDTSecret string
	BinanceTestnet    bool
	DryRun            bool // orders are acknowledged locally, never sent
	DryRunLatencyMin  time.Duration
	DryRunLatencyMax  time.Duration

	// Signal source
	AIEndpoint    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeframes  string
	AICompare     int
	AITimeout     time.Duration

	// Credentials are ENC[vN]: ciphertexts
	UseSecret bool

	// Outer surfaces
	EnableAPI   bool
	Port        string
	JWTSecret   string
	JournalPath string // empty disables the journal

	// Localization
	Language string // "en" or "zh"
}

// EntryInterval is the Entry Loop period.
func (c *Config) EntryInterval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// StopLossInterval is the Risk Engine period.
func (c *Config) StopLossInterval() time.Duration {
	return time.Duration(c.StopLossIntervalSeconds) * time.Second
}

// Load reads environment variables (optionally via .env) into Config.
// Any invalid or missing value is reported in a single *ConfigError.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates Config from the process environment.
func FromEnv() (*Config, error) {
	errs := &ConfigError{}
	r := envReader{errs: errs}

	cfg := &Config{
		IntervalMinutes:         r.requiredInt("INTERVAL_MINUTES"),
		StopLossIntervalSeconds: r.intOr("STOP_LOSS_INTERVAL_SECOND", 30),
		USDTAmount:              r.requiredFloat("USDT_AMOUNT"),
		Leverage:                r.requiredInt("LEVERAGE"),
		ClientTag:               getEnv("CLIENT_TAG", DefaultClientTag),

		Exchange:          strings.ToLower(getEnv("EXCHANGE", "okx")),
		OKXAPIKey:         os.Getenv("OKX_APIKEY"),
		OKXSecret:         os.Getenv("OKX_SECRET"),
		OKXPassword:       os.Getenv("OKX_PASSWORD"),
		OKXSimulated:      getEnv("OKX_SIMULATED", "false") == "true",
		BinanceUSDTKey:    os.Getenv("BINANCE_USDT_KEY"),
		BinanceUSDTSecret: os.Getenv("BINANCE_USDT_SECRET"),
		BinanceTestnet:    getEnv("BINANCE_TESTNET", "false") == "true",
		DryRun:            getEnv("DRY_RUN", "false") == "true",
		DryRunLatencyMin:  time.Duration(r.intOr("DRY_RUN_LATENCY_MIN_MS", 0)) * time.Millisecond,
		DryRunLatencyMax:  time.Duration(r.intOr("DRY_RUN_LATENCY_MAX_MS", 0)) * time.Millisecond,

		AIEndpoint:    strings.TrimRight(os.Getenv("AI_ENDPOINT"), "/"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		AITimeframes:  getEnv("AI_TIMEFRAMES", "1m,5m,15m,30m,1h,4h,1d"),
		AICompare:     r.intOr("AI_COMPARE", 3),
		AITimeout:     time.Duration(r.intOr("AI_TIMEOUT_SECONDS", 300)) * time.Second,

		UseSecret: getEnv("USE_SECRET", "false") == "true",

		EnableAPI:   getEnv("ENABLE_API", "false") == "true",
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JournalPath: getEnv("JOURNAL_PATH", "./data/journal.db"),
		Language:    getEnv("LANGUAGE", "en"),
	}

	mode, ok := common.ParseMarginMode(getEnv("MGN_MODE", "cross"))
	if !ok {
		errs.add("MGN_MODE", "must be cross or isolated, got %q", os.Getenv("MGN_MODE"))
	}
	cfg.MarginMode = mode

	cfg.validate(errs)
	if cfg.UseSecret {
		cfg.revealSecrets(errs)
	}

	names := splitAndTrim(os.Getenv("SYMBOLS"))
	if len(names) == 0 {
		names = DefaultSymbols
	}
	var overrides []SymbolOverride
	if path := os.Getenv("SYMBOLS_FILE"); path != "" {
		o, err := LoadSymbolsFile(path)
		if err != nil {
			errs.add("SYMBOLS_FILE", "%v", err)
		}
		overrides = o
	}
	cfg.Symbols = buildSymbols(names, overrides, TrackedSymbol{
		Leverage:   cfg.Leverage,
		USDTAmount: cfg.USDTAmount,
		MarginMode: cfg.MarginMode,
	}, errs)

	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(errs *ConfigError) {
	if c.IntervalMinutes <= 0 && !errs.Has("INTERVAL_MINUTES") {
		errs.add("INTERVAL_MINUTES", "must be > 0")
	}
	if c.StopLossIntervalSeconds <= 0 && !errs.Has("STOP_LOSS_INTERVAL_SECOND") {
		errs.add("STOP_LOSS_INTERVAL_SECOND", "must be > 0")
	}
	if c.AICompare <= 0 && !errs.Has("AI_COMPARE") {
		errs.add("AI_COMPARE", "must be > 0")
	}
	if c.DryRunLatencyMin < 0 || c.DryRunLatencyMax < 0 {
		errs.add("DRY_RUN_LATENCY_MIN_MS", "latency bounds must be >= 0")
	}
	if c.AITimeout <= 0 {
		errs.add("AI_TIMEOUT_SECONDS", "must be > 0")
	}

	switch c.Exchange {
	case "okx":
		requireSet(errs, "OKX_APIKEY", c.OKXAPIKey)
		requireSet(errs, "OKX_SECRET", c.OKXSecret)
		requireSet(errs, "OKX_PASSWORD", c.OKXPassword)
	case "binance":
		requireSet(errs, "BINANCE_USDT_KEY", c.BinanceUSDTKey)
		requireSet(errs, "BINANCE_USDT_SECRET", c.BinanceUSDTSecret)
	default:
		errs.add("EXCHANGE", "must be okx or binance, got %q", c.Exchange)
	}

	requireSet(errs, "AI_ENDPOINT", c.AIEndpoint)
	requireSet(errs, "OPENAI_API_KEY", c.OpenAIAPIKey)
	requireSet(errs, "OPENAI_BASE_URL", c.OpenAIBaseURL)
	requireSet(errs, "OPENAI_MODEL", c.OpenAIModel)

	// The close endpoint places orders.
	if c.EnableAPI && (c.JWTSecret == "" || c.JWTSecret == placeholderJWTSecret) {
		errs.add("JWT_SECRET", "required when ENABLE_API=true")
	}

	if c.Language != "en" && c.Language != "zh" {
		errs.add("LANGUAGE", "must be en or zh, got %q", c.Language)
	}
}

// revealSecrets decrypts ENC[vN]: credentials in place.
func (c *Config) revealSecrets(errs *ConfigError) {
	kr, err := crypto.LoadKeyring()
	if err != nil {
		errs.add("MASTER_ENCRYPTION_KEY", "%v", err)
		return
	}
	fields := []struct {
		key string
		val *string
	}{
		{"OKX_APIKEY", &c.OKXAPIKey},
		{"OKX_SECRET", &c.OKXSecret},
		{"OKX_PASSWORD", &c.OKXPassword},
		{"BINANCE_USDT_KEY", &c.BinanceUSDTKey},
		{"BINANCE_USDT_SECRET", &c.BinanceUSDTSecret},
		{"OPENAI_API_KEY", &c.OpenAIAPIKey},
	}
	for _, f := range fields {
		if *f.val == "" {
			continue
		}
		plain, err := kr.Reveal(*f.val)
		if err != nil {
			errs.add(f.key, "decrypt: %v", err)
			continue
		}
		*f.val = plain
	}
}

func requireSet(errs *ConfigError, key, val string) {
	if strings.TrimSpace(val) == "" {
		errs.add(key, "required")
	}
}

// envReader parses numeric keys and records malformed values.
type envReader struct {
	errs *ConfigError
}

func (r envReader) intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.errs.add(key, "not an integer: %q", v)
		return def
	}
	return i
}

func (r envReader) requiredInt(key string) int {
	if os.Getenv(key) == "" {
		r.errs.add(key, "required")
		return 0
	}
	return r.intOr(key, 0)
}

func (r envReader) requiredFloat(key string) float64 {
	v := os.Getenv(key)
	if v == "" {
		r.errs.add(key, "required")
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		r.errs.add(key, "not a number: %q", v)
		return 0
	}
	return f
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
