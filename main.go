package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/analysis"
	"github.com/dunea/blockchain-ai-quantificat/internal/api"
	"github.com/dunea/blockchain-ai-quantificat/internal/engine"
	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/gateway"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/internal/order"
	"github.com/dunea/blockchain-ai-quantificat/internal/persistence"
	"github.com/dunea/blockchain-ai-quantificat/internal/reconciliation"
	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

const reconcileInterval = 5 * time.Minute

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Printf(i18n.Get("ConfigInvalid"), err)
		os.Exit(1)
	}

	i18n.SetLanguage(i18n.Language(cfg.Language))
	log.Println(i18n.Get("Starting"))

	buildVersion := os.Getenv("APP_VERSION")
	if buildVersion == "" {
		buildVersion = "dev"
	}

	log.Printf(i18n.Get("ConfigLoaded"), cfg.Exchange, len(cfg.Symbols), cfg.EntryInterval(), cfg.StopLossInterval())
	for _, s := range cfg.Symbols {
		log.Printf(i18n.Get("SymbolTracked"), s.Symbol, s.Leverage, s.USDTAmount, s.MarginMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	venue, err := gateway.New(cfg)
	if err != nil {
		log.Printf(i18n.Get("ConfigInvalid"), err)
		os.Exit(1)
	}
	log.Printf(i18n.Get("GatewaySelected"), venue.Gateway.Name())

	syncCtx, cancelSync := context.WithTimeout(ctx, 10*time.Second)
	if err := venue.Clock.Sync(syncCtx); err != nil {
		log.Printf(i18n.Get("TimeSyncFailed"), err)
	}
	cancelSync()
	venue.Clock.Start(ctx)

	// Core services
	bus := events.NewBus()
	metrics := monitor.NewSystemMetrics()

	var journal *persistence.Journal
	if cfg.JournalPath == "" {
		log.Println(i18n.Get("JournalDisabled"))
	} else if j, err := persistence.NewJournal(cfg.JournalPath); err != nil {
		log.Printf(i18n.Get("JournalFailed"), err)
	} else {
		journal = j
		log.Printf(i18n.Get("JournalOpened"), cfg.JournalPath)
	}
	defer journal.Close()

	advisor := analysis.NewClient(analysis.Config{
		Endpoint:   cfg.AIEndpoint,
		Exchange:   cfg.Exchange,
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeframes: cfg.AITimeframes,
		Compare:    cfg.AICompare,
		Timeout:    cfg.AITimeout,
	}, metrics)

	mon := &monitor.Monitor{Bus: bus, Sink: monitor.LogSink{}}
	mon.Start(ctx)

	var placer order.Placer
	if cfg.DryRun {
		dry := order.NewDryRunPlacer(venue.Gateway.Name())
		dry.LatencyMin, dry.LatencyMax = cfg.DryRunLatencyMin, cfg.DryRunLatencyMax
		placer = dry
	}

	svc := engine.NewImpl(engine.Config{
		Gateway:          venue.Gateway,
		Placer:           placer,
		Advisor:          advisor,
		Symbols:          cfg.Symbols,
		Tag:              cfg.ClientTag,
		EntryInterval:    cfg.EntryInterval(),
		StopLossInterval: cfg.StopLossInterval(),
		Bus:              bus,
		Journal:          journal,
		Metrics:          metrics,
		Clock:            venue.Clock,
		Meta: engine.SystemStatus{
			Venue:   venue.Gateway.Name(),
			DryRun:  cfg.DryRun,
			Version: buildVersion,
		},
	})

	setupCtx, cancelSetup := context.WithTimeout(ctx, 30*time.Second)
	svc.Setup(setupCtx)
	cancelSetup()

	svc.Start(ctx)

	recon := reconciliation.NewService(venue.Gateway, svc.Book(), bus, reconcileInterval)
	recon.Start(ctx)

	var server *api.Server
	if cfg.EnableAPI {
		server = api.NewServer(svc, bus, cfg.JWTSecret)
		go func() {
			log.Printf(i18n.Get("ServerListening"), cfg.Port)
			if err := server.Start(":" + cfg.Port); err != nil {
				log.Printf(i18n.Get("APIServerError"), err)
			}
		}()
	}

	<-ctx.Done()
	log.Println(i18n.Get("ShuttingDown"))

	// No new ticks start once ctx is done; wait for running ones to return.
	svc.Wait()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf(i18n.Get("APIServerError"), err)
		}
		cancel()
	}
	log.Println(i18n.Get("Stopped"))
}
