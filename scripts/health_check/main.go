package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/analysis"
	"github.com/dunea/blockchain-ai-quantificat/internal/gateway"
	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
)

type HealthStatus struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthReport struct {
	Overall  string         `json:"overall"`
	Services []HealthStatus `json:"services"`
}

func main() {
	fmt.Println("AI Swap Agent Health Check")
	fmt.Println("==========================")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report := HealthReport{
		Overall:  "HEALTHY",
		Services: make([]HealthStatus, 0),
	}

	// 1. Config check
	cfg, cfgStatus := checkConfig()
	report.Services = append(report.Services, cfgStatus)

	if cfg != nil {
		// 2. Journal check
		report.Services = append(report.Services, checkJournal(cfg))

		// 3. Exchange public time
		report.Services = append(report.Services, checkExchange(ctx, cfg))

		// 4. Signal source reachability
		report.Services = append(report.Services, checkSignalSource(ctx, cfg))

		// 5. Status API (if enabled)
		if cfg.EnableAPI {
			report.Services = append(report.Services, checkAPIServer(ctx, cfg))
		}
	}

	// Determine overall status
	for _, svc := range report.Services {
		if svc.Status == "UNHEALTHY" {
			report.Overall = "UNHEALTHY"
			break
		} else if svc.Status == "DEGRADED" && report.Overall != "UNHEALTHY" {
			report.Overall = "DEGRADED"
		}
	}

	// Print results
	fmt.Println("Results:")
	fmt.Println("--------")
	for _, svc := range report.Services {
		statusIcon := "✓"
		if svc.Status == "UNHEALTHY" {
			statusIcon = "✗"
		} else if svc.Status == "DEGRADED" {
			statusIcon = "⚠"
		}
		fmt.Printf("%s %-20s %s %s\n", statusIcon, svc.Service, svc.Status, svc.Message)
	}

	fmt.Println()
	fmt.Printf("Overall Status: %s\n", report.Overall)

	// Output JSON if requested
	if len(os.Args) > 1 && os.Args[1] == "--json" {
		jsonData, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(jsonData))
	}

	if report.Overall == "UNHEALTHY" {
		os.Exit(1)
	}
}

func checkConfig() (*config.Config, HealthStatus) {
	status := HealthStatus{
		Service:   "Configuration",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	cfg, err := config.Load()
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = err.Error()
		return nil, status
	}

	status.Message = fmt.Sprintf("exchange=%s symbols=%d dry_run=%v", cfg.Exchange, len(cfg.Symbols), cfg.DryRun)
	return cfg, status
}

func checkJournal(cfg *config.Config) HealthStatus {
	status := HealthStatus{
		Service:   "Journal",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	if cfg.JournalPath == "" {
		status.Status = "DEGRADED"
		status.Message = "Disabled"
		return status
	}

	database, err := db.New(cfg.JournalPath)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Open or schema failed: %v", err)
		return status
	}
	defer database.Close()

	if err := database.DB.PingContext(context.Background()); err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Ping failed: %v", err)
		return status
	}

	status.Message = cfg.JournalPath
	return status
}

func checkExchange(ctx context.Context, cfg *config.Config) HealthStatus {
	status := HealthStatus{
		Service:   "Exchange",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	venue, err := gateway.New(cfg)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = err.Error()
		return status
	}

	serverTime, err := venue.ServerTime(ctx)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Connection failed: %v", err)
		return status
	}

	skew := time.Until(serverTime).Round(time.Millisecond)
	status.Message = fmt.Sprintf("%s reachable (clock skew %s)", venue.Gateway.Name(), skew)
	if skew > time.Second || skew < -time.Second {
		status.Status = "DEGRADED"
	}
	return status
}

func checkSignalSource(ctx context.Context, cfg *config.Config) HealthStatus {
	status := HealthStatus{
		Service:   "Signal Source",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	client := analysis.NewClient(analysis.Config{
		Endpoint: cfg.AIEndpoint,
		Exchange: cfg.Exchange,
		Timeout:  10 * time.Second,
	}, nil)
	if err := client.Ping(ctx); err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Not reachable: %v", err)
		return status
	}

	status.Message = cfg.AIEndpoint
	return status
}

func checkAPIServer(ctx context.Context, cfg *config.Config) HealthStatus {
	status := HealthStatus{
		Service:   "Status API",
		Status:    "HEALTHY",
		Timestamp: time.Now(),
	}

	url := fmt.Sprintf("http://localhost:%s/health", cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = err.Error()
		return status
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		status.Status = "DEGRADED"
		status.Message = fmt.Sprintf("Not reachable: %v", err)
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Status = "DEGRADED"
		status.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return status
	}

	status.Message = "Running"
	return status
}
