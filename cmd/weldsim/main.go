package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/physbox/sandbox/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             weldsim  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      weld graph sandbox · headless        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1msandbox:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main sandbox logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/weldsim.toml"
	if p := os.Getenv("WELDSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging, cfg.Weld.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Sandbox.Name)

	// 3. Build the sandbox
	printSection("Loading")
	sb, err := assemble(cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer sb.Close()
	printStat("objects", sb.scene.Count())
	printStat("weldable", sb.eng.Stats().Entities)
	printStat("scripted listeners", sb.listeners)
	printStat("scheduled frames", sb.scene.LastFrame())
	printOK(fmt.Sprintf("scene %q", sb.scene.Name))
	fmt.Println()

	// 4. Metrics endpoint
	if cfg.Metrics.Enabled {
		srv := serveMetrics(cfg.Metrics.BindAddress, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		printReady(fmt.Sprintf("metrics on http://%s/metrics", cfg.Metrics.BindAddress))
	}

	// 5. Tick loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("Running")
	printReady(fmt.Sprintf("tick loop (tick: %s, realtime: %v)", cfg.Sandbox.TickRate.Duration, cfg.Sandbox.Realtime))
	fmt.Println()
	if err := sb.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// 6. Summary
	fmt.Println()
	printSection("Summary")
	stats := sb.eng.Stats()
	printStat("ticks", int(sb.runner.Ticks()))
	printStat("weld groups", stats.Groups)
	printStat("edges", stats.Edges)
	printStat("constraints", stats.Constraints)
	printStat("invariant violations", sb.audit.Violations())
	for _, line := range sb.GroupSummary() {
		printReady(line)
	}
	return nil
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}

// newLogger builds the process logger. With debug set the logger runs in
// development mode so DPanic assertions panic.
func newLogger(cfg config.LoggingConfig, debug bool) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Development = debug
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
