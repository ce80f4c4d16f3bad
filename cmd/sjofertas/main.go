package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaimonDevStore/SJOFERTAS/bot"
	"github.com/SaimonDevStore/SJOFERTAS/config"
	"github.com/SaimonDevStore/SJOFERTAS/pipeline"
	"github.com/SaimonDevStore/SJOFERTAS/scraper"
	"github.com/SaimonDevStore/SJOFERTAS/server"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address for liveness and metrics")
	workers := flag.Int("workers", cfg.Workers, "Number of messages handled concurrently")
	rate := flag.Float64("usd-brl", cfg.USDToBRLRate, "Exchange rate applied to AliExpress USD prices")
	fetchTimeout := flag.Duration("fetch-timeout", cfg.FetchTimeout, "Timeout for a product page fetch")
	verbose := flag.Bool("v", cfg.Verbose, "Enable verbose logging")

	flag.Parse()

	cfg.HTTPAddr = *addr
	cfg.Workers = *workers
	cfg.USDToBRLRate = *rate
	cfg.FetchTimeout = *fetchTimeout
	cfg.Verbose = *verbose

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := tgbotapi.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)); err != nil {
		slog.Error("configure telegram logger", slog.Any("error", err))
		os.Exit(1)
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("connecting to telegram", slog.Any("error", err))
		os.Exit(1)
	}
	api.Debug = cfg.Verbose

	extractor, err := scraper.NewExtractor(cfg)
	if err != nil {
		slog.Error("initialising extractor", slog.Any("error", err))
		os.Exit(1)
	}

	b, err := bot.New(api, extractor, extractor.Metrics.Registry)
	if err != nil {
		slog.Error("initialising bot", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.HTTPAddr, extractor.Metrics.Registry)
	if err := srv.Start(); err != nil {
		slog.Error("starting http server", slog.Any("error", err))
		os.Exit(1)
	}

	p, err := pipeline.NewPipeline(ctx, b, cfg)
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(time.Minute)
	}

	slog.Info("bot started",
		slog.String("username", api.Self.UserName),
		slog.Int("workers", cfg.Workers),
		slog.Float64("usd_brl_rate", cfg.USDToBRLRate),
	)

	bot.Poll(ctx, api, p, cfg.PollTimeout)
	slog.Info("shutdown signal received, waiting for in-flight messages")

	exitCode := 0
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", slog.Any("error", err))
		exitCode = 1
	}
	cancel()

	metrics := p.GetMetrics()
	slog.Info("bot stopped",
		slog.Any("handled_messages", metrics["handled_messages"]),
		slog.Any("failed_messages", metrics["failed_messages"]),
	)
	os.Exit(exitCode)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
