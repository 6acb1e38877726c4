package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quaychain/brokerage/internal/config"
	"github.com/quaychain/brokerage/internal/engine"
	"github.com/quaychain/brokerage/internal/handler"
	"github.com/quaychain/brokerage/internal/service"
	"github.com/quaychain/brokerage/internal/store"
	"github.com/quaychain/brokerage/internal/stream"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	accountStore := store.NewAccountStore()
	holdingStore := store.NewHoldingStore()
	orderStore := store.NewOrderStore()
	quoteStore := store.NewQuoteStore()
	transferStore := store.NewTransferStore()

	// Session guard.
	openMin, err := engine.ParseClockTime(cfg.MarketOpen)
	if err != nil {
		logger.Error("invalid MARKET_OPEN", slog.String("error", err.Error()))
		os.Exit(1)
	}
	closeMin, err := engine.ParseClockTime(cfg.MarketClose)
	if err != nil {
		logger.Error("invalid MARKET_CLOSE", slog.String("error", err.Error()))
		os.Exit(1)
	}
	session := engine.NewSessionGuard(openMin, closeMin)

	// Engine.
	books := engine.NewBookManager()
	ledger := engine.NewStoreLedger(accountStore, holdingStore, transferStore)
	matcher := engine.NewMatcher(books, ledger, orderStore, quoteStore, session, logger)
	maker := engine.NewMarketMaker(
		cfg.MakerVolume, cfg.MakerSpreadBps,
		books, orderStore, accountStore, holdingStore, ledger, quoteStore, logger,
	)
	matcher.SetLiquidityProvider(maker)

	// Quote stream (websocket fan-out of engine quote updates).
	quoteStream := stream.NewQuoteStreamer(logger)
	matcher.SetQuotePublisher(quoteStream)
	maker.SetQuotePublisher(quoteStream)

	// Session transitions: expire everything at close, reseed at open.
	session.OnClose(func() {
		logger.Info("market closed, expiring resting orders")
		matcher.ExpireAll()
	})
	session.OnOpen(func() {
		logger.Info("market open, seeding liquidity")
		maker.Seed(cfg.SeedSymbols)
	})

	// Services.
	accountSvc := service.NewAccountService(accountStore, holdingStore, transferStore, quoteStore)
	orderSvc := service.NewOrderService(matcher, accountStore, orderStore, quoteStore)
	quoteSvc := service.NewQuoteService(quoteStore)
	portfolioSvc := service.NewPortfolioService(holdingStore, quoteStore)
	marketSvc := service.NewMarketService(session, maker, cfg.SeedSymbols)

	// Initial seed (administrative: allowed outside trading hours).
	marketSvc.Reset()

	// Router.
	router := handler.NewRouter(accountSvc, orderSvc, quoteSvc, portfolioSvc, marketSvc, quoteStream, logger)

	// Start session guard goroutine with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx, cfg.SessionCheckInterval)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops session goroutine).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
