package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/tms/internal/config"
	"github.com/tinoosan/tms/internal/events"
	httpapi "github.com/tinoosan/tms/internal/httpapi/v1"
	"github.com/tinoosan/tms/internal/service/booking"
	"github.com/tinoosan/tms/internal/service/party"
	"github.com/tinoosan/tms/internal/service/payment"
	"github.com/tinoosan/tms/internal/service/statement"
	"github.com/tinoosan/tms/internal/storage/memory"
	pgstore "github.com/tinoosan/tms/internal/storage/postgres"
	"github.com/tinoosan/tms/internal/tms"
)

// store is what the services and readiness probe need from a backend.
type store interface {
	party.Repo
	party.Writer
	booking.Repo
	booking.Writer
	payment.Repo
	payment.Writer
	statement.Repo
	httpapi.ReadyChecker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	var st store
	var closeFn func()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL, cfg.Currency)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if cfg.DevSeed {
			p, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", p)
				printDevSeedBanner(p)
			}
		}
		st = pg
		logger.Info("storage backend: postgres")
	} else {
		// Default to in-memory store with a small dev seed
		mem := memory.New()
		p := tms.Party{ID: uuid.New(), Name: "Demo Party", Marka: "DP", RatePerKg: decimal.NewFromInt(3), RatePerParcel: decimal.NewFromInt(50), CreatedAt: time.Now().UTC()}
		mem.SeedParty(p)
		if _, err := mem.CreateRate(ctx, tms.Rate{ID: uuid.New(), FromCity: "DELHI", ToCity: "JAIPUR", RateType: tms.RateTypeKG, Rate: decimal.NewFromFloat(2.5)}); err != nil {
			logger.Error("dev seed failed", "err", err)
		}
		logDevSeed(logger, "memory", p)
		printDevSeedBanner(p)
		st = mem
		logger.Info("storage backend: memory")
	}

	var pub events.Publisher = events.LogPublisher{Log: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka writer close", "err", err)
			}
		}()
		pub = kp
		logger.Info("events: kafka", "brokers", strings.Join(cfg.KafkaBrokers, ","), "prefix", cfg.KafkaTopicPrefix)
	}

	api := httpapi.New(httpapi.Services{
		Parties:    party.New(st, st, cfg.Currency),
		Bookings:   booking.New(st, st, pub, logger, cfg.Currency),
		Payments:   payment.New(st, st, pub, logger, cfg.Currency),
		Statements: statement.New(st, logger),
	}, st, logger, httpapi.Options{
		Currency:    cfg.Currency,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        httpapi.AuthConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience},
	})
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_HS256_SECRET not set; API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tms service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func logDevSeed(l *slog.Logger, backend string, p tms.Party) {
	l.Info("DEV seed ("+backend+")", "party_id", p.ID.String(), "party", p.Name)
}

// printDevSeedBanner prints the seeded party for easy copy/paste.
func printDevSeedBanner(p tms.Party) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("party_id: %s\n", p.ID.String())
	fmt.Printf("party_name: %s\n", p.Name)
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
