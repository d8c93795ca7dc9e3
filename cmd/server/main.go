package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/config"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/router"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Transaction events: Kafka when brokers are configured, dropped otherwise
	var events infra.EventPublisher = infra.NoopPublisher{}
	var kafkaPub *infra.KafkaPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaPub = infra.NewKafkaPublisher(brokers, cfg.KafkaTopic, 1024)
		kafkaPub.Start(ctx)
		events = kafkaPub
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("kafka event publisher started")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	receiptWorker := worker.NewReceiptWorker(
		repository.NewTransactionRepository(db),
		mailer,
		infra.ReceiptLayout{StoreName: cfg.StoreName, CurrencySymbol: cfg.CurrencySymbol},
		cfg.PDFStoragePath,
	)
	pool := worker.NewPool(rdb, worker.DefaultMaxAttempts)
	pool.Handle(worker.JobReceiptEmail, receiptWorker.Process)
	pool.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(ctx, cfg, db, rdb, events, mailer)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("%s POS backend listening on :%d", cfg.StoreName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// Stop background loops, then let them drain
	cancel()
	pool.Wait()
	if kafkaPub != nil {
		kafkaPub.WaitClosed()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
