package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emrecanguldogan/HealthChain/internal/api"
	"github.com/emrecanguldogan/HealthChain/internal/ledger"
	"github.com/emrecanguldogan/HealthChain/internal/reconciler"
	"github.com/emrecanguldogan/HealthChain/internal/store"
	"github.com/emrecanguldogan/HealthChain/pkg/config"
	"github.com/emrecanguldogan/HealthChain/pkg/database"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/monitoring"
)

const (
	serviceName    = "healthchain-access-service"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.WithFields(map[string]interface{}{
		"service": serviceName,
		"version": serviceVersion,
		"network": cfg.Ledger.Network,
	}).Info("Starting access service")

	// Local record store
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to local record store")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateSchema(ctx); err != nil {
		cancel()
		log.WithError(err).Fatal("Failed to create database schema")
	}
	cancel()

	repository := store.NewRepository(db, log)

	// Remote ledger client and confirmation watcher
	ledgerClient, err := ledger.NewClient(&cfg.Ledger, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create ledger client")
	}
	watcher := ledger.NewWatcher(ledgerClient, &cfg.Ledger, log)

	// Authorization reconciler
	accessService := reconciler.NewService(repository, ledgerClient, watcher, log)

	// Background reconciliation of grants stuck in the unconfirmed state,
	// e.g. after a restart dropped their confirmation watchers
	sweepInterval := time.Duration(cfg.Ledger.PollInterval) * time.Second * 6
	sweeper := reconciler.NewSweeper(repository, ledgerClient, log, sweepInterval)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	go sweeper.Run(rootCtx)

	// Health checks: an unreachable database is fatal to the service, an
	// unreachable ledger only degrades it (decisions fall back to cache)
	healthManager := monitoring.NewHealthManager(serviceName, serviceVersion)
	healthManager.RegisterChecker("database", &monitoring.DatabaseChecker{Ping: db.Health})
	// The probe needs a syntactically valid principal in the identity
	// position; the contract's deployer address serves as the sentinel,
	// since only reachability matters, not the answer.
	probeIdentity := cfg.Ledger.ContractAddress()
	healthManager.RegisterChecker("ledger", &monitoring.LedgerChecker{
		Probe: func(ctx context.Context) error {
			_, err := ledgerClient.HasAccessToken(ctx, probeIdentity)
			return err
		},
	})

	// Distributed tracing (optional)
	if cfg.Monitoring.TracingEnabled {
		tracing, err := monitoring.NewTracingManager(&monitoring.TracingConfig{
			ServiceName:    serviceName,
			ServiceVersion: serviceVersion,
			JaegerEndpoint: cfg.Monitoring.JaegerEndpoint,
			Environment:    cfg.Ledger.Network,
			SamplingRate:   cfg.Monitoring.SamplingRate,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to initialize tracing, continuing without it")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := tracing.Shutdown(shutdownCtx); err != nil {
					log.WithError(err).Warn("Failed to shut down tracing")
				}
			}()
		}
	}

	// HTTP API
	apiService := api.NewService(cfg, log, accessService, repository, ledgerClient, healthManager)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiService.Start()
	}()

	// Wait for shutdown signal or server failure
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")

		rootCancel()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()

		if err := apiService.Stop(stopCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}

	log.Info("Access service stopped")
}
