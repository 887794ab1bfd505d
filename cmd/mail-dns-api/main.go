package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/maildns/internal/api"
	"github.com/edvin/maildns/internal/config"
	"github.com/edvin/maildns/internal/core"
	"github.com/edvin/maildns/internal/db"
	"github.com/edvin/maildns/internal/dns"
	"github.com/edvin/maildns/internal/logging"
	"github.com/edvin/maildns/internal/metrics"
	"github.com/edvin/maildns/internal/verify"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		version, err := db.RunMigrations(cfg.CoreDatabaseURL, *migrateDirFlag)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int64("version", version).Msg("database migrated")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL, "mail-dns-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to core database")
	}
	defer corePool.Close()
	metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, "core", corePool)

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{HostPort: cfg.TemporalAddress}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	settings := verify.DefaultSettings()
	settings.ChallengePrefix = cfg.ChallengePrefix
	settings.ReturnPathPrefix = cfg.ReturnPathPrefix

	resolver := dns.NewDoHClient(dns.DoHConfig{
		Endpoint: cfg.DoHEndpoint,
		Timeout:  cfg.DoHTimeout,
		QPS:      cfg.DoHQPS,
	})
	domains := core.NewMailDomainService(corePool, tc, verify.New(resolver), settings, cfg.MailHost)

	srv := api.NewServer(logger, domains, cfg.APIKey, map[string]api.ReadyCheck{
		"core_db": corePool.Ping,
		"temporal": func(ctx context.Context) error {
			_, err := tc.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
			return err
		},
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPListenAddr,
		Handler: srv,
		// Live DNS status lookups run up to five queries in parallel.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting mail DNS API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}
