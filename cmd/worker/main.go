package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/maildns/internal/activity"
	"github.com/edvin/maildns/internal/alert"
	"github.com/edvin/maildns/internal/archive"
	"github.com/edvin/maildns/internal/config"
	"github.com/edvin/maildns/internal/db"
	"github.com/edvin/maildns/internal/dns"
	"github.com/edvin/maildns/internal/logging"
	"github.com/edvin/maildns/internal/mailserver"
	"github.com/edvin/maildns/internal/metrics"
	"github.com/edvin/maildns/internal/verify"
	"github.com/edvin/maildns/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	policy, err := verify.ParsePolicy(cfg.TransientPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid transient policy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL, "mail-dns-worker")
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

	w := worker.New(tc, workflow.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     cfg.WorkerConcurrency,
		MaxConcurrentWorkflowTaskExecutionSize: cfg.WorkerConcurrency,
		Interceptors:                           []interceptor.WorkerInterceptor{&workflow.ActivityInterceptor{}},
	})

	settings := verify.DefaultSettings()
	settings.ChallengePrefix = cfg.ChallengePrefix
	settings.ReturnPathPrefix = cfg.ReturnPathPrefix

	resolver := dns.NewDoHClient(dns.DoHConfig{
		Endpoint: cfg.DoHEndpoint,
		Timeout:  cfg.DoHTimeout,
		QPS:      cfg.DoHQPS,
	})

	// Register activities
	w.RegisterActivity(activity.NewCoreDB(corePool))
	w.RegisterActivity(activity.NewDNS(verify.New(resolver), settings, cfg.MailHost, policy))
	w.RegisterActivity(activity.NewMailServer(
		mailserver.NewClient(cfg.MailServerURL, cfg.MailServerToken, cfg.MailServerTimeout),
	))
	w.RegisterActivity(activity.NewAlerts(
		alert.NewWebhook(cfg.AlertWebhookURL, cfg.AlertWebhookTemplate, logger),
	))

	reportArchive := archive.New(archive.Config{
		Endpoint:  cfg.ReportArchiveEndpoint,
		Region:    cfg.ReportArchiveRegion,
		Bucket:    cfg.ReportArchiveBucket,
		AccessKey: cfg.ReportArchiveAccessKey,
		SecretKey: cfg.ReportArchiveSecretKey,
	})
	if reportArchive == nil {
		logger.Info().Msg("report archive disabled")
		w.RegisterActivity(activity.NewArchive(nil))
	} else {
		w.RegisterActivity(activity.NewArchive(reportArchive))
	}

	// Register workflows
	w.RegisterWorkflow(workflow.DomainCheckWorkflow)
	w.RegisterWorkflow(workflow.DomainSweepWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr, corePool.Ping)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", workflow.TaskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	created, err := workflow.RegisterSweepSchedule(ctx, tc.ScheduleClient(), cfg.SweepCron)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register sweep schedule")
	}
	logger.Info().
		Str("id", workflow.SweepScheduleID).
		Str("cron", cfg.SweepCron).
		Bool("created", created).
		Msg("sweep schedule registered")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}
