package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName     string
	CoreDatabaseURL string
	TemporalAddress string
	HTTPListenAddr  string
	MetricsAddr     string
	LogLevel        string
	// APIKey guards the admin API. Requests carry it in X-API-Key.
	APIKey string

	// Temporal mTLS. Cert and key must be set together.
	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	// DNS-over-HTTPS resolver used for verification lookups.
	DoHEndpoint string
	DoHTimeout  time.Duration
	DoHQPS      float64

	// MailHost is the platform mail server every customer domain must point
	// MX, SPF and Return-Path at when the domain row has no override.
	MailHost         string
	ChallengePrefix  string
	ReturnPathPrefix string

	// SweepCron fires the full verification sweep (UTC).
	SweepCron string
	// TransientPolicy is "preserve" or "strict". See DESIGN.md.
	TransientPolicy string

	WorkerConcurrency int

	MailServerURL     string
	MailServerToken   string
	MailServerTimeout time.Duration

	AlertWebhookURL      string
	AlertWebhookTemplate string

	ReportArchiveEndpoint  string
	ReportArchiveBucket    string
	ReportArchiveAccessKey string
	ReportArchiveSecretKey string
	ReportArchiveRegion    string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:     getEnv("SERVICE_NAME", ""),
		CoreDatabaseURL: getEnv("CORE_DATABASE_URL", ""),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		APIKey:          getEnv("API_KEY", ""),

		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),

		DoHEndpoint: getEnv("DOH_ENDPOINT", "https://cloudflare-dns.com/dns-query"),
		MailHost:    getEnv("MAIL_HOST", ""),

		ChallengePrefix:  getEnv("CHALLENGE_PREFIX", "_mail-verification"),
		ReturnPathPrefix: getEnv("RETURN_PATH_PREFIX", "psrp"),

		SweepCron:       getEnv("DNS_SWEEP_CRON", "0 0,8,16 * * *"),
		TransientPolicy: getEnv("DNS_TRANSIENT_POLICY", "preserve"),

		MailServerURL:   getEnv("MAILSERVER_URL", ""),
		MailServerToken: getEnv("MAILSERVER_TOKEN", ""),

		AlertWebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
		AlertWebhookTemplate: getEnv("ALERT_WEBHOOK_TEMPLATE", "generic"),

		ReportArchiveEndpoint:  getEnv("REPORT_ARCHIVE_ENDPOINT", ""),
		ReportArchiveBucket:    getEnv("REPORT_ARCHIVE_BUCKET", ""),
		ReportArchiveAccessKey: getEnv("REPORT_ARCHIVE_ACCESS_KEY", ""),
		ReportArchiveSecretKey: getEnv("REPORT_ARCHIVE_SECRET_KEY", ""),
		ReportArchiveRegion:    getEnv("REPORT_ARCHIVE_REGION", "us-east-1"),
	}

	var err error
	if cfg.DoHTimeout, err = getDuration("DOH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MailServerTimeout, err = getDuration("MAILSERVER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DoHQPS, err = getFloat("DOH_QPS", 20); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = getInt("WORKER_CONCURRENCY", 10); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings required by the given role ("api" or "worker").
func (c *Config) Validate(role string) error {
	var missing []string
	if c.CoreDatabaseURL == "" {
		missing = append(missing, "CORE_DATABASE_URL")
	}
	if c.TemporalAddress == "" {
		missing = append(missing, "TEMPORAL_ADDRESS")
	}

	switch role {
	case "api":
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
		if c.APIKey == "" {
			missing = append(missing, "API_KEY")
		}
		if c.MailHost == "" {
			missing = append(missing, "MAIL_HOST")
		}
	case "worker":
		if c.MailHost == "" {
			missing = append(missing, "MAIL_HOST")
		}
		if c.MailServerURL == "" {
			missing = append(missing, "MAILSERVER_URL")
		}
		if c.DoHEndpoint == "" {
			missing = append(missing, "DOH_ENDPOINT")
		}
		if c.SweepCron == "" {
			missing = append(missing, "DNS_SWEEP_CRON")
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set")
	}

	switch c.TransientPolicy {
	case "preserve", "strict":
	default:
		return fmt.Errorf("DNS_TRANSIENT_POLICY must be \"preserve\" or \"strict\", got %q", c.TransientPolicy)
	}

	if c.ReportArchiveBucket != "" && (c.ReportArchiveAccessKey == "" || c.ReportArchiveSecretKey == "") {
		return fmt.Errorf("REPORT_ARCHIVE_BUCKET requires REPORT_ARCHIVE_ACCESS_KEY and REPORT_ARCHIVE_SECRET_KEY")
	}

	return nil
}

// TemporalTLS builds a *tls.Config from the Temporal TLS fields.
// Returns nil, nil when no client certificate is configured.
func (c *Config) TemporalTLS() (*tls.Config, error) {
	if c.TemporalTLSCert == "" && c.TemporalTLSKey == "" {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.TemporalTLSCert, c.TemporalTLSKey)
	if err != nil {
		return nil, fmt.Errorf("load temporal client cert: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ServerName:   c.TemporalTLSServerName,
		MinVersion:   tls.VersionTLS12,
	}

	if c.TemporalTLSCACert != "" {
		caPEM, err := os.ReadFile(c.TemporalTLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read temporal CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("parse temporal CA cert %s", c.TemporalTLSCACert)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}
