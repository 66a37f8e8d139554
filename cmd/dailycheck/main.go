// Command dailycheck probes HEALTH_URL once and mails ALERT_EMAIL_TO when the
// API is unhealthy. It exits 1 on failure, which suits cron.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"reviewledger/internal/config"
	"reviewledger/internal/dailycheck"
	"reviewledger/internal/logger"
	"reviewledger/internal/notify"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(logger.Config{
		ServiceName: cfg.AppName + "-dailycheck",
		Environment: cfg.Environment,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !cfg.SMTP.Enabled() {
		zlog.Warn("SMTP_HOST or ALERT_EMAIL_TO not set, failures will not be mailed")
	}

	checker := &dailycheck.Checker{
		URL:    cfg.HealthURL,
		Client: &http.Client{Timeout: 10 * time.Second},
		Mailer: notify.NewSMTPMailer(cfg.SMTP),
		Log:    zlog,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := checker.Run(ctx); err != nil {
		_ = zlog.Sync()
		cancel()
		os.Exit(1)
	}
}
