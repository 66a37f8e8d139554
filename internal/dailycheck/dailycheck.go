// Package dailycheck probes the API health endpoint and mails an alert on failure.
package dailycheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reviewledger/internal/notify"

	"go.uber.org/zap"
)

const alertSubject = "Review Ledger: daily check failed"

type healthBody struct {
	Status  string `json:"status"`
	DB      string `json:"db"`
	Message string `json:"message"`
}

// Checker runs the health probe.
type Checker struct {
	URL    string
	Client *http.Client
	Mailer notify.Mailer
	Log    *zap.Logger
	Now    func() time.Time
}

// Probe GETs the health URL. A non-2xx status or a body whose status is not
// "ok" is a failure; a 2xx with an unparsable body is accepted.
func (c *Checker) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	var body healthBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	if body.Status != "ok" {
		if body.Message != "" {
			return fmt.Errorf("health returned %q: %s", body.Status, body.Message)
		}
		return fmt.Errorf("health returned %q (db %q)", body.Status, body.DB)
	}
	return nil
}

// Run probes once and sends an alert when the probe fails. It returns the
// probe error so callers can exit non-zero.
func (c *Checker) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	probeErr := c.Probe(ctx)
	if probeErr == nil {
		log.Info("daily check passed", zap.String("url", c.URL))
		return nil
	}

	log.Error("daily check failed", zap.String("url", c.URL), zap.Error(probeErr))
	body := fmt.Sprintf("Daily check failed: %v\n\nURL: %s\nTime: %s", probeErr, c.URL, now().UTC().Format(time.RFC3339))
	if err := c.Mailer.Send(ctx, alertSubject, body); err != nil {
		log.Error("failed to send alert email", zap.Error(err))
	}
	return probeErr
}
