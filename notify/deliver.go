package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/tollwatch/config"
	"github.com/use-agent/tollwatch/models"
)

// Notifier posts cards to a Google Chat incoming webhook.
type Notifier struct {
	// URL is the webhook. Empty means cards are logged instead of sent.
	URL string

	// Payee is embedded in every reminder message.
	Payee Payee

	// Retries are the waits before each extra delivery attempt.
	Retries []time.Duration

	client *http.Client
}

// New creates a Notifier from cfg.
func New(cfg config.NotifyConfig) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		URL: cfg.WebhookURL,
		Payee: Payee{
			AccountName:   cfg.AccountName,
			BSB:           cfg.BSB,
			AccountNumber: cfg.AccountNumber,
		},
		Retries: []time.Duration{time.Second, 5 * time.Second},
		client:  &http.Client{Timeout: timeout},
	}
}

// Deliver sends payload once.
func (n *Notifier) Deliver(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal card: %w", err)
	}

	if n.URL == "" {
		slog.Info("notify: no webhook configured, card not sent", "payload", string(body))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("User-Agent", "Tollwatch-Notify/1.0")

	client := n.client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Send builds the card for report and delivers it, retrying transient
// failures. Errors are logged and never returned: a failed card must not
// stop the remaining vehicles.
func (n *Notifier) Send(ctx context.Context, report models.VehicleReport, mode Mode, loc *time.Location) {
	payload := BuildCard(report, mode, n.Payee, loc)
	rego := report.Entry.Rego

	for attempt := 0; ; attempt++ {
		err := n.Deliver(ctx, payload)
		if err == nil {
			if n.URL != "" {
				slog.Info("card delivered", "rego", rego, "mode", string(mode), "attempt", attempt+1)
			}
			return
		}
		slog.Warn("card delivery failed", "rego", rego, "attempt", attempt+1, "error", err)

		if attempt >= len(n.Retries) {
			slog.Error("card delivery exhausted all retries", "rego", rego)
			return
		}
		select {
		case <-ctx.Done():
			slog.Error("card delivery cancelled", "rego", rego, "error", ctx.Err())
			return
		case <-time.After(n.Retries[attempt]):
		}
	}
}
