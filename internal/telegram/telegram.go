package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/models"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier pushes a Telegram message for every excellent-rated analysis
// record. It subscribes to the record queue alongside the persister, so
// notification failures never affect persistence.
type Notifier struct {
	logger  *logrus.Logger
	client  *http.Client
	cfg     *config.Config
	apiBase string
}

func NewNotifier(cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cfg:     cfg,
		apiBase: defaultAPIBase,
	}
}

// Enabled reports whether notifications are configured and switched on.
func (n *Notifier) Enabled() bool {
	t := n.cfg.Telegram
	return t.Enabled && t.BotToken != "" && t.ChatID != ""
}

// NotifyBatch sends one message per excellent deal in the batch.
func (n *Notifier) NotifyBatch(records []*models.AnalysisRecord) error {
	if !n.Enabled() {
		return nil
	}

	var lastErr error
	for _, record := range records {
		if record.Status != string(models.OutcomeSuccess) ||
			record.Recommendation != string(models.RecommendationExcellent) {
			continue
		}
		if err := n.SendMessage(formatDeal(record)); err != nil {
			n.logger.WithError(err).WithField("property_id", record.PropertyID).
				Error("Failed to send deal notification")
			lastErr = err
		}
	}
	return lastErr
}

// SendMessage sends a message to the configured Telegram chat.
func (n *Notifier) SendMessage(message string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.cfg.Telegram.BotToken)

	payload := map[string]interface{}{
		"chat_id":    n.cfg.Telegram.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func formatDeal(r *models.AnalysisRecord) string {
	msg := fmt.Sprintf(
		"<b>Excellent rental yield found</b>\n"+
			"Price: €%d\n"+
			"Estimated rent: €%d/month\n"+
			"Gross yield: %.2f%%\n"+
			"Net yield: %.2f%%\n"+
			"Risk: %s (sample of %d)",
		r.PurchasePrice, r.EstimatedRent, r.GrossYield, r.NetYield, r.RiskLevel, r.SampleSize,
	)
	if r.Location != "" {
		msg += "\nLocation: " + r.Location
	}
	if r.PropertyURL != "" {
		msg += fmt.Sprintf("\n<a href=\"%s\">View listing</a>", r.PropertyURL)
	}
	return msg
}
