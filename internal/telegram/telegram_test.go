package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldista/config"
	"yieldista/internal/models"
)

func newTestNotifier(t *testing.T, server *httptest.Server) *Notifier {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Telegram.Enabled = true
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.ChatID = "42"

	n := NewNotifier(cfg, logger)
	if server != nil {
		n.client = server.Client()
		n.apiBase = server.URL
	}
	return n
}

func TestNotifier_Disabled(t *testing.T) {
	logger := logrus.New()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	n := NewNotifier(cfg, logger)
	assert.False(t, n.Enabled(), "disabled by default")
	assert.NoError(t, n.NotifyBatch([]*models.AnalysisRecord{
		{Status: "success", Recommendation: "excellent"},
	}), "disabled notifier drops everything silently")
}

func TestNotifier_NotifyBatch_SendsOnlyExcellentDeals(t *testing.T) {
	var messages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		messages = append(messages, payload["text"].(string))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := newTestNotifier(t, server)

	err := n.NotifyBatch([]*models.AnalysisRecord{
		{
			Status: "success", Recommendation: "excellent",
			PurchasePrice: 100000, EstimatedRent: 1000,
			GrossYield: 12, NetYield: 6.96, RiskLevel: "high", SampleSize: 10,
			Location: "madrid", PropertyURL: "https://www.idealista.com/inmueble/1/",
		},
		{Status: "success", Recommendation: "fair"},
		{Status: "no_data"},
	})
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Excellent rental yield")
	assert.Contains(t, messages[0], "€1000/month")
	assert.Contains(t, messages[0], "madrid")
}

func TestNotifier_SendMessage_SurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/bottest-token/"))
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"description":"bot was blocked"}`))
	}))
	defer server.Close()

	n := newTestNotifier(t, server)

	err := n.SendMessage("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
