package analysis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldista/config"
	"yieldista/internal/cache"
	"yieldista/internal/extractor"
	"yieldista/internal/market"
	"yieldista/internal/models"
	"yieldista/internal/profitability"
	"yieldista/internal/retry"
	"yieldista/internal/search"
)

func intPtr(v int) *int { return &v }

func rentalPage(prices ...int) string {
	page := "<html><body>"
	for i, price := range prices {
		page += fmt.Sprintf(`
<article class="item" data-element-id="r%d">
  <a class="item-link" href="/inmueble/r%d/">Piso en alquiler, Retiro, Madrid</a>
  <span class="item-price">%d €/mes</span>
</article>`, i, i, price)
	}
	return page + "</body></html>"
}

type collectingSink struct {
	outcomes []models.Outcome
}

func (s *collectingSink) Emit(outcome models.Outcome) {
	s.outcomes = append(s.outcomes, outcome)
}

func newTestOrchestrator(t *testing.T, server *httptest.Server) *Orchestrator {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	site := config.DefaultSite()
	site.RentalBaseURL = server.URL + "/alquiler-viviendas"
	site.SaleBaseURL = server.URL + "/venta-viviendas"

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	gen := search.NewGenerator(site, logger)
	ex := extractor.New(site, logger)
	c := cache.NewMarketCache(time.Minute, logger)
	policy := retry.NewPolicy(3, time.Millisecond)
	m := market.NewAnalyzer(server.Client(), ex, c, policy, logger)
	calc := profitability.NewCalculator(cfg.Analysis)

	return NewOrchestrator(gen, m, calc, FixedDelayGate(0), logger)
}

func saleContext() models.SearchContext {
	return models.SearchContext{
		IsTargetSite:    true,
		TransactionType: models.TransactionSale,
		Location:        "madrid",
	}
}

func TestOrchestrator_Run(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, rentalPage(700, 800, 900))
	}))
	defer server.Close()

	orch := newTestOrchestrator(t, server)
	sink := &collectingSink{}

	properties := []models.Property{
		{ID: "1", Price: 200000, Rooms: intPtr(3), Size: intPtr(70)},
		{ID: "2", Price: 210000, Rooms: intPtr(3), Size: intPtr(72)}, // same bucket as "1"
		{ID: "3", Price: 90000, Rooms: intPtr(1), Size: intPtr(40)},
	}

	report := orch.Run(context.Background(), saleContext(), properties, sink)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Analyzed)
	assert.Equal(t, 3, report.Succeeded)
	require.Len(t, sink.outcomes, 3)

	for _, outcome := range sink.outcomes {
		assert.Equal(t, models.OutcomeSuccess, outcome.Status)
		assert.Equal(t, report.RunID, outcome.RunID)
		assert.Equal(t, "madrid", outcome.Location)
		require.NotNil(t, outcome.Result)
		assert.Equal(t, 800, outcome.Result.EstimatedRent)
	}

	// Properties 1 and 2 share a bucket; 3 does not
	assert.Equal(t, int32(2), fetches.Load(), "one fetch per comparable bucket")
}

func TestOrchestrator_SkipsNonSaleContexts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no fetch expected for a rental context")
	}))
	defer server.Close()

	orch := newTestOrchestrator(t, server)
	sink := &collectingSink{}

	sctx := saleContext()
	sctx.TransactionType = models.TransactionRental

	report := orch.Run(context.Background(), sctx, []models.Property{{ID: "1", Price: 100000}}, sink)
	assert.Zero(t, report.Analyzed)
	assert.Empty(t, sink.outcomes)
}

func TestOrchestrator_ErrorOutcomeDoesNotAbortPass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("habitaciones") == "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, rentalPage(900))
	}))
	defer server.Close()

	orch := newTestOrchestrator(t, server)
	sink := &collectingSink{}

	properties := []models.Property{
		{ID: "bad", Price: 100000, Rooms: intPtr(1)},
		{ID: "good", Price: 150000, Rooms: intPtr(3)},
	}

	report := orch.Run(context.Background(), saleContext(), properties, sink)

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, sink.outcomes, 2)
	assert.Equal(t, models.OutcomeError, sink.outcomes[0].Status)
	assert.Equal(t, "bad", sink.outcomes[0].Property.ID)
	assert.Equal(t, models.OutcomeSuccess, sink.outcomes[1].Status)
}

func TestOrchestrator_NoDataOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Sin resultados</p></body></html>")
	}))
	defer server.Close()

	orch := newTestOrchestrator(t, server)
	sink := &collectingSink{}

	report := orch.Run(context.Background(), saleContext(), []models.Property{{ID: "1", Price: 100000}}, sink)

	assert.Equal(t, 1, report.NoData)
	require.Len(t, sink.outcomes, 1)
	assert.Equal(t, models.OutcomeNoData, sink.outcomes[0].Status)
	assert.Nil(t, sink.outcomes[0].Result)
}

func TestOrchestrator_ZeroPricePropertyIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rentalPage(800))
	}))
	defer server.Close()

	orch := newTestOrchestrator(t, server)
	sink := &collectingSink{}

	report := orch.Run(context.Background(), saleContext(), []models.Property{{ID: "1", Price: 0}}, sink)

	assert.Equal(t, 1, report.Errors)
	require.Len(t, sink.outcomes, 1)
	assert.Equal(t, models.OutcomeError, sink.outcomes[0].Status)
}

func TestOrchestrator_CancelledContextDropsOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rentalPage(800))
	}))
	defer server.Close()

	orch := newTestOrchestrator(t, server)
	sink := &collectingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := orch.Run(ctx, saleContext(), []models.Property{{ID: "1", Price: 100000}}, sink)
	assert.Zero(t, report.Succeeded)
	assert.Empty(t, sink.outcomes)
}
