package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/analysis"
	"yieldista/internal/cache"
	"yieldista/internal/database"
	"yieldista/internal/extractor"
	"yieldista/internal/httputil"
	"yieldista/internal/models"
	"yieldista/internal/search"
)

type Handler struct {
	cfg          *config.Config
	analyzer     *search.Analyzer
	extractor    *extractor.Extractor
	orchestrator *analysis.Orchestrator
	recorder     *analysis.Recorder
	cache        *cache.MarketCache
	store        database.Store
	client       *http.Client
	logger       *logrus.Logger
}

func NewHandler(
	cfg *config.Config,
	analyzer *search.Analyzer,
	ext *extractor.Extractor,
	orch *analysis.Orchestrator,
	recorder *analysis.Recorder,
	marketCache *cache.MarketCache,
	store database.Store,
	client *http.Client,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		cfg:          cfg,
		analyzer:     analyzer,
		extractor:    ext,
		orchestrator: orch,
		recorder:     recorder,
		cache:        marketCache,
		store:        store,
		client:       client,
		logger:       logger,
	}
}

// AnalyzeRequest names a sale search page to analyze. HTML is optional; when
// absent the page is fetched from the portal.
type AnalyzeRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"`
}

// AnalyzeResponse pairs the pass report with the per-property outcomes.
type AnalyzeResponse struct {
	Report   analysis.Report  `json:"report"`
	Outcomes []models.Outcome `json:"outcomes"`
}

// Analyze runs the full pipeline for one search page and persists the
// outcomes through the record queue.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	sctx := h.analyzer.Classify(req.URL)
	if !sctx.IsTargetSite || sctx.TransactionType != models.TransactionSale {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "url is not a sale search page on the configured portal",
		})
		return
	}

	html := req.HTML
	if html == "" {
		fetched, err := h.fetchPage(c, req.URL)
		if err != nil {
			h.logger.WithError(err).WithField("url", req.URL).Error("Failed to fetch search page")
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch search page"})
			return
		}
		html = fetched
	}

	properties, err := h.extractor.Parse(strings.NewReader(html))
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse search page")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to parse search page"})
		return
	}

	collector := &outcomeCollector{}
	report := h.orchestrator.Run(c.Request.Context(), sctx, properties, analysis.Tee(collector, h.recorder))
	h.recorder.Flush()

	outcomes := collector.outcomes
	if !h.cfg.Analysis.Display.IncludeSampleProperties {
		outcomes = stripSampleProperties(outcomes)
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Report: report, Outcomes: outcomes})
}

func (h *Handler) fetchPage(c *gin.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	httputil.SetBrowserHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetResults returns persisted analysis records, newest first.
func (h *Handler) GetResults(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	records, err := h.store.GetRecords(c.Request.Context(), c.Query("location"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get analysis records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get analysis records"})
		return
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}

	c.JSON(http.StatusOK, records)
}

// GetStats returns aggregate statistics over persisted outcomes.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context(), c.Query("location"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get analysis stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get analysis stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ClearCache drops all cached market summaries.
func (h *Handler) ClearCache(c *gin.Context) {
	h.cache.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// outcomeCollector buffers outcomes for the HTTP response.
type outcomeCollector struct {
	outcomes []models.Outcome
}

func (s *outcomeCollector) Emit(outcome models.Outcome) {
	s.outcomes = append(s.outcomes, outcome)
}

// stripSampleProperties removes the raw comparable listings from market
// summaries, keeping only the aggregates.
func stripSampleProperties(outcomes []models.Outcome) []models.Outcome {
	stripped := make([]models.Outcome, len(outcomes))
	for i, o := range outcomes {
		if o.Market != nil {
			market := *o.Market
			market.Properties = nil
			o.Market = &market
		}
		stripped[i] = o
	}
	return stripped
}
