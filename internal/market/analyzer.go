package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"yieldista/internal/cache"
	"yieldista/internal/extractor"
	"yieldista/internal/httputil"
	"yieldista/internal/models"
	"yieldista/internal/retry"
)

// Analyzer resolves a comparable-search URL into a market summary. Summaries
// are cached under bucketed keys, so within one TTL window a given
// comparable URL costs at most one network fetch no matter how many subject
// properties map to it.
type Analyzer struct {
	client    *http.Client
	extractor *extractor.Extractor
	cache     *cache.MarketCache
	policy    *retry.Policy
	logger    *logrus.Logger
}

func NewAnalyzer(client *http.Client, ex *extractor.Extractor, c *cache.MarketCache, policy *retry.Policy, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		client:    client,
		extractor: ex,
		cache:     c,
		policy:    policy,
		logger:    logger,
	}
}

// FetchSummary returns the market summary for comparableURL. A nil summary
// with nil error means the comparable page had no valid-priced listings
// ("no data"); empty results are never cached. Transient fetch failures are
// retried per the policy before the error is surfaced.
func (a *Analyzer) FetchSummary(ctx context.Context, comparableURL string, ref *models.Property) (*models.MarketSummary, error) {
	key := cache.BuildKey(comparableURL, ref)

	if summary := a.cache.Get(key); summary != nil {
		a.logger.WithField("key", key).Debug("Comparable market served from cache")
		return summary, nil
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		summary, err := a.fetchOnce(ctx, comparableURL)
		if err == nil {
			if summary == nil {
				return nil, nil
			}
			a.cache.Set(key, summary, 0)
			return summary, nil
		}

		lastErr = err
		if !a.policy.ShouldRetry(err, attempt) {
			break
		}

		delay := a.policy.DelayFor(attempt)
		a.logger.WithError(err).WithFields(logrus.Fields{
			"url":     comparableURL,
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warn("Comparable fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("comparable fetch failed: %w", lastErr)
}

func (a *Analyzer) fetchOnce(ctx context.Context, comparableURL string) (*models.MarketSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, comparableURL, nil)
	if err != nil {
		return nil, &retry.ParseError{Err: err}
	}
	httputil.SetBrowserHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, URL: comparableURL}
	}

	properties, err := a.extractor.Parse(resp.Body)
	if err != nil {
		return nil, &retry.ParseError{Err: err}
	}

	return Summarize(properties), nil
}

// Summarize reduces extracted listings to a market summary over their
// valid prices. Returns nil when no listing carries a positive price.
func Summarize(properties []models.Property) *models.MarketSummary {
	var priced []models.Property
	for _, p := range properties {
		if p.Price > 0 {
			priced = append(priced, p)
		}
	}
	if len(priced) == 0 {
		return nil
	}

	sort.Slice(priced, func(i, j int) bool { return priced[i].Price < priced[j].Price })

	sum := 0
	for _, p := range priced {
		sum += p.Price
	}

	return &models.MarketSummary{
		AveragePrice: int(math.Round(float64(sum) / float64(len(priced)))),
		MinPrice:     priced[0].Price,
		MaxPrice:     priced[len(priced)-1].Price,
		SampleSize:   len(priced),
		Properties:   priced,
	}
}
