package search

import (
	"net/url"
	"strings"

	"yieldista/config"
	"yieldista/internal/models"
)

// Analyzer classifies portal URLs into a search context.
type Analyzer struct {
	site *config.SiteProfile
}

func NewAnalyzer(site *config.SiteProfile) *Analyzer {
	return &Analyzer{site: site}
}

// Classify inspects a URL and decides whether it is a search-listing page of
// the target portal, and if so for which transaction type and location.
// Property-detail pages and foreign hosts classify as unknown/not-target.
func (a *Analyzer) Classify(rawURL string) models.SearchContext {
	ctx := models.SearchContext{TransactionType: models.TransactionUnknown}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ctx
	}

	var marker string
	switch {
	case strings.Contains(u.Path, a.site.SalePathMarker):
		ctx.TransactionType = models.TransactionSale
		marker = a.site.SalePathMarker
	case strings.Contains(u.Path, a.site.RentalPathMarker):
		ctx.TransactionType = models.TransactionRental
		marker = a.site.RentalPathMarker
	}

	if marker != "" {
		ctx.Location = locationAfterMarker(u.Path, marker)
	}

	ctx.HasActiveFilters = u.RawQuery != ""
	ctx.IsTargetSite = u.Hostname() == a.site.Hostname &&
		ctx.TransactionType != models.TransactionUnknown

	return ctx
}

// locationAfterMarker extracts the path segment immediately following the
// transaction marker, e.g. "/venta-viviendas/madrid/retiro/" -> "madrid".
func locationAfterMarker(path, marker string) string {
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	rest := path[idx+len(marker):]
	if seg, _, found := strings.Cut(rest, "/"); found || seg != "" {
		return seg
	}
	return ""
}
