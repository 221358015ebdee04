package search

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/models"
)

// Generator builds comparable-search URLs: the opposite transaction type in
// the same location, filtered by the reference property's rooms and size.
type Generator struct {
	site   *config.SiteProfile
	logger *logrus.Logger
}

func NewGenerator(site *config.SiteProfile, logger *logrus.Logger) *Generator {
	return &Generator{site: site, logger: logger}
}

// ComparableURL returns the search URL whose listings are used to estimate
// the market for the reference property. A missing location degrades to the
// unfiltered base search; callers get a low-relevance sample, not an error.
func (g *Generator) ComparableURL(transactionType models.TransactionType, location string, ref *models.Property) string {
	base := g.site.BaseURLFor(transactionType == models.TransactionSale)

	if location == "" {
		g.logger.WithField("property_id", ref.ID).
			Warn("No location for comparable URL, falling back to unfiltered search")
		return base + "/"
	}

	u := base + "/" + location + "/"

	params := url.Values{}
	if rooms := ref.RoomCount(); rooms > 0 {
		params.Set(g.site.RoomsParam, strconv.Itoa(rooms))
	}
	if size := ref.SizeSqm(); size > 0 {
		minSize := size - g.site.SizeWindow
		if minSize < 1 {
			minSize = 1
		}
		maxSize := size + g.site.SizeWindow
		params.Set(g.site.SizeParam, fmt.Sprintf("%d-%d", minSize, maxSize))
	}

	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
