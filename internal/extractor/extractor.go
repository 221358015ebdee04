package extractor

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"yieldista/config"
	"yieldista/internal/models"
)

// Extractor turns a search-page document into property records using the
// selectors of a site profile. Extraction is best-effort: a card missing its
// required id is skipped, a malformed field gets its zero value, and the
// whole-document pass never fails.
type Extractor struct {
	site   *config.SiteProfile
	logger *logrus.Logger

	roomsPattern *regexp.Regexp
	sizePattern  *regexp.Regexp
}

func New(site *config.SiteProfile, logger *logrus.Logger) *Extractor {
	return &Extractor{
		site:         site,
		logger:       logger,
		roomsPattern: regexp.MustCompile(`(\d+)\s*` + regexp.QuoteMeta(site.RoomsSuffix)),
		sizePattern:  regexp.MustCompile(`(\d+)\s*` + regexp.QuoteMeta(site.SizeSuffix)),
	}
}

// Parse reads an HTML body and extracts all property records it contains.
// The error is non-nil only when the body cannot be parsed as HTML at all.
func (e *Extractor) Parse(r io.Reader) ([]models.Property, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return e.FromDocument(doc), nil
}

// FromDocument extracts property records in document order.
func (e *Extractor) FromDocument(doc *goquery.Document) []models.Property {
	var properties []models.Property

	doc.Find(e.site.Selectors.Card).Each(func(i int, card *goquery.Selection) {
		property, ok := e.extractCard(card)
		if !ok {
			e.logger.WithField("index", i).Debug("Skipping listing card without id")
			return
		}
		properties = append(properties, property)
	})

	e.logger.WithField("count", len(properties)).Debug("Extracted properties from document")
	return properties
}

func (e *Extractor) extractCard(card *goquery.Selection) (models.Property, bool) {
	id, exists := card.Attr(e.site.Selectors.IDAttr)
	if !exists || id == "" {
		return models.Property{}, false
	}

	link := card.Find(e.site.Selectors.Link).First()
	title := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")

	property := models.Property{
		ID:          id,
		Title:       title,
		Price:       parsePrice(card.Find(e.site.Selectors.Price).First().Text()),
		HasParking:  card.Find(e.site.Selectors.Parking).Length() > 0,
		Description: strings.TrimSpace(card.Find(e.site.Selectors.Description).First().Text()),
		URL:         href,
		Location:    locationFromTitle(title),
	}

	card.Find(e.site.Selectors.Detail).Each(func(_ int, detail *goquery.Selection) {
		text := strings.TrimSpace(detail.Text())
		switch {
		case strings.Contains(text, e.site.RoomsSuffix):
			if m := e.roomsPattern.FindStringSubmatch(text); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					property.Rooms = &n
				}
			}
		case strings.Contains(text, e.site.SizeSuffix):
			if m := e.sizePattern.FindStringSubmatch(text); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					property.Size = &n
				}
			}
		case property.Floor == nil && containsAny(text, e.site.FloorKeywords):
			floor := text
			property.Floor = &floor
		}
	})

	card.Find(e.site.Selectors.Tags).Each(func(_ int, tag *goquery.Selection) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			property.Tags = append(property.Tags, text)
		}
	})

	return property, true
}

var priceStripper = strings.NewReplacer("€", "", ".", "", ",", "", " ", "")

// parsePrice converts a display price like "450.000 €" or "800 €/mes" into
// its integer value. Only the leading digit run counts, so unit suffixes are
// ignored. An unparseable price yields 0, never an error.
func parsePrice(text string) int {
	cleaned := priceStripper.Replace(strings.TrimSpace(text))
	cleaned = strings.Join(strings.Fields(cleaned), "")

	end := 0
	for end < len(cleaned) && cleaned[end] >= '0' && cleaned[end] <= '9' {
		end++
	}

	price, err := strconv.Atoi(cleaned[:end])
	if err != nil {
		return 0
	}
	return price
}

// locationFromTitle applies the portal's title convention "type in street,
// district, city": the second-to-last comma segment is the district.
func locationFromTitle(title string) string {
	parts := strings.Split(title, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-2])
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
