package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteProfile describes the target portal: how its search URLs are shaped and
// which DOM selectors carry listing data. Markup-dependent values live here so
// a site redesign is a config change, not a code change.
type SiteProfile struct {
	ID       string `yaml:"id"`
	Hostname string `yaml:"hostname"`

	// Path markers identifying sale and rental search pages
	SalePathMarker   string `yaml:"sale_path_marker"`
	RentalPathMarker string `yaml:"rental_path_marker"`

	// Base URLs (no trailing slash) for generated comparable searches
	SaleBaseURL   string `yaml:"sale_base_url"`
	RentalBaseURL string `yaml:"rental_base_url"`

	// Query parameter names used by generated searches
	RoomsParam string `yaml:"rooms_param"`
	SizeParam  string `yaml:"size_param"`

	// Tolerance window (m²) applied around the reference size
	SizeWindow int `yaml:"size_window"`

	Selectors SiteSelectors `yaml:"selectors"`

	// Localized text patterns inside listing detail nodes
	RoomsSuffix   string   `yaml:"rooms_suffix"`
	SizeSuffix    string   `yaml:"size_suffix"`
	FloorKeywords []string `yaml:"floor_keywords"`
}

// SiteSelectors are the CSS selectors for one listing card and its parts.
type SiteSelectors struct {
	Card        string `yaml:"card"`
	IDAttr      string `yaml:"id_attr"`
	Price       string `yaml:"price"`
	Link        string `yaml:"link"`
	Detail      string `yaml:"detail"`
	Parking     string `yaml:"parking"`
	Description string `yaml:"description"`
	Tags        string `yaml:"tags"`
}

// DefaultSite returns the builtin idealista.com profile.
func DefaultSite() *SiteProfile {
	return &SiteProfile{
		ID:               "idealista",
		Hostname:         "www.idealista.com",
		SalePathMarker:   "/venta-viviendas/",
		RentalPathMarker: "/alquiler-viviendas/",
		SaleBaseURL:      "https://www.idealista.com/venta-viviendas",
		RentalBaseURL:    "https://www.idealista.com/alquiler-viviendas",
		RoomsParam:       "habitaciones",
		SizeParam:        "superficie",
		SizeWindow:       20,
		Selectors: SiteSelectors{
			Card:        "article.item[data-element-id]",
			IDAttr:      "data-element-id",
			Price:       ".item-price",
			Link:        ".item-link",
			Detail:      ".item-detail",
			Parking:     ".item-parking",
			Description: ".item-description .ellipsis",
			Tags:        ".listing-tags",
		},
		RoomsSuffix:   "hab.",
		SizeSuffix:    "m²",
		FloorKeywords: []string{"Planta", "Bajo"},
	}
}

// LoadSiteProfile reads a site profile from a YAML file, falling back to the
// builtin default when the path is empty or the file does not exist.
func LoadSiteProfile(path string) (*SiteProfile, error) {
	if path == "" {
		return DefaultSite(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSite(), nil
		}
		return nil, fmt.Errorf("failed to read site profile: %w", err)
	}

	site := DefaultSite()
	if err := yaml.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("failed to parse site profile: %w", err)
	}

	if site.Hostname == "" {
		return nil, fmt.Errorf("site profile %s has no hostname", path)
	}
	return site, nil
}

// BaseURLFor returns the search base URL for a transaction marker.
func (s *SiteProfile) BaseURLFor(sale bool) string {
	if sale {
		return s.SaleBaseURL
	}
	return s.RentalBaseURL
}

var locationCleaner = regexp.MustCompile(`[^a-z0-9-]+`)

// NormalizeLocation converts a human location name into the slug form the
// portal expects in search paths ("Alcalá de Henares" -> "alcala-de-henares"
// modulo accents, which callers should have stripped upstream).
func NormalizeLocation(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	slug = locationCleaner.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}
