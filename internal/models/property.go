package models

// TransactionType classifies a search page by the kind of listings it shows.
type TransactionType string

const (
	TransactionSale    TransactionType = "sale"
	TransactionRental  TransactionType = "rental"
	TransactionUnknown TransactionType = "unknown"
)

// Opposite returns the transaction type of the comparable market: rentals for
// a sale search and vice versa.
func (t TransactionType) Opposite() TransactionType {
	switch t {
	case TransactionSale:
		return TransactionRental
	case TransactionRental:
		return TransactionSale
	default:
		return TransactionUnknown
	}
}

// Property is one listing card extracted from a search page. Immutable after
// extraction.
type Property struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Price       int      `json:"price"`
	Rooms       *int     `json:"rooms"`
	Size        *int     `json:"size"`
	Floor       *string  `json:"floor"`
	HasParking  bool     `json:"has_parking"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
}

// RoomCount returns the room count or 0 when the card did not expose one.
func (p *Property) RoomCount() int {
	if p.Rooms == nil {
		return 0
	}
	return *p.Rooms
}

// SizeSqm returns the surface in m² or 0 when the card did not expose one.
func (p *Property) SizeSqm() int {
	if p.Size == nil {
		return 0
	}
	return *p.Size
}

// SearchContext is the classification of the page under analysis.
type SearchContext struct {
	IsTargetSite     bool            `json:"is_target_site"`
	TransactionType  TransactionType `json:"transaction_type"`
	Location         string          `json:"location"`
	HasActiveFilters bool            `json:"has_active_filters"`
}

// MarketSummary aggregates the valid-priced listings of one comparable page.
// A nil *MarketSummary means "no data"; a non-nil summary always has
// SampleSize > 0 and MinPrice <= AveragePrice <= MaxPrice.
type MarketSummary struct {
	AveragePrice int        `json:"average_price"`
	MinPrice     int        `json:"min_price"`
	MaxPrice     int        `json:"max_price"`
	SampleSize   int        `json:"sample_size"`
	Properties   []Property `json:"properties,omitempty"`
}
