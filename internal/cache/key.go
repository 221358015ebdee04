package cache

import (
	"net/url"
	"strings"

	"yieldista/internal/models"
)

// groupingParams are the only query parameters that distinguish cache keys.
// Everything property-specific is dropped so similar searches coalesce.
var groupingParams = []string{"location", "rooms", "bathrooms", "minSize", "maxSize", "minPrice", "maxPrice"}

// BuildKey derives the bucketed cache key for a comparable URL and its
// reference property. Room count and size are coarsened into buckets so that
// dissimilar-but-nearby properties share one fetched sample. A malformed URL
// degrades to the raw URL as key.
func BuildKey(comparableURL string, ref *models.Property) string {
	u, err := url.Parse(comparableURL)
	if err != nil {
		return comparableURL
	}

	filtered := url.Values{}
	query := u.Query()
	for _, param := range groupingParams {
		if value := query.Get(param); value != "" {
			filtered.Set(param, value)
		}
	}

	var b strings.Builder
	b.WriteString(u.Path)
	b.WriteString("?")
	b.WriteString(filtered.Encode())
	b.WriteString("&rooms_group=")
	b.WriteString(roomsBucket(ref.RoomCount()))
	b.WriteString("&size_group=")
	b.WriteString(sizeBucket(ref.SizeSqm()))
	return b.String()
}

func roomsBucket(rooms int) string {
	switch {
	case rooms <= 1:
		return "1"
	case rooms == 2:
		return "2"
	case rooms == 3:
		return "3"
	default:
		return "4+"
	}
}

func sizeBucket(size int) string {
	switch {
	case size <= 50:
		return "small"
	case size <= 80:
		return "medium"
	case size <= 120:
		return "large"
	default:
		return "xlarge"
	}
}
