package search

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"yieldista/config"
	"yieldista/internal/models"
)

func intPtr(v int) *int { return &v }

func TestGenerator_ComparableURL(t *testing.T) {
	gen := NewGenerator(config.DefaultSite(), logrus.New())

	tests := []struct {
		name     string
		txType   models.TransactionType
		location string
		property models.Property
		expected string
	}{
		{
			name:     "Rental comparable with rooms and size window",
			txType:   models.TransactionRental,
			location: "madrid",
			property: models.Property{ID: "1", Rooms: intPtr(3), Size: intPtr(70)},
			expected: "https://www.idealista.com/alquiler-viviendas/madrid/?habitaciones=3&superficie=50-90",
		},
		{
			name:     "Size window clamps at one square metre",
			txType:   models.TransactionRental,
			location: "madrid",
			property: models.Property{ID: "2", Size: intPtr(15)},
			expected: "https://www.idealista.com/alquiler-viviendas/madrid/?superficie=1-35",
		},
		{
			name:     "No filters when rooms and size are unknown",
			txType:   models.TransactionRental,
			location: "valencia",
			property: models.Property{ID: "3"},
			expected: "https://www.idealista.com/alquiler-viviendas/valencia/",
		},
		{
			name:     "Sale comparable for a rental subject",
			txType:   models.TransactionSale,
			location: "sevilla",
			property: models.Property{ID: "4", Rooms: intPtr(2)},
			expected: "https://www.idealista.com/venta-viviendas/sevilla/?habitaciones=2",
		},
		{
			name:     "Missing location degrades to unfiltered base",
			txType:   models.TransactionRental,
			location: "",
			property: models.Property{ID: "5", Rooms: intPtr(3)},
			expected: "https://www.idealista.com/alquiler-viviendas/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := gen.ComparableURL(tt.txType, tt.location, &tt.property)
			assert.Equal(t, tt.expected, url)
		})
	}
}
