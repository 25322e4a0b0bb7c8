package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

var (
	catalog = checkoutapi.CountryCatalog{
		Countries: []checkoutapi.Country{
			{Code: "US", Name: "United States", Shippable: true},
			{Code: "DE", Name: "Germany", Shippable: true},
			{Code: "CA", Name: "Canada", Shippable: true},
			{Code: "KP", Name: "North Korea", Shippable: false},
		},
	}
	usOnlyShirt = checkoutapi.CartLineItem{
		ProductID:       "shirt",
		VariantID:       "shirt-m",
		Name:            "Logo T-Shirt",
		Quantity:        1,
		ShippingRegions: &checkoutapi.ShippingRegions{Countries: []string{"US"}},
	}
	northAmericaMug = checkoutapi.CartLineItem{
		ProductID:       "mug",
		VariantID:       "mug-11oz",
		Name:            "Mug",
		Quantity:        2,
		ShippingRegions: &checkoutapi.ShippingRegions{Countries: []string{"US", "CA"}},
	}
	worldwidePoster = checkoutapi.CartLineItem{
		ProductID:       "poster",
		VariantID:       "poster-a2",
		Name:            "Poster",
		Quantity:        1,
		ShippingRegions: &checkoutapi.ShippingRegions{All: true},
	}
	unrestrictedSticker = checkoutapi.CartLineItem{
		ProductID: "sticker",
		VariantID: "sticker-s",
		Name:      "Sticker",
		Quantity:  5,
	}
)

func TestCheckCompatibility(t *testing.T) {
	t.Run("Everything ships to US", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{usOnlyShirt, northAmericaMug, worldwidePoster, unrestrictedSticker}, "US", catalog)
		assert.Empty(t, result)
	})

	t.Run("US-only item blocked for DE", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{usOnlyShirt, worldwidePoster}, "DE", catalog)
		assert.Equal(t, []checkoutapi.IncompatibleItem{
			{Item: usOnlyShirt, Destination: "DE", Reason: "Ships only to United States"},
		}, result)
	})

	t.Run("Lowercase destination", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{northAmericaMug}, "de", catalog)
		assert.Len(t, result, 1)
		assert.Equal(t, "Ships only to United States, Canada", result[0].Reason)
	})

	t.Run("Catalog blocks whole destination", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{worldwidePoster, unrestrictedSticker}, "KP", catalog)
		assert.Len(t, result, 2)
		assert.Equal(t, "We do not ship to North Korea", result[0].Reason)
	})

	t.Run("No destination yet", func(t *testing.T) {
		assert.Empty(t, CheckCompatibility([]checkoutapi.CartLineItem{usOnlyShirt}, "", catalog))
	})

	t.Run("Pure", func(t *testing.T) {
		items := []checkoutapi.CartLineItem{usOnlyShirt, northAmericaMug, worldwidePoster}
		first := CheckCompatibility(items, "DE", catalog)
		second := CheckCompatibility(items, "DE", catalog)
		assert.Equal(t, first, second)
		assert.Equal(t, FormatIncompatibilityMessage(first, catalog), FormatIncompatibilityMessage(second, catalog))
	})
}

func TestFormatIncompatibilityMessage(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", FormatIncompatibilityMessage(nil, catalog))
	})

	t.Run("Single", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{usOnlyShirt}, "DE", catalog)
		assert.Equal(t, `"Logo T-Shirt" cannot be shipped to Germany (Ships only to United States). Remove it or choose another shipping address.`,
			FormatIncompatibilityMessage(result, catalog))
	})

	t.Run("Multiple", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{usOnlyShirt, northAmericaMug}, "DE", catalog)
		assert.Equal(t, `2 items cannot be shipped to Germany: "Logo T-Shirt" (Ships only to United States), "Mug" (Ships only to United States, Canada). Remove them or choose another shipping address.`,
			FormatIncompatibilityMessage(result, catalog))
	})

	t.Run("Unknown country uses code", func(t *testing.T) {
		result := CheckCompatibility([]checkoutapi.CartLineItem{usOnlyShirt}, "FR", catalog)
		assert.Contains(t, FormatIncompatibilityMessage(result, catalog), "cannot be shipped to FR")
	})
}
