package shipping

import (
	"fmt"
	"strings"

	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

// CheckCompatibility returns the items that cannot be shipped to destinationCountry.
// It only looks at the data it is given; the catalog must have been loaded beforehand.
func CheckCompatibility(items []checkoutapi.CartLineItem, destinationCountry string, catalog checkoutapi.CountryCatalog) []checkoutapi.IncompatibleItem {
	destination := strings.ToUpper(strings.TrimSpace(destinationCountry))
	if destination == "" {
		return []checkoutapi.IncompatibleItem{}
	}

	countryName := catalog.NameOf(destination)
	country, known := catalog.Lookup(destination)
	blockedByCatalog := known && !country.Shippable

	incompatible := []checkoutapi.IncompatibleItem{}
	for _, item := range items {
		if blockedByCatalog {
			incompatible = append(incompatible, checkoutapi.IncompatibleItem{
				Item:        item,
				Destination: destination,
				Reason:      fmt.Sprintf("We do not ship to %s", countryName),
			})
			continue
		}
		if !item.ShippingRegions.Allows(destination) {
			incompatible = append(incompatible, checkoutapi.IncompatibleItem{
				Item:        item,
				Destination: destination,
				Reason:      fmt.Sprintf("Ships only to %s", strings.Join(namesOf(item.ShippingRegions.Countries, catalog), ", ")),
			})
		}
	}

	return incompatible
}

func namesOf(codes []string, catalog checkoutapi.CountryCatalog) []string {
	if len(codes) == 0 {
		return []string{"no countries"}
	}
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, catalog.NameOf(strings.ToUpper(code)))
	}
	return names
}

// FormatIncompatibilityMessage summarizes an incompatibility list for the shopper.
// The same input always yields the same text.
func FormatIncompatibilityMessage(list []checkoutapi.IncompatibleItem, catalog checkoutapi.CountryCatalog) string {
	if len(list) == 0 {
		return ""
	}

	countryName := catalog.NameOf(list[0].Destination)

	if len(list) == 1 {
		return fmt.Sprintf("%q cannot be shipped to %s (%s). Remove it or choose another shipping address.",
			list[0].Item.Name, countryName, list[0].Reason)
	}

	names := make([]string, 0, len(list))
	for _, incompatible := range list {
		names = append(names, fmt.Sprintf("%q (%s)", incompatible.Item.Name, incompatible.Reason))
	}
	return fmt.Sprintf("%d items cannot be shipped to %s: %s. Remove them or choose another shipping address.",
		len(list), countryName, strings.Join(names, ", "))
}
