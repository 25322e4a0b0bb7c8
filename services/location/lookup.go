package location

import (
	"context"
	"strings"

	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/addressnorm"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type UpdateType string

const (
	UpdateSetCity     UpdateType = "setCity"
	UpdateSetRegion   UpdateType = "setRegion"
	UpdateClearRegion UpdateType = "clearRegion"
)

// Update is a change to the address the caller is asked to apply.
type Update struct {
	Type  UpdateType
	Value string
}

type Lookup struct {
	catalog Catalog
	postal  PostalLookup
	logger  mylog.Logger
}

func New(catalog Catalog, postal PostalLookup) *Lookup {
	return &Lookup{
		catalog: catalog,
		postal:  postal,
		logger:  mylog.New("location"),
	}
}

func (l *Lookup) Countries(c context.Context) (checkoutapi.CountryCatalog, error) {
	return l.catalog.Countries(c)
}

// UpdateAvailableStates resolves the states of a country and asks to clear currentRegion when it is not one of them.
// Countries without a state list accept any region.
func (l *Lookup) UpdateAvailableStates(c context.Context, countryCode string, currentRegion string) ([]checkoutapi.State, []Update, error) {
	if strings.TrimSpace(countryCode) == "" {
		return []checkoutapi.State{}, nil, nil
	}

	states, err := l.catalog.States(c, countryCode)
	if err != nil {
		return nil, nil, err
	}

	if currentRegion == "" || len(states) == 0 || containsRegion(states, currentRegion) {
		return states, nil, nil
	}

	return states, []Update{{Type: UpdateClearRegion}}, nil
}

func containsRegion(states []checkoutapi.State, region string) bool {
	normalized := addressnorm.NormalizeRegion(region)
	for _, s := range states {
		if strings.EqualFold(s.Code, normalized) || strings.EqualFold(s.Name, strings.TrimSpace(region)) {
			return true
		}
	}
	return false
}

// HandleZipCodeChange tries to derive city and region from a postal code.
// This is a convenience: incomplete codes and lookup failures simply yield no updates.
func (l *Lookup) HandleZipCodeChange(c context.Context, postalCode string, countryCode string) []Update {
	if strings.TrimSpace(countryCode) == "" || !addressnorm.ValidatePostalCode(postalCode, countryCode).Valid {
		return nil
	}

	place, found, err := l.postal.Lookup(c, postalCode, countryCode)
	if err != nil {
		l.logger.Log(c, postalCode, mylog.SeverityWarn, "Postal lookup for %s/%s failed: %s", countryCode, postalCode, err)
		return nil
	}
	if !found {
		return nil
	}

	updates := []Update{}
	if place.City != "" {
		updates = append(updates, Update{Type: UpdateSetCity, Value: place.City})
	}
	if place.Region != "" {
		updates = append(updates, Update{Type: UpdateSetRegion, Value: addressnorm.NormalizeRegion(place.Region)})
	}
	return updates
}

// ApplyUpdates returns the address with the updates applied in order.
func ApplyUpdates(address checkoutapi.PostalAddress, updates []Update) checkoutapi.PostalAddress {
	for _, u := range updates {
		switch u.Type {
		case UpdateSetCity:
			address.City = u.Value
		case UpdateSetRegion:
			address.Region = u.Value
		case UpdateClearRegion:
			address.Region = ""
		}
	}
	return address
}
