package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

// TaxCalculator computes the tax due on the goods of an order shipped to a destination.
type TaxCalculator interface {
	TaxFor(destination checkoutapi.PostalAddress, subtotal checkoutapi.Amount) checkoutapi.Amount
}

type flatRateTax struct {
	rates map[string]decimal.Decimal
}

// NewFlatRateTax applies one rate per destination country; unlisted countries are not taxed.
func NewFlatRateTax(rates map[string]string) (TaxCalculator, error) {
	parsed := map[string]decimal.Decimal{}
	for country, rate := range rates {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, err
		}
		parsed[strings.ToUpper(country)] = d
	}
	return &flatRateTax{rates: parsed}, nil
}

func DefaultTaxRates() map[string]string {
	return map[string]string{
		"AU": "0.10",
		"CA": "0.05",
		"DE": "0.19",
		"ES": "0.21",
		"FR": "0.20",
		"GB": "0.20",
		"IT": "0.22",
		"JP": "0.10",
		"NL": "0.21",
		"SE": "0.25",
	}
}

func (t *flatRateTax) TaxFor(destination checkoutapi.PostalAddress, subtotal checkoutapi.Amount) checkoutapi.Amount {
	rate, found := t.rates[strings.ToUpper(destination.CountryCode)]
	if !found || subtotal.Value <= 0 {
		return checkoutapi.Amount{Currency: subtotal.Currency, Value: 0}
	}
	return checkoutapi.AmountFromDecimal(subtotal.Currency, subtotal.Decimal().Mul(rate))
}
