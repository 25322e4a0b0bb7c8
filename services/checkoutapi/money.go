package checkoutapi

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ISO 4217 currencies whose minor unit is not the cent.
var minorUnitDigits = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// MinorUnitDigits is the number of decimals of the smallest unit of a currency.
func MinorUnitDigits(currency string) int32 {
	digits, found := minorUnitDigits[strings.ToUpper(currency)]
	if !found {
		return 2
	}
	return digits
}

// Amount is money expressed in the minor unit of its currency.
type Amount struct {
	Currency string
	Value    int64
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Value, -MinorUnitDigits(a.Currency))
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Currency, a.Decimal().StringFixed(MinorUnitDigits(a.Currency)))
}

// AmountFromDecimal rounds half away from zero to whole minor units.
func AmountFromDecimal(currency string, d decimal.Decimal) Amount {
	return Amount{
		Currency: currency,
		Value:    d.Shift(MinorUnitDigits(currency)).Round(0).IntPart(),
	}
}
