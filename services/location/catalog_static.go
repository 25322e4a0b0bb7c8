package location

import (
	"context"
	"strings"

	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type staticCatalog struct {
	countries checkoutapi.CountryCatalog
	states    map[string][]checkoutapi.State
}

// NewStaticCatalog serves a fixed country list, for local development and tests.
func NewStaticCatalog() Catalog {
	return &staticCatalog{
		countries: checkoutapi.CountryCatalog{
			Countries: []checkoutapi.Country{
				{Code: "US", Name: "United States", Shippable: true},
				{Code: "CA", Name: "Canada", Shippable: true},
				{Code: "AU", Name: "Australia", Shippable: true},
				{Code: "JP", Name: "Japan", Shippable: true},
				{Code: "GB", Name: "United Kingdom", Shippable: true},
				{Code: "DE", Name: "Germany", Shippable: true},
				{Code: "FR", Name: "France", Shippable: true},
				{Code: "NL", Name: "Netherlands", Shippable: true},
				{Code: "IT", Name: "Italy", Shippable: true},
				{Code: "ES", Name: "Spain", Shippable: true},
				{Code: "SE", Name: "Sweden", Shippable: true},
				{Code: "BR", Name: "Brazil", Shippable: true},
				{Code: "IN", Name: "India", Shippable: true},
				{Code: "RU", Name: "Russia", Shippable: false},
			},
		},
		states: map[string][]checkoutapi.State{
			"US": usStates,
			"CA": caProvinces,
			"AU": auStates,
			"JP": jpPrefectures,
		},
	}
}

func (cat *staticCatalog) Countries(c context.Context) (checkoutapi.CountryCatalog, error) {
	return cat.countries, nil
}

func (cat *staticCatalog) States(c context.Context, countryCode string) ([]checkoutapi.State, error) {
	states, found := cat.states[strings.ToUpper(countryCode)]
	if !found {
		return []checkoutapi.State{}, nil
	}
	return states, nil
}

var usStates = []checkoutapi.State{
	{Code: "AL", Name: "Alabama"}, {Code: "AK", Name: "Alaska"}, {Code: "AZ", Name: "Arizona"},
	{Code: "AR", Name: "Arkansas"}, {Code: "CA", Name: "California"}, {Code: "CO", Name: "Colorado"},
	{Code: "CT", Name: "Connecticut"}, {Code: "DE", Name: "Delaware"}, {Code: "DC", Name: "District of Columbia"},
	{Code: "FL", Name: "Florida"}, {Code: "GA", Name: "Georgia"}, {Code: "HI", Name: "Hawaii"},
	{Code: "ID", Name: "Idaho"}, {Code: "IL", Name: "Illinois"}, {Code: "IN", Name: "Indiana"},
	{Code: "IA", Name: "Iowa"}, {Code: "KS", Name: "Kansas"}, {Code: "KY", Name: "Kentucky"},
	{Code: "LA", Name: "Louisiana"}, {Code: "ME", Name: "Maine"}, {Code: "MD", Name: "Maryland"},
	{Code: "MA", Name: "Massachusetts"}, {Code: "MI", Name: "Michigan"}, {Code: "MN", Name: "Minnesota"},
	{Code: "MS", Name: "Mississippi"}, {Code: "MO", Name: "Missouri"}, {Code: "MT", Name: "Montana"},
	{Code: "NE", Name: "Nebraska"}, {Code: "NV", Name: "Nevada"}, {Code: "NH", Name: "New Hampshire"},
	{Code: "NJ", Name: "New Jersey"}, {Code: "NM", Name: "New Mexico"}, {Code: "NY", Name: "New York"},
	{Code: "NC", Name: "North Carolina"}, {Code: "ND", Name: "North Dakota"}, {Code: "OH", Name: "Ohio"},
	{Code: "OK", Name: "Oklahoma"}, {Code: "OR", Name: "Oregon"}, {Code: "PA", Name: "Pennsylvania"},
	{Code: "RI", Name: "Rhode Island"}, {Code: "SC", Name: "South Carolina"}, {Code: "SD", Name: "South Dakota"},
	{Code: "TN", Name: "Tennessee"}, {Code: "TX", Name: "Texas"}, {Code: "UT", Name: "Utah"},
	{Code: "VT", Name: "Vermont"}, {Code: "VA", Name: "Virginia"}, {Code: "WA", Name: "Washington"},
	{Code: "WV", Name: "West Virginia"}, {Code: "WI", Name: "Wisconsin"}, {Code: "WY", Name: "Wyoming"},
	{Code: "PR", Name: "Puerto Rico"},
}

var caProvinces = []checkoutapi.State{
	{Code: "AB", Name: "Alberta"}, {Code: "BC", Name: "British Columbia"}, {Code: "MB", Name: "Manitoba"},
	{Code: "NB", Name: "New Brunswick"}, {Code: "NL", Name: "Newfoundland and Labrador"}, {Code: "NS", Name: "Nova Scotia"},
	{Code: "NT", Name: "Northwest Territories"}, {Code: "NU", Name: "Nunavut"}, {Code: "ON", Name: "Ontario"},
	{Code: "PE", Name: "Prince Edward Island"}, {Code: "QC", Name: "Quebec"}, {Code: "SK", Name: "Saskatchewan"},
	{Code: "YT", Name: "Yukon"},
}

var auStates = []checkoutapi.State{
	{Code: "ACT", Name: "Australian Capital Territory"}, {Code: "NSW", Name: "New South Wales"},
	{Code: "NT", Name: "Northern Territory"}, {Code: "QLD", Name: "Queensland"}, {Code: "SA", Name: "South Australia"},
	{Code: "TAS", Name: "Tasmania"}, {Code: "VIC", Name: "Victoria"}, {Code: "WA", Name: "Western Australia"},
}

var jpPrefectures = []checkoutapi.State{
	{Code: "01", Name: "Hokkaido"}, {Code: "02", Name: "Aomori"}, {Code: "03", Name: "Iwate"}, {Code: "04", Name: "Miyagi"},
	{Code: "05", Name: "Akita"}, {Code: "06", Name: "Yamagata"}, {Code: "07", Name: "Fukushima"}, {Code: "08", Name: "Ibaraki"},
	{Code: "09", Name: "Tochigi"}, {Code: "10", Name: "Gunma"}, {Code: "11", Name: "Saitama"}, {Code: "12", Name: "Chiba"},
	{Code: "13", Name: "Tokyo"}, {Code: "14", Name: "Kanagawa"}, {Code: "15", Name: "Niigata"}, {Code: "16", Name: "Toyama"},
	{Code: "17", Name: "Ishikawa"}, {Code: "18", Name: "Fukui"}, {Code: "19", Name: "Yamanashi"}, {Code: "20", Name: "Nagano"},
	{Code: "21", Name: "Gifu"}, {Code: "22", Name: "Shizuoka"}, {Code: "23", Name: "Aichi"}, {Code: "24", Name: "Mie"},
	{Code: "25", Name: "Shiga"}, {Code: "26", Name: "Kyoto"}, {Code: "27", Name: "Osaka"}, {Code: "28", Name: "Hyogo"},
	{Code: "29", Name: "Nara"}, {Code: "30", Name: "Wakayama"}, {Code: "31", Name: "Tottori"}, {Code: "32", Name: "Shimane"},
	{Code: "33", Name: "Okayama"}, {Code: "34", Name: "Hiroshima"}, {Code: "35", Name: "Yamaguchi"}, {Code: "36", Name: "Tokushima"},
	{Code: "37", Name: "Kagawa"}, {Code: "38", Name: "Ehime"}, {Code: "39", Name: "Kochi"}, {Code: "40", Name: "Fukuoka"},
	{Code: "41", Name: "Saga"}, {Code: "42", Name: "Nagasaki"}, {Code: "43", Name: "Kumamoto"}, {Code: "44", Name: "Oita"},
	{Code: "45", Name: "Miyazaki"}, {Code: "46", Name: "Kagoshima"}, {Code: "47", Name: "Okinawa"},
}
