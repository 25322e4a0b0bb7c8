package addressnorm

import (
	"strings"
)

var regionCodes = map[string]string{
	// United States
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"washington dc":        "DC",
	"washington d.c.":      "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
	"puerto rico":          "PR",

	// Canada
	"alberta":                   "AB",
	"british columbia":          "BC",
	"manitoba":                  "MB",
	"new brunswick":             "NB",
	"newfoundland and labrador": "NL",
	"newfoundland":              "NL",
	"nova scotia":               "NS",
	"ontario":                   "ON",
	"prince edward island":      "PE",
	"quebec":                    "QC",
	"québec":                    "QC",
	"saskatchewan":              "SK",
	"northwest territories":     "NT",
	"nunavut":                   "NU",
	"yukon":                     "YT",
}

// NormalizeRegion maps a free-text state or province name to its 2-letter code.
// Input that is already a 2-letter uppercase code, and input that is not recognized, is returned trimmed but otherwise unchanged.
func NormalizeRegion(input string) string {
	trimmed := strings.TrimSpace(input)
	if isUpperCode(trimmed) {
		return trimmed
	}

	code, found := regionCodes[strings.Join(strings.Fields(strings.ToLower(trimmed)), " ")]
	if !found {
		return trimmed
	}
	return code
}

func isUpperCode(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}

var regionRequired = map[string]bool{
	"US": true,
	"CA": true,
	"AU": true,
	"JP": true,
}

// RequiresRegion tells whether an address in the given country is incomplete without a state or province.
func RequiresRegion(countryCode string) bool {
	return regionRequired[strings.ToUpper(strings.TrimSpace(countryCode))]
}
