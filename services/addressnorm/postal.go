package addressnorm

import (
	"fmt"
	"regexp"
	"strings"
)

type PostalValidation struct {
	Valid   bool
	Message string
}

type postalRule struct {
	pattern *regexp.Regexp
	example string
}

var postalRules = map[string]postalRule{
	"US": {regexp.MustCompile(`^\d{5}(-\d{4})?$`), "12345 or 12345-6789"},
	"CA": {regexp.MustCompile(`^[ABCEGHJ-NPRSTVXY]\d[ABCEGHJ-NPRSTV-Z] ?\d[ABCEGHJ-NPRSTV-Z]\d$`), "A1A 1A1"},
	"JP": {regexp.MustCompile(`^\d{3}-?\d{4}$`), "123-4567"},
	"GB": {regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}$`), "SW1A 1AA"},
	"DE": {regexp.MustCompile(`^\d{5}$`), "12345"},
	"FR": {regexp.MustCompile(`^\d{5}$`), "75001"},
	"NL": {regexp.MustCompile(`^[1-9]\d{3} ?[A-Z]{2}$`), "1234 AB"},
	"AU": {regexp.MustCompile(`^\d{4}$`), "2000"},
	"IT": {regexp.MustCompile(`^\d{5}$`), "00184"},
	"ES": {regexp.MustCompile(`^\d{5}$`), "28001"},
	"SE": {regexp.MustCompile(`^\d{3} ?\d{2}$`), "114 55"},
	"BR": {regexp.MustCompile(`^\d{5}-?\d{3}$`), "01310-100"},
	"IN": {regexp.MustCompile(`^[1-9]\d{5}$`), "110001"},
}

// ValidatePostalCode checks the format of a postal code for the given country.
// Countries without a known rule only require a non-empty code.
func ValidatePostalCode(code string, countryCode string) PostalValidation {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return PostalValidation{Valid: false, Message: "Postal code is required"}
	}

	rule, found := postalRules[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !found {
		return PostalValidation{Valid: true}
	}

	if !rule.pattern.MatchString(trimmed) {
		return PostalValidation{
			Valid:   false,
			Message: fmt.Sprintf("Invalid postal code for %s (expected format: %s)", strings.ToUpper(countryCode), rule.example),
		}
	}

	return PostalValidation{Valid: true}
}

// SupportedCountries returns the countries with a specific postal code rule.
func SupportedCountries() []string {
	countries := make([]string, 0, len(postalRules))
	for c := range postalRules {
		countries = append(countries, c)
	}
	return countries
}
