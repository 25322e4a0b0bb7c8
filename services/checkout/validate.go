package checkout

import (
	"fmt"
	"strings"

	"github.com/MarcGrol/shopcheckout/services/addressnorm"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/shipping"
)

const (
	minPhoneDigits     = 7
	minPasswordLength  = 6
	emptyCartMessage   = "Your cart is empty"
	selectRateMessage  = "Please select a shipping method"
	stateRequiredFmt   = "State/province is required for %s"
	passwordsDifferMsg = "Passwords do not match"
)

// validateSubmission runs the checks that gate order submission. The first failing check wins.
func validateSubmission(s Session, catalog checkoutapi.CountryCatalog) *Error {
	if s.Cart.IsEmpty() {
		return newValidationError("cart", emptyCartMessage)
	}

	verr := validateCart(s.Cart)
	if verr != nil {
		return verr
	}

	// hard gate: a restricted item blocks submission regardless of other fields
	incompatible := shipping.CheckCompatibility(s.Cart.Items, s.Customer.Address.CountryCode, catalog)
	if len(incompatible) > 0 {
		return newShippingRestriction(shipping.FormatIncompatibilityMessage(incompatible, catalog), problemsOfIncompatible(incompatible))
	}

	problems := checkoutapi.CheckFields(s.Customer)
	missing := []string{}
	for _, p := range problems {
		if p.Rule == checkoutapi.RuleRequired {
			missing = append(missing, p.Field)
		}
	}
	if len(missing) > 0 {
		return newValidationError(missing[0], fmt.Sprintf("Please fill in all required fields: %s", strings.Join(missing, ", ")))
	}
	if len(problems) > 0 {
		return newValidationError(problems[0].Field, invalidFieldMessage(problems[0]))
	}

	if countDigits(s.Customer.Phone) < minPhoneDigits {
		return newValidationError("phone", fmt.Sprintf("Phone number must contain at least %d digits", minPhoneDigits))
	}

	addr := s.Customer.Address
	if addressnorm.RequiresRegion(addr.CountryCode) && strings.TrimSpace(addr.Region) == "" {
		return newValidationError("region", fmt.Sprintf(stateRequiredFmt, catalog.NameOf(strings.ToUpper(addr.CountryCode))))
	}

	postal := addressnorm.ValidatePostalCode(addr.PostalCode, addr.CountryCode)
	if !postal.Valid {
		return newValidationError("postalCode", postal.Message)
	}

	if s.SignupIntent {
		err := validateSignup(s.Password, s.PasswordRepeat)
		if err != nil {
			return err
		}
	}

	if s.SelectedRate == nil {
		return newValidationError("shippingRate", selectRateMessage)
	}

	return nil
}

func invalidFieldMessage(p checkoutapi.FieldProblem) string {
	if p.Rule == checkoutapi.RuleEmail {
		return "Please enter a valid email address"
	}
	return fmt.Sprintf("Please check %s", p.Field)
}

// validateCart refuses lines that would make the order amount meaningless.
func validateCart(cart checkoutapi.Cart) *Error {
	problems := []ItemProblem{}
	for _, item := range cart.Items {
		reason := ""
		if item.Quantity <= 0 {
			reason = "Quantity must be at least 1"
		} else if item.UnitPriceInCents < 0 {
			reason = "Price cannot be negative"
		}
		if reason != "" {
			problems = append(problems, ItemProblem{Key: item.Key(), Name: item.Name, Reason: reason})
		}
	}
	if len(problems) == 0 {
		return nil
	}

	verr := newValidationError("cart", fmt.Sprintf("%q cannot be ordered: %s", problems[0].Name, problems[0].Reason))
	verr.Items = problems
	return verr
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

func validateSignup(password string, repeat string) *Error {
	if password == "" || repeat == "" {
		return newValidationError("password", "Please enter and confirm a password to create an account")
	}
	if password != repeat {
		return newValidationError("password", passwordsDifferMsg)
	}
	if len(password) < minPasswordLength {
		return newValidationError("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func problemsOfIncompatible(list []checkoutapi.IncompatibleItem) []ItemProblem {
	problems := make([]ItemProblem, 0, len(list))
	for _, i := range list {
		problems = append(problems, ItemProblem{Key: i.Item.Key(), Name: i.Item.Name, Reason: i.Reason})
	}
	return problems
}
