package checkout

import (
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type Step string

const (
	StepForm      Step = "form"
	StepCartMerge Step = "cart-merge"
	StepPayment   Step = "payment"
	StepComplete  Step = "complete"
	// StepEmpty is never stored: it is how a session without items before payment presents itself.
	StepEmpty Step = "empty"
)

type Notice struct {
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message"`
}

// Session is the state of one checkout attempt. It lives in memory only.
type Session struct {
	UID                    string                           `json:"uid"`
	Step                   Step                             `json:"step"`
	Customer               checkoutapi.CustomerInfo         `json:"customer"`
	Cart                   checkoutapi.Cart                 `json:"cart"`
	States                 []checkoutapi.State              `json:"states"`
	Incompatible           []checkoutapi.IncompatibleItem   `json:"incompatible"`
	IncompatibilityMessage string                           `json:"incompatibilityMessage,omitempty"`
	Rates                  []checkoutapi.ShippingRateOption `json:"rates"`
	SelectedRate           *checkoutapi.ShippingRateOption  `json:"selectedRate,omitempty"`
	SubtotalInCents        int64                            `json:"subtotalInCents"`
	TaxInCents             int64                            `json:"taxInCents"`
	TotalInCents           int64                            `json:"totalInCents"`
	Currency               string                           `json:"currency"`
	SignupIntent           bool                             `json:"signupIntent"`
	Password               string                           `json:"-"`
	PasswordRepeat         string                           `json:"-"`
	BearerToken            string                           `json:"-"`
	Profile                *checkoutapi.Profile             `json:"profile,omitempty"`
	SavedAddresses         []checkoutapi.Address            `json:"savedAddresses,omitempty"`
	GuestCart              *checkoutapi.Cart                `json:"guestCart,omitempty"`
	AccountCart            *checkoutapi.Cart                `json:"accountCart,omitempty"`
	Order                  *checkoutapi.Order               `json:"order,omitempty"`
	PaymentProvider        string                           `json:"paymentProvider,omitempty"`
	PaymentIntentID        string                           `json:"paymentIntentId,omitempty"`
	ClientSecret           string                           `json:"clientSecret,omitempty"`
	Submitting             bool                             `json:"submitting"`
	LoadingLocation        bool                             `json:"loadingLocation"`
	LoadingRates           bool                             `json:"loadingRates"`
	Notices                []Notice                         `json:"notices,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.BearerToken != ""
}

// view is what the shopper gets to see: an empty cart before payment short-circuits to the empty step.
func (s Session) view() Session {
	v := s
	if s.Cart.IsEmpty() && (s.Step == StepForm || s.Step == StepCartMerge) {
		v.Step = StepEmpty
	}
	v.Cart = copyCart(s.Cart)
	v.Notices = append([]Notice{}, s.Notices...)
	if s.SelectedRate != nil {
		rate := *s.SelectedRate
		v.SelectedRate = &rate
	}
	return v
}

func copyCart(cart checkoutapi.Cart) checkoutapi.Cart {
	items := make([]checkoutapi.CartLineItem, len(cart.Items))
	copy(items, cart.Items)
	return checkoutapi.Cart{Items: items}
}
