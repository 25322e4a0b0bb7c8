package checkoutapi

import (
	"time"
)

// CheckoutContext is the durable trace of a submitted checkout. It outlives the in-memory session so
// payment notifications arriving later can still be correlated to the order.
type CheckoutContext struct {
	OrderNumber     string
	SessionUID      string
	CreatedAt       time.Time
	LastModified    *time.Time
	Amount          Amount
	ShopperEmail    string
	PaymentProvider string
	PaymentIntentID string
	PaymentStatus   PaymentStatus
	StatusDetails   string `datastore:",noindex"`
}
