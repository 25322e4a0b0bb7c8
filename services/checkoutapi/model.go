package checkoutapi

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ShippingRegions lists the countries a fulfillment source may ship an item to.
type ShippingRegions struct {
	All       bool     `json:"all"`
	Countries []string `json:"countries,omitempty"`
}

// Allows tells whether the item may be shipped to the given country code.
func (r *ShippingRegions) Allows(countryCode string) bool {
	if r == nil || r.All {
		return true
	}
	for _, c := range r.Countries {
		if strings.EqualFold(c, countryCode) {
			return true
		}
	}
	return false
}

type CartLineItem struct {
	ProductID        string           `json:"productId"`
	VariantID        string           `json:"variantId"`
	Name             string           `json:"name"`
	UnitPriceInCents int64            `json:"unitPriceInCents"`
	Currency         string           `json:"currency"`
	Quantity         int              `json:"quantity"`
	Size             string           `json:"size,omitempty"`
	Color            string           `json:"color,omitempty"`
	Source           string           `json:"source,omitempty"`
	ShippingRegions  *ShippingRegions `json:"shippingRegions,omitempty"`
}

// Key identifies the purchasable thing regardless of quantity.
func (i CartLineItem) Key() string {
	return strings.Join([]string{i.ProductID, i.VariantID, i.Size, i.Color}, "|")
}

func (i CartLineItem) LineTotalInCents() int64 {
	return i.UnitPriceInCents * int64(i.Quantity)
}

type Cart struct {
	Items []CartLineItem `json:"items"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) Currency() string {
	for _, i := range c.Items {
		if i.Currency != "" {
			return i.Currency
		}
	}
	return "USD"
}

func (c Cart) SubtotalInCents() int64 {
	total := int64(0)
	for _, i := range c.Items {
		total += i.LineTotalInCents()
	}
	return total
}

// Signature is independent of item order, so two carts holding the same things compare equal.
func (c Cart) Signature() string {
	parts := make([]string, 0, len(c.Items))
	for _, i := range c.Items {
		parts = append(parts, fmt.Sprintf("%s#%d", i.Key(), i.Quantity))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Without returns a copy of the cart without the items with the given keys.
func (c Cart) Without(keys ...string) Cart {
	drop := map[string]bool{}
	for _, k := range keys {
		drop[k] = true
	}
	remaining := []CartLineItem{}
	for _, i := range c.Items {
		if !drop[i.Key()] {
			remaining = append(remaining, i)
		}
	}
	return Cart{Items: remaining}
}

type PostalAddress struct {
	Line1       string `json:"line1" form:"line1" validate:"notblank" label:"address1"`
	Line2       string `json:"line2,omitempty" form:"line2"`
	City        string `json:"city" form:"city" validate:"notblank"`
	Region      string `json:"region" form:"region"`
	PostalCode  string `json:"postalCode" form:"postalCode" validate:"notblank" label:"zip"`
	CountryCode string `json:"countryCode" form:"countryCode" validate:"notblank" label:"country"`
}

type CustomerInfo struct {
	Name    string        `json:"name" form:"name" validate:"notblank"`
	Email   string        `json:"email" form:"email" validate:"notblank,email"`
	Phone   string        `json:"phone" form:"phone" validate:"notblank"`
	Address PostalAddress `json:"address" form:"address"`
}

type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeBoth     AddressType = "both"
)

func (t AddressType) Valid() bool {
	return t == AddressTypeShipping || t == AddressTypeBilling || t == AddressTypeBoth
}

// Address is an entry of the saved-address book of an authenticated user.
type Address struct {
	UID             string
	OwnerUID        string
	Name            string
	Phone           string
	PostalAddress   PostalAddress
	DefaultShipping bool
	DefaultBilling  bool
	CreatedAt       time.Time
	LastModified    *time.Time
}

type IncompatibleItem struct {
	Item        CartLineItem `json:"item"`
	Destination string       `json:"destination"`
	Reason      string       `json:"reason"`
}

type ShippingRateOption struct {
	ID             string `json:"id"`
	CarrierName    string `json:"carrier"`
	ServiceName    string `json:"name"`
	PriceInCents   int64  `json:"priceInCents"`
	Currency       string `json:"currency"`
	MinTransitDays int    `json:"minDeliveryDays,omitempty"`
	MaxTransitDays int    `json:"maxDeliveryDays,omitempty"`
}

type Country struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Shippable bool   `json:"shippable"`
}

type CountryCatalog struct {
	Countries []Country `json:"countries"`
}

func (cc CountryCatalog) Lookup(code string) (Country, bool) {
	for _, c := range cc.Countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// NameOf falls back to the code itself for countries missing from the catalog.
func (cc CountryCatalog) NameOf(code string) string {
	country, found := cc.Lookup(code)
	if !found || country.Name == "" {
		return code
	}
	return country.Name
}

type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

type Order struct {
	OrderNumber     string         `json:"orderNumber"`
	Items           []CartLineItem `json:"items"`
	Customer        CustomerInfo   `json:"customer"`
	ShippingAddress PostalAddress  `json:"shippingAddress"`
	BillingAddress  PostalAddress  `json:"billingAddress"`
	SubtotalInCents int64          `json:"subtotalInCents"`
	ShippingInCents int64          `json:"shippingInCents"`
	TaxInCents      int64          `json:"taxInCents"`
	TotalInCents    int64          `json:"totalInCents"`
	Currency        string         `json:"currency"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"`
}

type Profile struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
