package shipping

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/services/addressnorm"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type RateRequest struct {
	Recipient checkoutapi.CustomerInfo
	Items     []checkoutapi.CartLineItem
	Currency  string
}

//go:generate mockgen -source=rates.go -package shipping -destination rate_fetcher_mock.go RateFetcher
type RateFetcher interface {
	FetchRates(c context.Context, req RateRequest) ([]checkoutapi.ShippingRateOption, error)
}

type httpRateFetcher struct {
	sender  myhttpclient.HTTPSender
	baseURL string
}

func NewRateFetcher(sender myhttpclient.HTTPSender, baseURL string) RateFetcher {
	return &httpRateFetcher{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type rateRecipient struct {
	Name        string `json:"name,omitempty"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone,omitempty"`
}

type rateItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Source    string `json:"source,omitempty"`
}

type rateRequest struct {
	Recipient rateRecipient `json:"recipient"`
	Items     []rateItem    `json:"items"`
	Currency  string        `json:"currency"`
}

type rateOption struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Carrier         string `json:"carrier"`
	Rate            string `json:"rate"`
	Currency        string `json:"currency"`
	MinDeliveryDays int    `json:"minDeliveryDays"`
	MaxDeliveryDays int    `json:"maxDeliveryDays"`
}

type rateResponse struct {
	Rates []rateOption `json:"rates"`
}

func (f *httpRateFetcher) FetchRates(c context.Context, req RateRequest) ([]checkoutapi.ShippingRateOption, error) {
	body := rateRequest{
		Recipient: rateRecipient{
			Name:        req.Recipient.Name,
			Address1:    req.Recipient.Address.Line1,
			Address2:    req.Recipient.Address.Line2,
			City:        req.Recipient.Address.City,
			StateCode:   req.Recipient.Address.Region,
			CountryCode: req.Recipient.Address.CountryCode,
			Zip:         req.Recipient.Address.PostalCode,
			Phone:       req.Recipient.Phone,
		},
		Items:    []rateItem{},
		Currency: req.Currency,
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, rateItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Source:    item.Source,
		})
	}

	resp := rateResponse{}
	err := myhttpclient.SendJSON(c, f.sender, http.MethodPost, f.baseURL+"/shipping/rates", "", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("error fetching shipping rates: %s", err)
	}

	options := make([]checkoutapi.ShippingRateOption, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		price, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return nil, fmt.Errorf("error parsing rate %q of option %s: %s", r.Rate, r.ID, err)
		}
		currency := r.Currency
		if currency == "" {
			currency = req.Currency
		}
		options = append(options, checkoutapi.ShippingRateOption{
			ID:             r.ID,
			CarrierName:    r.Carrier,
			ServiceName:    r.Name,
			PriceInCents:   checkoutapi.AmountFromDecimal(currency, price).Value,
			Currency:       currency,
			MinTransitDays: r.MinDeliveryDays,
			MaxTransitDays: r.MaxDeliveryDays,
		})
	}

	return options, nil
}

// ReadyForRates tells whether the address is complete and the cart shippable, so a quote can be requested.
// The recipient name is optional.
func ReadyForRates(customer checkoutapi.CustomerInfo, incompatible []checkoutapi.IncompatibleItem) bool {
	addr := customer.Address
	if len(incompatible) > 0 || len(checkoutapi.MissingFields(addr)) > 0 {
		return false
	}
	if addressnorm.RequiresRegion(addr.CountryCode) && strings.TrimSpace(addr.Region) == "" {
		return false
	}
	return true
}

// ReselectRate finds the option in a fresh quote that corresponds to the previously selected one.
// Ids are not stable across quotes, so carrier and service name decide; the id is only used when the
// previous option carried no name.
func ReselectRate(previous *checkoutapi.ShippingRateOption, options []checkoutapi.ShippingRateOption) *checkoutapi.ShippingRateOption {
	if previous == nil {
		return nil
	}

	for idx := range options {
		if previous.ServiceName != "" &&
			strings.EqualFold(options[idx].CarrierName, previous.CarrierName) &&
			strings.EqualFold(options[idx].ServiceName, previous.ServiceName) {
			selected := options[idx]
			return &selected
		}
	}

	if previous.ServiceName == "" && previous.ID != "" {
		for idx := range options {
			if options[idx].ID == previous.ID {
				selected := options[idx]
				return &selected
			}
		}
	}

	return nil
}
