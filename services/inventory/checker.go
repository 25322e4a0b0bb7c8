package inventory

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

const (
	unverifiedMessage = "We could not verify availability of your items right now. Please try again."
)

type UnavailableItem struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Availability struct {
	Available   bool              `json:"available"`
	Message     string            `json:"message,omitempty"`
	Unavailable []UnavailableItem `json:"unavailable,omitempty"`
}

// Checker never fails: when the inventory service cannot be reached the items are reported as not available.
//
//go:generate mockgen -source=checker.go -package inventory -destination checker_mock.go Checker
type Checker interface {
	CheckAvailability(c context.Context, items []checkoutapi.CartLineItem) Availability
}

type httpChecker struct {
	sender  myhttpclient.HTTPSender
	baseURL string
	logger  mylog.Logger
}

func NewChecker(sender myhttpclient.HTTPSender, baseURL string) Checker {
	return &httpChecker{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  mylog.New("inventory"),
	}
}

type checkItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type checkRequest struct {
	Items []checkItem `json:"items"`
}

type itemStatus struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

type checkResponse struct {
	Available bool         `json:"available"`
	Message   string       `json:"message"`
	Items     []itemStatus `json:"items"`
}

func (ch *httpChecker) CheckAvailability(c context.Context, items []checkoutapi.CartLineItem) Availability {
	req := checkRequest{Items: []checkItem{}}
	for _, item := range items {
		req.Items = append(req.Items, checkItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	resp := checkResponse{}
	err := myhttpclient.SendJSON(c, ch.sender, http.MethodPost, ch.baseURL+"/inventory/check", "", req, &resp)
	if err != nil {
		ch.logger.Log(c, "", mylog.SeverityWarn, "Inventory check failed: %s", err)
		return Availability{Available: false, Message: unverifiedMessage}
	}

	unavailable := []UnavailableItem{}
	for _, status := range resp.Items {
		if status.Available {
			continue
		}
		item, found := findItem(items, status.ProductID, status.VariantID)
		if !found {
			continue
		}
		reason := status.Reason
		if reason == "" {
			reason = "Out of stock"
		}
		unavailable = append(unavailable, UnavailableItem{
			Key:    item.Key(),
			Name:   item.Name,
			Reason: reason,
		})
	}

	if resp.Available && len(unavailable) == 0 {
		return Availability{Available: true}
	}

	return Availability{
		Available:   false,
		Message:     unavailableMessage(resp.Message, unavailable),
		Unavailable: unavailable,
	}
}

func findItem(items []checkoutapi.CartLineItem, productID, variantID string) (checkoutapi.CartLineItem, bool) {
	for _, item := range items {
		if item.ProductID == productID && (variantID == "" || item.VariantID == variantID) {
			return item, true
		}
	}
	return checkoutapi.CartLineItem{}, false
}

func unavailableMessage(serviceMessage string, unavailable []UnavailableItem) string {
	if serviceMessage != "" {
		return serviceMessage
	}
	if len(unavailable) == 0 {
		return "Some items in your cart are no longer available."
	}
	names := []string{}
	for _, u := range unavailable {
		names = append(names, fmt.Sprintf("%q", u.Name))
	}
	return fmt.Sprintf("No longer available: %s. Remove them to continue.", strings.Join(names, ", "))
}
