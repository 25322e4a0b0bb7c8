package ordergateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type OrderRequest struct {
	Customer        checkoutapi.CustomerInfo       `json:"customer"`
	ShippingAddress checkoutapi.PostalAddress      `json:"shippingAddress"`
	BillingAddress  checkoutapi.PostalAddress      `json:"billingAddress"`
	Items           []checkoutapi.CartLineItem     `json:"items"`
	ShippingRate    checkoutapi.ShippingRateOption `json:"shippingRate"`
	SubtotalInCents int64                          `json:"subtotalInCents"`
	ShippingInCents int64                          `json:"shippingInCents"`
	TaxInCents      int64                          `json:"taxInCents"`
	TotalInCents    int64                          `json:"totalInCents"`
	Currency        string                         `json:"currency"`
}

type GuestSessionRequest struct {
	Email string `json:"email"`
	OrderRequest
}

type GuestSession struct {
	Token string `json:"sessionToken"`
}

type CompletionRequest struct {
	SessionToken  string `json:"sessionToken"`
	CreateAccount bool   `json:"createAccount"`
	Password      string `json:"password,omitempty"`
}

// OrderService creates orders on behalf of authenticated users and guests.
//
//go:generate mockgen -source=orderservice.go -package ordergateway -destination orderservice_mock.go OrderService
type OrderService interface {
	CreateOrder(c context.Context, bearerToken string, req OrderRequest) (checkoutapi.Order, error)
	CreateGuestSession(c context.Context, req GuestSessionRequest) (GuestSession, error)
	CompleteGuestSession(c context.Context, req CompletionRequest) (checkoutapi.Order, error)
}

type orderService struct {
	sender  myhttpclient.HTTPSender
	baseURL string
}

func NewOrderService(sender myhttpclient.HTTPSender, baseURL string) OrderService {
	return &orderService{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *orderService) CreateOrder(c context.Context, bearerToken string, req OrderRequest) (checkoutapi.Order, error) {
	order := checkoutapi.Order{}
	err := myhttpclient.SendJSON(c, s.sender, http.MethodPost, s.baseURL+"/orders", bearerToken, req, &order)
	if err != nil {
		return checkoutapi.Order{}, err
	}
	if order.OrderNumber == "" {
		return checkoutapi.Order{}, fmt.Errorf("order service returned an order without order number")
	}
	return order, nil
}

func (s *orderService) CreateGuestSession(c context.Context, req GuestSessionRequest) (GuestSession, error) {
	session := GuestSession{}
	err := myhttpclient.SendJSON(c, s.sender, http.MethodPost, s.baseURL+"/guest-checkout/sessions", "", req, &session)
	if err != nil {
		return GuestSession{}, err
	}
	if session.Token == "" {
		return GuestSession{}, fmt.Errorf("order service returned a guest session without token")
	}
	return session, nil
}

func (s *orderService) CompleteGuestSession(c context.Context, req CompletionRequest) (checkoutapi.Order, error) {
	order := checkoutapi.Order{}
	err := myhttpclient.SendJSON(c, s.sender, http.MethodPost, s.baseURL+"/guest-checkout/complete", "", req, &order)
	if err != nil {
		return checkoutapi.Order{}, err
	}
	if order.OrderNumber == "" {
		return checkoutapi.Order{}, fmt.Errorf("order service returned an order without order number")
	}
	return order, nil
}
