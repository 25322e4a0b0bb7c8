package ordergateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/payment"
)

type FailureKind string

const (
	FailureRetryable     FailureKind = "retryable"
	FailureRejected      FailureKind = "rejected"
	FailurePaymentIntent FailureKind = "payment-intent"
)

// Failure is a classified submission failure. Order is set when the order was created but remains unpaid.
type Failure struct {
	Kind    FailureKind
	Message string
	Order   *checkoutapi.Order
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type SubmitRequest struct {
	CheckoutUID string
	BearerToken string
	Register    bool
	Password    string
	Customer    checkoutapi.CustomerInfo
	Cart        checkoutapi.Cart
	Rate        checkoutapi.ShippingRateOption
	TaxInCents  int64
}

func (r SubmitRequest) authenticatedDirect() bool {
	return r.BearerToken != "" && !r.Register
}

func (r SubmitRequest) signature() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%t",
		r.Cart.Signature(), r.Customer.Email, r.Customer.Address.CountryCode, r.Customer.Address.PostalCode,
		r.Customer.Address.Line1, r.Rate.ID, r.TaxInCents, r.authenticatedDirect())
}

func (r SubmitRequest) orderRequest() OrderRequest {
	subtotal := r.Cart.SubtotalInCents()
	return OrderRequest{
		Customer:        r.Customer,
		ShippingAddress: r.Customer.Address,
		BillingAddress:  r.Customer.Address,
		Items:           r.Cart.Items,
		ShippingRate:    r.Rate,
		SubtotalInCents: subtotal,
		ShippingInCents: r.Rate.PriceInCents,
		TaxInCents:      r.TaxInCents,
		TotalInCents:    subtotal + r.Rate.PriceInCents + r.TaxInCents,
		Currency:        r.Cart.Currency(),
	}
}

type Result struct {
	Order  checkoutapi.Order
	Intent payment.Intent
}

// Submitter turns a validated checkout into an order with a payment-intent.
//
//go:generate mockgen -source=gateway.go -package ordergateway -destination submitter_mock.go Submitter
type Submitter interface {
	Submit(c context.Context, req SubmitRequest) (Result, error)
	RetryPaymentIntent(c context.Context, checkoutUID string) (Result, error)
	Forget(checkoutUID string)
}

type guestPhase string

const (
	guestPhaseNone           guestPhase = "none"
	guestPhaseSessionCreated guestPhase = "sessionCreated"
	guestPhaseCompleted      guestPhase = "completed"
)

type progress struct {
	signature    string
	phase        guestPhase
	sessionToken string
	order        *checkoutapi.Order
	email        string
	countryCode  string
	amount       checkoutapi.Amount
	attempts     int
}

// Gateway remembers per checkout how far a submission got, so a retry continues where the previous attempt failed.
type Gateway struct {
	sync.Mutex
	orders    OrderService
	processor payment.Processor
	progress  map[string]progress
	logger    mylog.Logger
}

func New(orders OrderService, processor payment.Processor) *Gateway {
	return &Gateway{
		orders:    orders,
		processor: processor,
		progress:  map[string]progress{},
		logger:    mylog.New("ordergateway"),
	}
}

func (g *Gateway) Submit(c context.Context, req SubmitRequest) (Result, error) {
	p := g.progressOf(req)

	if p.order == nil {
		order, err := g.createOrder(c, req, &p)
		if err != nil {
			return Result{}, err
		}
		p.order = &order
		g.store(req.CheckoutUID, p)
	} else {
		g.logger.Log(c, req.CheckoutUID, mylog.SeverityInfo, "Order %s already exists: only requesting payment-intent", p.order.OrderNumber)
	}

	return g.requestIntent(c, req.CheckoutUID, p)
}

// RetryPaymentIntent requests a new payment-intent for an order that was created earlier but is still unpaid.
func (g *Gateway) RetryPaymentIntent(c context.Context, checkoutUID string) (Result, error) {
	g.Lock()
	p, found := g.progress[checkoutUID]
	g.Unlock()

	if !found || p.order == nil {
		return Result{}, myerrors.NewConflictError(fmt.Errorf("checkout %s has no unpaid order", checkoutUID))
	}

	return g.requestIntent(c, checkoutUID, p)
}

// Forget drops what is remembered about a checkout once it is completed or abandoned.
func (g *Gateway) Forget(checkoutUID string) {
	g.Lock()
	defer g.Unlock()

	delete(g.progress, checkoutUID)
}

func (g *Gateway) progressOf(req SubmitRequest) progress {
	g.Lock()
	defer g.Unlock()

	signature := req.signature()
	p, found := g.progress[req.CheckoutUID]
	if !found || p.signature != signature {
		p = progress{
			signature: signature,
			phase:     guestPhaseNone,
		}
	}
	p.email = req.Customer.Email
	p.countryCode = req.Customer.Address.CountryCode
	orderReq := req.orderRequest()
	p.amount = checkoutapi.Amount{Currency: orderReq.Currency, Value: orderReq.TotalInCents}
	g.progress[req.CheckoutUID] = p

	return p
}

func (g *Gateway) store(checkoutUID string, p progress) {
	g.Lock()
	defer g.Unlock()

	g.progress[checkoutUID] = p
}

func (g *Gateway) nextAttempt(checkoutUID string) int {
	g.Lock()
	defer g.Unlock()

	p := g.progress[checkoutUID]
	p.attempts++
	g.progress[checkoutUID] = p
	return p.attempts
}

func (g *Gateway) createOrder(c context.Context, req SubmitRequest, p *progress) (checkoutapi.Order, error) {
	orderReq := req.orderRequest()

	if req.authenticatedDirect() {
		order, err := g.orders.CreateOrder(c, req.BearerToken, orderReq)
		if err != nil {
			g.logger.Log(c, req.CheckoutUID, mylog.SeverityWarn, "Error creating order: %s", err)
			return checkoutapi.Order{}, classify(err)
		}
		g.logger.Log(c, req.CheckoutUID, mylog.SeverityInfo, "Created order %s", order.OrderNumber)
		return order, nil
	}

	if p.phase == guestPhaseNone {
		session, err := g.orders.CreateGuestSession(c, GuestSessionRequest{
			Email:        req.Customer.Email,
			OrderRequest: orderReq,
		})
		if err != nil {
			g.logger.Log(c, req.CheckoutUID, mylog.SeverityWarn, "Error creating guest session: %s", err)
			return checkoutapi.Order{}, classify(err)
		}
		p.phase = guestPhaseSessionCreated
		p.sessionToken = session.Token
		g.store(req.CheckoutUID, *p)
	}

	order, err := g.orders.CompleteGuestSession(c, CompletionRequest{
		SessionToken:  p.sessionToken,
		CreateAccount: req.Register,
		Password:      req.Password,
	})
	if err != nil {
		g.logger.Log(c, req.CheckoutUID, mylog.SeverityWarn, "Error completing guest session: %s", err)
		failure := classify(err)
		if failure.Kind == FailureRejected {
			// a rejected session cannot be completed anymore
			p.phase = guestPhaseNone
			p.sessionToken = ""
			g.store(req.CheckoutUID, *p)
		}
		return checkoutapi.Order{}, failure
	}
	p.phase = guestPhaseCompleted
	g.logger.Log(c, req.CheckoutUID, mylog.SeverityInfo, "Created guest order %s", order.OrderNumber)

	return order, nil
}

func (g *Gateway) requestIntent(c context.Context, checkoutUID string, p progress) (Result, error) {
	order := *p.order
	amount := p.amount
	if order.TotalInCents > 0 && order.Currency != "" {
		// the order service has the final say on what must be paid
		amount = checkoutapi.Amount{Currency: order.Currency, Value: order.TotalInCents}
	}

	intent, err := g.processor.CreatePaymentIntent(c, payment.IntentRequest{
		Amount:      amount,
		OrderNumber: order.OrderNumber,
		Email:       p.email,
		SessionUID:  checkoutUID,
		CountryCode: p.countryCode,
		Attempt:     g.nextAttempt(checkoutUID),
	})
	if err != nil {
		g.logger.Log(c, checkoutUID, mylog.SeverityError, "Error creating payment-intent for order %s: %s", order.OrderNumber, err)
		return Result{Order: order}, &Failure{
			Kind:    FailurePaymentIntent,
			Message: fmt.Sprintf("Order %s was created but payment could not be started. Please try again.", order.OrderNumber),
			Order:   &order,
			Err:     myerrors.NewBadGatewayError(err),
		}
	}
	if !intent.Success || intent.ClientSecret == "" {
		message := intent.Message
		if message == "" {
			message = "payment processor declined"
		}
		g.logger.Log(c, checkoutUID, mylog.SeverityWarn, "Payment-intent for order %s not created: %s", order.OrderNumber, message)
		return Result{Order: order}, &Failure{
			Kind:    FailurePaymentIntent,
			Message: fmt.Sprintf("Order %s was created but payment could not be started: %s", order.OrderNumber, message),
			Order:   &order,
			Err:     myerrors.NewBadGatewayError(fmt.Errorf("payment-intent for order %s: %s", order.OrderNumber, message)),
		}
	}

	return Result{Order: order, Intent: intent}, nil
}

func classify(err error) *Failure {
	statusErr := myhttpclient.StatusError{}
	if errors.As(err, &statusErr) && !statusErr.IsServerSide() {
		message := statusErr.Message
		if message == "" {
			message = fmt.Sprintf("Order was rejected (status %d)", statusErr.StatusCode)
		}
		return &Failure{
			Kind:    FailureRejected,
			Message: message,
			Err:     myerrors.NewUnprocessableError(err),
		}
	}

	return &Failure{
		Kind:    FailureRetryable,
		Message: "Your order could not be placed right now. Please try again.",
		Err:     myerrors.NewUnavailableError(err),
	}
}
