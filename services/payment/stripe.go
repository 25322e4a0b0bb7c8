package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myvault"
)

const (
	ProviderStripe = "stripe"
)

//go:generate mockgen -source=stripe.go -package payment -destination stripe_payer_mock.go StripePayer
type StripePayer interface {
	UseAPIKey(key string)
	UseToken(accessToken string)
	CreatePaymentIntent(c context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error)
}

type stripePayer struct{}

func NewStripePayer() StripePayer {
	return &stripePayer{}
}

func (p *stripePayer) UseAPIKey(apiKey string) {
	stripe.Key = apiKey
}

func (p *stripePayer) UseToken(accessToken string) {
	stripe.Key = accessToken
}

func (p *stripePayer) CreatePaymentIntent(c context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error) {
	params.Context = c
	intent, err := paymentintent.New(&params)
	if err != nil {
		return stripe.PaymentIntent{}, err
	}
	return *intent, nil
}

type stripeProcessor struct {
	apiKey string
	payer  StripePayer
	vault  myvault.VaultReader[myvault.Token]
	nower  mytime.Nower
	logger mylog.Logger
}

func NewStripeProcessor(apiKey string, payer StripePayer, vault myvault.VaultReader[myvault.Token], nower mytime.Nower) Processor {
	return &stripeProcessor{
		apiKey: apiKey,
		payer:  payer,
		vault:  vault,
		nower:  nower,
		logger: mylog.New("payment"),
	}
}

func (p *stripeProcessor) CreatePaymentIntent(c context.Context, req IntentRequest) (Intent, error) {
	if req.Amount.Value <= 0 {
		return Intent{Success: false, Provider: ProviderStripe, Message: "Amount must be positive"}, nil
	}

	setupAuthentication(c, ProviderStripe, p.apiKey, p.vault, p.nower, p.payer, p.logger, req.OrderNumber)

	params := stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.Amount.Value),
		Currency:     stripe.String(strings.ToLower(req.Amount.Currency)),
		ReceiptEmail: stripe.String(req.Email),
		Description:  stripe.String(fmt.Sprintf("Order %s", req.OrderNumber)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("orderNumber", req.OrderNumber)
	params.AddMetadata("sessionUID", req.SessionUID)
	params.SetIdempotencyKey(stripeIdempotencyKey(req))

	intent, err := p.payer.CreatePaymentIntent(c, params)
	if err != nil {
		stripeErr := &stripe.Error{}
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			return Intent{Success: false, Provider: ProviderStripe, Message: stripeErr.Msg}, nil
		}
		return Intent{}, fmt.Errorf("error creating stripe payment-intent for order %s: %s", req.OrderNumber, err)
	}

	if intent.ClientSecret == "" {
		return Intent{Success: false, Provider: ProviderStripe, ID: intent.ID, Message: "Payment processor returned no client secret"}, nil
	}

	p.logger.Log(c, req.OrderNumber, mylog.SeverityInfo, "Created stripe payment-intent %s for %s", intent.ID, req.Amount)

	return Intent{
		Success:      true,
		Provider:     ProviderStripe,
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// stripeIdempotencyKey is unique per attempt: stripe replays the stored response of a key, failures included.
func stripeIdempotencyKey(req IntentRequest) string {
	return fmt.Sprintf("intent-%s-%d", req.OrderNumber, req.Attempt)
}
