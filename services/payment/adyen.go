package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/adyen/adyen-go-api-library/v6/src/adyen"
	"github.com/adyen/adyen-go-api-library/v6/src/checkout"
	"github.com/adyen/adyen-go-api-library/v6/src/common"

	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myvault"
)

const (
	ProviderAdyen = "adyen"
)

type AdyenConfig struct {
	Environment     string
	MerchantAccount string
	APIKey          string
	ReturnURL       string
}

//go:generate mockgen -source=adyen.go -package payment -destination adyen_payer_mock.go AdyenPayer
type AdyenPayer interface {
	UseAPIKey(key string)
	UseToken(accessToken string)
	Sessions(c context.Context, req checkout.CreateCheckoutSessionRequest) (checkout.CreateCheckoutSessionResponse, error)
}

type adyenPayer struct {
	client *adyen.APIClient
}

func NewAdyenPayer(environment string, apiKey string) AdyenPayer {
	return &adyenPayer{
		client: adyen.NewClient(&common.Config{
			ApiKey:      apiKey,
			Environment: common.Environment(strings.ToUpper(environment)),
			Debug:       false,
		}),
	}
}

func (p *adyenPayer) UseAPIKey(apiKey string) {
	// clear header
	delete(p.client.GetConfig().DefaultHeader, "Authorization")
	// set api-key
	p.client.GetConfig().ApiKey = apiKey
}

func (p *adyenPayer) UseToken(accessToken string) {
	// clear api-key
	p.client.GetConfig().ApiKey = ""
	// set header
	p.client.GetConfig().DefaultHeader["Authorization"] = fmt.Sprintf("Bearer %s", accessToken)
}

func (p *adyenPayer) Sessions(c context.Context, req checkout.CreateCheckoutSessionRequest) (checkout.CreateCheckoutSessionResponse, error) {
	resp, _, err := p.client.Checkout.Sessions(&req, c)
	if err != nil {
		return checkout.CreateCheckoutSessionResponse{}, err
	}
	return resp, nil
}

// adyenProcessor uses the session data of a checkout session as client secret; the drop-in needs both.
type adyenProcessor struct {
	cfg    AdyenConfig
	payer  AdyenPayer
	vault  myvault.VaultReader[myvault.Token]
	nower  mytime.Nower
	logger mylog.Logger
}

func NewAdyenProcessor(cfg AdyenConfig, payer AdyenPayer, vault myvault.VaultReader[myvault.Token], nower mytime.Nower) Processor {
	return &adyenProcessor{
		cfg:    cfg,
		payer:  payer,
		vault:  vault,
		nower:  nower,
		logger: mylog.New("payment"),
	}
}

func (p *adyenProcessor) CreatePaymentIntent(c context.Context, req IntentRequest) (Intent, error) {
	if req.Amount.Value <= 0 {
		return Intent{Success: false, Provider: ProviderAdyen, Message: "Amount must be positive"}, nil
	}

	setupAuthentication(c, ProviderAdyen, p.cfg.APIKey, p.vault, p.nower, p.payer, p.logger, req.OrderNumber)

	resp, err := p.payer.Sessions(c, checkout.CreateCheckoutSessionRequest{
		Amount: checkout.Amount{
			Currency: strings.ToUpper(req.Amount.Currency),
			Value:    req.Amount.Value,
		},
		Channel:                "Web",
		CountryCode:            req.CountryCode,
		MerchantAccount:        p.cfg.MerchantAccount,
		MerchantOrderReference: req.OrderNumber,
		Reference:              req.OrderNumber,
		ReturnUrl:              strings.ReplaceAll(p.cfg.ReturnURL, "{orderNumber}", req.OrderNumber),
		ShopperEmail:           req.Email,
		Metadata: map[string]string{
			"orderNumber": req.OrderNumber,
			"sessionUID":  req.SessionUID,
		},
	})
	if err != nil {
		return Intent{}, fmt.Errorf("error creating adyen session for order %s: %s", req.OrderNumber, err)
	}

	if resp.SessionData == "" {
		return Intent{Success: false, Provider: ProviderAdyen, ID: resp.Id, Message: "Payment processor returned no session data"}, nil
	}

	p.logger.Log(c, req.OrderNumber, mylog.SeverityInfo, "Created adyen session %s for %s", resp.Id, req.Amount)

	return Intent{
		Success:      true,
		Provider:     ProviderAdyen,
		ID:           resp.Id,
		ClientSecret: resp.SessionData,
	}, nil
}
