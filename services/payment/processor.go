package payment

import (
	"context"

	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myvault"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type IntentRequest struct {
	Amount      checkoutapi.Amount
	OrderNumber string
	Email       string
	SessionUID  string
	CountryCode string
	// Attempt counts the intents requested for the same order, starting at 1.
	Attempt int
}

// Intent is the processor handle that authorizes capture of an amount for one order.
// Without a client secret the shopper cannot pay.
type Intent struct {
	Success      bool
	Provider     string
	ID           string
	ClientSecret string
	Message      string
}

//go:generate mockgen -source=processor.go -package payment -destination processor_mock.go Processor
type Processor interface {
	CreatePaymentIntent(c context.Context, req IntentRequest) (Intent, error)
}

type credentialUser interface {
	UseAPIKey(key string)
	UseToken(accessToken string)
}

// setupAuthentication prefers an access token obtained through OAuth and falls back to the api key.
func setupAuthentication(c context.Context, provider string, apiKey string, vault myvault.VaultReader[myvault.Token], nower mytime.Nower, payer credentialUser, logger mylog.Logger, orderNumber string) {
	tokenUID := myvault.CurrentToken + "_" + provider
	accessToken, exist, err := vault.Get(c, tokenUID)
	if err != nil || !exist || accessToken.ProviderName != provider ||
		accessToken.AccessToken == "" ||
		(accessToken.ExpiresIn != nil && accessToken.ExpiresIn.Before(nower.Now())) {
		payer.UseAPIKey(apiKey)
		logger.Log(c, orderNumber, mylog.SeverityInfo, "Using api-key")
		return
	}

	payer.UseToken(accessToken.AccessToken)
	logger.Log(c, orderNumber, mylog.SeverityInfo, "Using access token")
}
