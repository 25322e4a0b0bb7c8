package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/MarcGrol/shopcheckout/services/payment"
)

// Config is read from the environment, the way App Engine hands it to us.
type Config struct {
	Port                 string
	Debug                bool
	HTTPTimeout          time.Duration
	CatalogBaseURL       string
	PostalBaseURL        string
	RatesBaseURL         string
	InventoryBaseURL     string
	OrdersBaseURL        string
	IdentityBaseURL      string
	CartBaseURL          string
	PaymentProvider      string
	StripeAPIKey         string
	StripeWebhookSecret  string
	AdyenEnvironment     string
	AdyenMerchantAccount string
	AdyenAPIKey          string
	AdyenReturnURL       string
	AdyenHMACKey         string
}

func loadConfig() (Config, error) {
	cfg := Config{
		Port:                 getenv("PORT", "8080"),
		CatalogBaseURL:       os.Getenv("CATALOG_BASE_URL"),
		PostalBaseURL:        getenv("POSTAL_BASE_URL", "https://api.zippopotam.us"),
		RatesBaseURL:         getenv("RATES_BASE_URL", "http://localhost:8081"),
		InventoryBaseURL:     getenv("INVENTORY_BASE_URL", "http://localhost:8081"),
		OrdersBaseURL:        getenv("ORDERS_BASE_URL", "http://localhost:8081"),
		IdentityBaseURL:      getenv("IDENTITY_BASE_URL", "http://localhost:8081"),
		CartBaseURL:          getenv("CART_BASE_URL", "http://localhost:8081"),
		PaymentProvider:      getenv("PAYMENT_PROVIDER", payment.ProviderStripe),
		StripeAPIKey:         os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AdyenEnvironment:     getenv("ADYEN_ENVIRONMENT", "test"),
		AdyenMerchantAccount: os.Getenv("ADYEN_MERCHANT_ACCOUNT"),
		AdyenAPIKey:          os.Getenv("ADYEN_API_KEY"),
		AdyenReturnURL:       getenv("ADYEN_RETURN_URL", "http://localhost:8080/checkout/{orderNumber}"),
		AdyenHMACKey:         os.Getenv("ADYEN_HMAC_KEY"),
	}

	debug, err := strconv.ParseBool(getenv("DEBUG", "false"))
	if err != nil {
		return cfg, fmt.Errorf("invalid DEBUG: %s", err)
	}
	cfg.Debug = debug

	timeout, err := time.ParseDuration(getenv("HTTP_TIMEOUT", "5s"))
	if err != nil {
		return cfg, fmt.Errorf("invalid HTTP_TIMEOUT: %s", err)
	}
	cfg.HTTPTimeout = timeout

	// payments are only confirmed through the webhook of the provider
	switch cfg.PaymentProvider {
	case payment.ProviderStripe:
		if cfg.StripeAPIKey == "" || cfg.StripeWebhookSecret == "" {
			return cfg, fmt.Errorf("missing STRIPE_API_KEY or STRIPE_WEBHOOK_SECRET")
		}
	case payment.ProviderAdyen:
		if cfg.AdyenAPIKey == "" || cfg.AdyenMerchantAccount == "" || cfg.AdyenHMACKey == "" {
			return cfg, fmt.Errorf("missing ADYEN_API_KEY, ADYEN_MERCHANT_ACCOUNT or ADYEN_HMAC_KEY")
		}
	default:
		return cfg, fmt.Errorf("unknown PAYMENT_PROVIDER %s", cfg.PaymentProvider)
	}

	return cfg, nil
}

func getenv(name string, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}
