package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/lib/mypublisher"
	"github.com/MarcGrol/shopcheckout/lib/mypubsub"
	"github.com/MarcGrol/shopcheckout/lib/myqueue"
	"github.com/MarcGrol/shopcheckout/lib/mystore"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myuuid"
	"github.com/MarcGrol/shopcheckout/lib/myvault"
	"github.com/MarcGrol/shopcheckout/services/addressbook"
	"github.com/MarcGrol/shopcheckout/services/cart"
	"github.com/MarcGrol/shopcheckout/services/checkout"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/identity"
	"github.com/MarcGrol/shopcheckout/services/inventory"
	"github.com/MarcGrol/shopcheckout/services/location"
	"github.com/MarcGrol/shopcheckout/services/ordergateway"
	"github.com/MarcGrol/shopcheckout/services/payment"
	"github.com/MarcGrol/shopcheckout/services/shipping"
	"github.com/MarcGrol/shopcheckout/services/warmup"
)

func main() {
	c := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %s", err)
	}

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}
	sender := myhttpclient.New(cfg.HTTPTimeout, cfg.Debug)

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	vault, vaultCleanup, err := myvault.New[myvault.Token](c)
	if err != nil {
		log.Fatalf("Error creating vault: %s", err)
	}
	defer vaultCleanup()

	catalog := location.NewStaticCatalog()
	if cfg.CatalogBaseURL != "" {
		catalog = location.NewCatalog(sender, cfg.CatalogBaseURL)
	}
	warmup.NewService(vault, catalog).RegisterEndpoints(c, router)

	identityClient := identity.NewClient(sender, cfg.IdentityBaseURL)

	addressStore, addressStoreCleanup, err := mystore.New[checkoutapi.Address](c)
	if err != nil {
		log.Fatalf("Error creating address store: %s", err)
	}
	defer addressStoreCleanup()
	addressBook := addressbook.NewService(addressStore, nower, uuider)
	addressbook.NewWebService(addressBook, identityClient).RegisterEndpoints(c, router)

	processor, err := newProcessor(cfg, vault, nower)
	if err != nil {
		log.Fatalf("Error creating payment processor: %s", err)
	}

	tax, err := checkout.NewFlatRateTax(checkout.DefaultTaxRates())
	if err != nil {
		log.Fatalf("Error creating tax calculator: %s", err)
	}

	guestCarts, guestCartsCleanup, err := mystore.New[cart.GuestCart](c)
	if err != nil {
		log.Fatalf("Error creating guest cart store: %s", err)
	}
	defer guestCartsCleanup()

	checkoutStore, checkoutStoreCleanup, err := mystore.New[checkoutapi.CheckoutContext](c)
	if err != nil {
		log.Fatalf("Error creating checkout store: %s", err)
	}
	defer checkoutStoreCleanup()

	checkoutService := checkout.NewWebService(
		checkout.Config{StripeWebhookSecret: cfg.StripeWebhookSecret, AdyenHMACKey: cfg.AdyenHMACKey},
		checkout.Collaborators{
			Location:  location.New(catalog, location.NewPostalLookup(sender, cfg.PostalBaseURL)),
			Rates:     shipping.NewRateFetcher(sender, cfg.RatesBaseURL),
			Inventory: inventory.NewChecker(sender, cfg.InventoryBaseURL),
			Identity:  identityClient,
			Addresses: addressBook,
			Gateway:   ordergateway.New(ordergateway.NewOrderService(sender, cfg.OrdersBaseURL), processor),
			Tax:       tax,
			AccountCart: func(bearerToken string) cart.Store {
				return cart.NewServerStore(sender, cfg.CartBaseURL, bearerToken)
			},
		},
		guestCarts, checkoutStore, nower, uuider, pubsub, publisher)
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout endpoints: %s", err)
	}

	startWebServerBlocking(cfg.Port, router)
}

func newProcessor(cfg Config, vault myvault.VaultReader[myvault.Token], nower mytime.Nower) (payment.Processor, error) {
	switch cfg.PaymentProvider {
	case payment.ProviderStripe:
		return payment.NewStripeProcessor(cfg.StripeAPIKey, payment.NewStripePayer(), vault, nower), nil
	case payment.ProviderAdyen:
		return payment.NewAdyenProcessor(payment.AdyenConfig{
			Environment:     cfg.AdyenEnvironment,
			MerchantAccount: cfg.AdyenMerchantAccount,
			APIKey:          cfg.AdyenAPIKey,
			ReturnURL:       cfg.AdyenReturnURL,
		}, payment.NewAdyenPayer(cfg.AdyenEnvironment, cfg.AdyenAPIKey), vault, nower), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
	}
}

func startWebServerBlocking(port string, router *mux.Router) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
