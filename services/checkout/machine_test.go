package checkout

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/services/addressbook"
	"github.com/MarcGrol/shopcheckout/services/cart"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/identity"
	"github.com/MarcGrol/shopcheckout/services/inventory"
	"github.com/MarcGrol/shopcheckout/services/location"
	"github.com/MarcGrol/shopcheckout/services/ordergateway"
	"github.com/MarcGrol/shopcheckout/services/payment"
	"github.com/MarcGrol/shopcheckout/services/shipping"
)

var (
	usOnlyShirt = checkoutapi.CartLineItem{
		ProductID: "shirt", VariantID: "shirt-m", Name: "Logo T-Shirt", UnitPriceInCents: 2500, Currency: "USD", Quantity: 1, Size: "M",
		ShippingRegions: &checkoutapi.ShippingRegions{Countries: []string{"US"}},
	}
	mug    = checkoutapi.CartLineItem{ProductID: "mug", VariantID: "mug-11oz", Name: "Mug", UnitPriceInCents: 1200, Currency: "USD", Quantity: 2}
	poster = checkoutapi.CartLineItem{ProductID: "poster", VariantID: "poster-a2", Name: "Poster", UnitPriceInCents: 1800, Currency: "USD", Quantity: 1}
	hoodie = checkoutapi.CartLineItem{ProductID: "hoodie", VariantID: "hoodie-l", Name: "Hoodie", UnitPriceInCents: 4500, Currency: "USD", Quantity: 1, Size: "L"}

	beverlyHills = checkoutapi.CustomerInfo{
		Name:  "Marc Grol",
		Email: "marc@home.nl",
		Phone: "+13105551234",
		Address: checkoutapi.PostalAddress{
			Line1:       "9641 Sunset Blvd",
			City:        "Beverly Hills",
			Region:      "CA",
			PostalCode:  "90210",
			CountryCode: "US",
		},
	}
	berlin = checkoutapi.CustomerInfo{
		Name:  "Eva Berg",
		Email: "eva@home.de",
		Phone: "+49301234567",
		Address: checkoutapi.PostalAddress{
			Line1:       "Unter den Linden 1",
			City:        "Berlin",
			PostalCode:  "10117",
			CountryCode: "DE",
		},
	}

	ground  = checkoutapi.ShippingRateOption{ID: "rate-1", CarrierName: "USPS", ServiceName: "Ground", PriceInCents: 599, Currency: "USD"}
	express = checkoutapi.ShippingRateOption{ID: "rate-2", CarrierName: "UPS", ServiceName: "Express", PriceInCents: 1999, Currency: "USD"}

	createdOrder = checkoutapi.Order{OrderNumber: "ORD-1001", TotalInCents: 3099, Currency: "USD", PaymentStatus: checkoutapi.PaymentStatusUnpaid}
	okIntent     = payment.Intent{Success: true, Provider: "stripe", ID: "pi_1", ClientSecret: "pi_1_secret"}
)

type fixture struct {
	rates     *shipping.MockRateFetcher
	inventory *inventory.MockChecker
	identity  *identity.MockClient
	addresses *addressbook.MockBook
	gateway   *ordergateway.MockSubmitter
	guest     *cart.MemoryStore
	account   *cart.MemoryStore
}

func TestHappyPath(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req shipping.RateRequest) ([]checkoutapi.ShippingRateOption, error) {
		assert.Equal(t, beverlyHills, req.Recipient)
		assert.Equal(t, "USD", req.Currency)
		return []checkoutapi.ShippingRateOption{ground}, nil
	})

	// when
	err := sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: beverlyHills})

	// then
	assert.NoError(t, err)
	view := sut.View()
	assert.Empty(t, view.Incompatible)
	assert.Equal(t, []checkoutapi.ShippingRateOption{ground}, view.Rates)
	assert.Nil(t, view.SelectedRate)

	// when
	err = sut.SelectRate(c, "rate-1")

	// then
	assert.NoError(t, err)
	view = sut.View()
	assert.Equal(t, int64(2500), view.SubtotalInCents)
	assert.Equal(t, int64(0), view.TaxInCents)
	assert.Equal(t, int64(3099), view.TotalInCents)

	// given
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req ordergateway.SubmitRequest) (ordergateway.Result, error) {
		assert.Equal(t, sut.UID(), req.CheckoutUID)
		assert.Empty(t, req.BearerToken)
		assert.Equal(t, beverlyHills, req.Customer)
		assert.Equal(t, ground, req.Rate)
		assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt}, req.Cart.Items)
		return ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil
	})

	// when
	err = sut.SubmitOrder(c)

	// then
	assert.NoError(t, err)
	view = sut.View()
	assert.Equal(t, StepPayment, view.Step)
	assert.Equal(t, "pi_1_secret", view.ClientSecret)
	assert.Equal(t, "ORD-1001", view.Order.OrderNumber)
	assert.False(t, view.Submitting)

	// given
	f.gateway.EXPECT().Forget(sut.UID())

	// when
	err = sut.ConfirmPayment(c, payment.Event{Provider: "stripe", PaymentIntentID: "pi_1", OrderNumber: "ORD-1001", Succeeded: true})

	// then
	assert.NoError(t, err)
	view = sut.View()
	assert.Equal(t, StepComplete, view.Step)
	assert.Equal(t, checkoutapi.PaymentStatusPaid, view.Order.PaymentStatus)
	assert.True(t, view.Cart.IsEmpty())
	stored, _ := f.guest.Load(c)
	assert.True(t, stored.IsEmpty())
}

func TestBlockedByRegion(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, _ := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))

	// when
	err := sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: berlin})

	// then
	assert.NoError(t, err)
	view := sut.View()
	assert.Len(t, view.Incompatible, 1)
	assert.Equal(t, "Logo T-Shirt", view.Incompatible[0].Item.Name)
	assert.Empty(t, view.Rates)
	assert.Equal(t, []Notice{{Kind: KindShippingRestriction, Message: view.IncompatibilityMessage}}, view.Notices)

	// when
	err = sut.SubmitOrder(c)

	// then
	checkoutErr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindShippingRestriction, checkoutErr.Kind)
	assert.Contains(t, checkoutErr.Message, `"Logo T-Shirt"`)
	assert.Contains(t, checkoutErr.Message, "Germany")
	assert.Equal(t, []ItemProblem{{Key: usOnlyShirt.Key(), Name: "Logo T-Shirt", Reason: "Ships only to United States"}}, checkoutErr.Items)
	assert.True(t, checkoutErr.Recoverable())
	assert.Equal(t, http.StatusUnprocessableEntity, myerrors.GetHTTPStatus(err))
	assert.Equal(t, StepForm, sut.View().Step)
}

func TestRemovingRestrictedItemUnblocks(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt, mug}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: berlin}))
	assert.Len(t, sut.View().Incompatible, 1)
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)

	// when
	err := sut.RemoveItems(c, usOnlyShirt.Key())

	// then
	assert.NoError(t, err)
	view := sut.View()
	assert.Empty(t, view.Incompatible)
	assert.Equal(t, []checkoutapi.CartLineItem{mug}, view.Cart.Items)
	assert.Equal(t, []checkoutapi.ShippingRateOption{ground}, view.Rates)
	stored, _ := f.guest.Load(c)
	assert.Equal(t, []checkoutapi.CartLineItem{mug}, stored.Items)
}

func TestSubmitNeverReachesGatewayWhileIncompatible(t *testing.T) {
	c := context.TODO()

	customers := map[string]checkoutapi.CustomerInfo{
		"complete":      berlin,
		"missing phone": func() checkoutapi.CustomerInfo { cu := berlin; cu.Phone = ""; return cu }(),
		"bad postcode":  func() checkoutapi.CustomerInfo { cu := berlin; cu.Address.PostalCode = "ABC"; return cu }(),
		"no name":       func() checkoutapi.CustomerInfo { cu := berlin; cu.Name = ""; return cu }(),
	}

	for name, customer := range customers {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sut, _ := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)
			assert.NoError(t, sut.Start(c, ""))
			assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: customer}))

			// gateway mock has no expectations: any call fails the test
			err := sut.SubmitOrder(c)

			assert.Equal(t, KindShippingRestriction, err.(*Error).Kind)
		})
	}
}

func TestMissingStateForUS(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, _ := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	customer := beverlyHills
	customer.Address.Region = ""
	assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: customer}))

	// when
	err := sut.SubmitOrder(c)

	// then
	checkoutErr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, checkoutErr.Kind)
	assert.Equal(t, "region", checkoutErr.Field)
	assert.Equal(t, "State/province is required for United States", checkoutErr.Message)
	assert.Equal(t, http.StatusBadRequest, myerrors.GetHTTPStatus(err))
	assert.Empty(t, sut.View().Rates)
}

func TestRegionIsNormalized(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	customer := beverlyHills
	customer.Address.Region = " california "
	customer.Address.CountryCode = "us"
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req shipping.RateRequest) ([]checkoutapi.ShippingRateOption, error) {
		assert.Equal(t, "CA", req.Recipient.Address.Region)
		assert.Equal(t, "US", req.Recipient.Address.CountryCode)
		return []checkoutapi.ShippingRateOption{ground}, nil
	})

	// when
	err := sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: customer})

	// then
	assert.NoError(t, err)
	assert.Equal(t, "CA", sut.View().Customer.Address.Region)
}

func TestCountryChangeClearsUnknownRegion(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)
	assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: beverlyHills}))

	// when
	err := sut.ChangeCountry(c, "CA")

	// then
	assert.NoError(t, err)
	view := sut.View()
	assert.Equal(t, "", view.Customer.Address.Region)
	assert.NotEmpty(t, view.States)
	assert.Empty(t, view.Rates)
	assert.Nil(t, view.SelectedRate)

	// when
	err = sut.ChangeCountry(c, "CA")

	// then
	assert.NoError(t, err)
	assert.Equal(t, view.Customer, sut.View().Customer)
}

func TestStaleRatesAreDiscarded(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	customer := berlin
	customer.Address.CountryCode = ""
	customer.Address.PostalCode = "75001"
	assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: customer}))

	germanRate := checkoutapi.ShippingRateOption{ID: "de-1", CarrierName: "DHL", ServiceName: "Paket", PriceInCents: 900, Currency: "USD"}
	frenchRate := checkoutapi.ShippingRateOption{ID: "fr-1", CarrierName: "Colissimo", ServiceName: "Domicile", PriceInCents: 1100, Currency: "USD"}

	germanStarted := make(chan struct{})
	releaseGerman := make(chan struct{})
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req shipping.RateRequest) ([]checkoutapi.ShippingRateOption, error) {
		if req.Recipient.Address.CountryCode == "DE" {
			close(germanStarted)
			<-releaseGerman
			return []checkoutapi.ShippingRateOption{germanRate}, nil
		}
		return []checkoutapi.ShippingRateOption{frenchRate}, nil
	}).Times(2)

	// when
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, sut.ChangeCountry(c, "DE"))
	}()
	<-germanStarted
	assert.NoError(t, sut.ChangeCountry(c, "FR"))
	close(releaseGerman)
	wg.Wait()

	// then
	view := sut.View()
	assert.Equal(t, "FR", view.Customer.Address.CountryCode)
	assert.Equal(t, []checkoutapi.ShippingRateOption{frenchRate}, view.Rates)
	assert.False(t, view.LoadingRates)
}

func TestRateReselection(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground, express}, nil)
	assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: beverlyHills}))
	assert.NoError(t, sut.SelectRate(c, "rate-2"))

	t.Run("Same carrier and service is selected again", func(t *testing.T) {
		requoted := express
		requoted.ID = "rate-9"
		requoted.PriceInCents = 2099
		f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground, requoted}, nil)

		err := sut.ChangeCart(c, checkoutapi.Cart{Items: []checkoutapi.CartLineItem{mug, poster}})

		assert.NoError(t, err)
		assert.Equal(t, &requoted, sut.View().SelectedRate)
	})

	t.Run("Vanished service requires new selection", func(t *testing.T) {
		f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)

		err := sut.ChangeCart(c, checkoutapi.Cart{Items: []checkoutapi.CartLineItem{mug}})

		assert.NoError(t, err)
		assert.Nil(t, sut.View().SelectedRate)
		assert.Equal(t, "shippingRate", sut.SubmitOrder(c).(*Error).Field)
	})
}

func TestRateFailureIsNotFatal(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)

	// given
	assert.NoError(t, sut.Start(c, ""))
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("timeout"))

	// when
	err := sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: beverlyHills})

	// then
	assert.NoError(t, err)
	view := sut.View()
	assert.Equal(t, StepForm, view.Step)
	assert.Empty(t, view.Rates)
	assert.Nil(t, view.SelectedRate)
	assert.Len(t, view.Notices, 1)
	assert.Equal(t, KindLookupDegraded, view.Notices[0].Kind)
}

func TestGuestToAccount(t *testing.T) {
	c := context.TODO()

	t.Run("Cancel keeps guest cart and leaves account cart alone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug, poster}, []checkoutapi.CartLineItem{hoodie})

		// given
		assert.NoError(t, sut.Start(c, ""))
		f.identity.EXPECT().Login(gomock.Any(), "marc@home.nl", "secret123").Return(identity.Session{
			BearerToken: "bearer-1",
			Profile:     checkoutapi.Profile{UID: "user-1", Name: "Marc Grol", Email: "marc@home.nl"},
		}, nil)

		// when
		err := sut.Login(c, "marc@home.nl", "secret123")

		// then
		assert.NoError(t, err)
		view := sut.View()
		assert.Equal(t, StepCartMerge, view.Step)
		assert.Equal(t, []checkoutapi.CartLineItem{mug, poster}, view.GuestCart.Items)
		assert.Equal(t, []checkoutapi.CartLineItem{hoodie}, view.AccountCart.Items)

		// given
		f.addresses.EXPECT().List(gomock.Any(), "user-1").Return([]checkoutapi.Address{}, nil)

		// when
		err = sut.CancelMerge(c)

		// then
		assert.NoError(t, err)
		view = sut.View()
		assert.Equal(t, StepForm, view.Step)
		assert.Equal(t, []checkoutapi.CartLineItem{mug, poster}, view.Cart.Items)
		assert.Nil(t, view.GuestCart)
		assert.Equal(t, "Marc Grol", view.Customer.Name)
		accountCart, _ := f.account.Load(c)
		assert.Equal(t, []checkoutapi.CartLineItem{hoodie}, accountCart.Items)
		guestCart, _ := f.guest.Load(c)
		assert.True(t, guestCart.IsEmpty())

		// decision cannot be revisited
		assert.Error(t, sut.ConfirmMerge(c))
	})

	t.Run("Confirm adopts account cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug, poster}, []checkoutapi.CartLineItem{hoodie})

		// given
		assert.NoError(t, sut.Start(c, ""))
		f.identity.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(identity.Session{BearerToken: "bearer-1", Profile: checkoutapi.Profile{UID: "user-1"}}, nil)
		f.addresses.EXPECT().List(gomock.Any(), "user-1").Return([]checkoutapi.Address{}, nil)
		assert.NoError(t, sut.Login(c, "marc@home.nl", "secret123"))

		// when
		err := sut.ConfirmMerge(c)

		// then
		assert.NoError(t, err)
		view := sut.View()
		assert.Equal(t, StepForm, view.Step)
		assert.Equal(t, []checkoutapi.CartLineItem{hoodie}, view.Cart.Items)
		guestCart, _ := f.guest.Load(c)
		assert.True(t, guestCart.IsEmpty())
	})

	t.Run("Equal carts resume without asking", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, []checkoutapi.CartLineItem{mug})

		// given
		assert.NoError(t, sut.Start(c, ""))
		f.identity.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(identity.Session{BearerToken: "bearer-1", Profile: checkoutapi.Profile{UID: "user-1"}}, nil)
		f.addresses.EXPECT().List(gomock.Any(), "user-1").Return([]checkoutapi.Address{}, nil)

		// when
		err := sut.Login(c, "marc@home.nl", "secret123")

		// then
		assert.NoError(t, err)
		assert.Equal(t, StepForm, sut.View().Step)
		assert.True(t, sut.View().Authenticated())
	})

	t.Run("Bad credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)

		// given
		assert.NoError(t, sut.Start(c, ""))
		f.identity.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(identity.Session{}, myerrors.NewAuthenticationError(fmt.Errorf("invalid credentials")))

		// when
		err := sut.Login(c, "marc@home.nl", "wrong")

		// then
		assert.Equal(t, http.StatusForbidden, myerrors.GetHTTPStatus(err))
		assert.False(t, sut.View().Authenticated())
	})
}

func TestPaymentIntentFailure(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	readyToSubmit(t, sut, f)
	unpaid := createdOrder
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{Order: unpaid}, &ordergateway.Failure{
		Kind:    ordergateway.FailurePaymentIntent,
		Message: "Order ORD-1001 was created but payment could not be started: Amount too small",
		Order:   &unpaid,
	})

	// when
	err := sut.SubmitOrder(c)

	// then
	checkoutErr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindOrderSubmissionFailure, checkoutErr.Kind)
	assert.Equal(t, ordergateway.FailurePaymentIntent, checkoutErr.Failure)
	assert.Equal(t, "ORD-1001", checkoutErr.OrderNumber)
	view := sut.View()
	assert.Equal(t, StepForm, view.Step)
	assert.Empty(t, view.ClientSecret)
	assert.Equal(t, checkoutapi.PaymentStatusUnpaid, view.Order.PaymentStatus)
	assert.False(t, view.Submitting)

	// given
	f.gateway.EXPECT().RetryPaymentIntent(gomock.Any(), sut.UID()).Return(ordergateway.Result{Order: unpaid, Intent: okIntent}, nil)

	// when
	err = sut.RetryPayment(c)

	// then
	assert.NoError(t, err)
	assert.Equal(t, StepPayment, sut.View().Step)
	assert.Equal(t, "pi_1_secret", sut.View().ClientSecret)
}

func TestRetryPaymentAfterCheckoutChanged(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	readyToSubmit(t, sut, f)
	unpaid := createdOrder
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{Order: unpaid}, &ordergateway.Failure{
		Kind:    ordergateway.FailurePaymentIntent,
		Message: "Order ORD-1001 was created but payment could not be started: Amount too small",
		Order:   &unpaid,
	})
	assert.Error(t, sut.SubmitOrder(c))
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)
	assert.NoError(t, sut.ChangeCart(c, checkoutapi.Cart{Items: []checkoutapi.CartLineItem{usOnlyShirt, hoodie}}))
	sut.TakeNotices()

	// when
	err := sut.RetryPayment(c)

	// then
	assert.Equal(t, http.StatusConflict, myerrors.GetHTTPStatus(err))
	view := sut.View()
	assert.Nil(t, view.Order)
	assert.Equal(t, StepForm, view.Step)
	assert.Equal(t, []Notice{{Kind: KindValidation, Message: "Your checkout changed after order ORD-1001 was created. Please place your order again."}}, sut.TakeNotices())

	// given
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req ordergateway.SubmitRequest) (ordergateway.Result, error) {
		assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt, hoodie}, req.Cart.Items)
		return ordergateway.Result{Order: checkoutapi.Order{OrderNumber: "ORD-1002"}, Intent: okIntent}, nil
	})

	// when
	err = sut.SubmitOrder(c)

	// then
	assert.NoError(t, err)
	assert.Equal(t, "ORD-1002", sut.View().Order.OrderNumber)
}

func TestInvalidCartIsRefused(t *testing.T) {
	c := context.TODO()

	testCases := []struct {
		name            string
		item            checkoutapi.CartLineItem
		expectedMessage string
	}{
		{
			name:            "Zero quantity",
			item:            checkoutapi.CartLineItem{ProductID: "mug", VariantID: "mug-11oz", Name: "Mug", UnitPriceInCents: 1200, Currency: "USD", Quantity: 0},
			expectedMessage: `"Mug" cannot be ordered: Quantity must be at least 1`,
		},
		{
			name:            "Negative quantity",
			item:            checkoutapi.CartLineItem{ProductID: "mug", VariantID: "mug-11oz", Name: "Mug", UnitPriceInCents: 1200, Currency: "USD", Quantity: -3},
			expectedMessage: `"Mug" cannot be ordered: Quantity must be at least 1`,
		},
		{
			name:            "Negative price",
			item:            checkoutapi.CartLineItem{ProductID: "mug", VariantID: "mug-11oz", Name: "Mug", UnitPriceInCents: -1200, Currency: "USD", Quantity: 1},
			expectedMessage: `"Mug" cannot be ordered: Price cannot be negative`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

			// given
			readyToSubmit(t, sut, f)

			// when
			err := sut.ChangeCart(c, checkoutapi.Cart{Items: []checkoutapi.CartLineItem{usOnlyShirt, tc.item}})

			// then
			checkoutErr, ok := err.(*Error)
			assert.True(t, ok)
			assert.Equal(t, KindValidation, checkoutErr.Kind)
			assert.Equal(t, tc.expectedMessage, checkoutErr.Message)
			assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt}, sut.View().Cart.Items)
			stored, err := f.guest.Load(c)
			assert.NoError(t, err)
			assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt}, stored.Items)
		})
	}
}

func TestEditsAreRefusedWhileSubmitting(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	readyToSubmit(t, sut, f)
	submitting := make(chan struct{})
	release := make(chan struct{})
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req ordergateway.SubmitRequest) (ordergateway.Result, error) {
		close(submitting)
		<-release
		return ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil
	})
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, sut.SubmitOrder(c))
	}()
	<-submitting

	// when
	edits := map[string]error{
		"cart":     sut.ChangeCart(c, checkoutapi.Cart{Items: []checkoutapi.CartLineItem{usOnlyShirt, hoodie}}),
		"removal":  sut.RemoveItems(c, usOnlyShirt.Key()),
		"customer": sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: berlin}),
		"country":  sut.ChangeCountry(c, "DE"),
		"rate":     sut.SelectRate(c, "rate-1"),
		"login":    sut.Login(c, "marc@home.nl", "secret"),
	}
	close(release)
	wg.Wait()

	// then
	for name, err := range edits {
		assert.Equal(t, http.StatusConflict, myerrors.GetHTTPStatus(err), name)
	}
	view := sut.View()
	assert.Equal(t, StepPayment, view.Step)
	assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt}, view.Cart.Items)
	assert.Equal(t, beverlyHills, view.Customer)
	stored, err := f.guest.Load(c)
	assert.NoError(t, err)
	assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt}, stored.Items)
}

func TestSubmissionFailures(t *testing.T) {
	c := context.TODO()

	t.Run("Rejection is surfaced verbatim", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

		// given
		readyToSubmit(t, sut, f)
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{}, &ordergateway.Failure{Kind: ordergateway.FailureRejected, Message: "Price of Logo T-Shirt has changed"})
		f.inventory.EXPECT().CheckAvailability(gomock.Any(), []checkoutapi.CartLineItem{usOnlyShirt}).Return(inventory.Availability{Available: true})

		// when
		err := sut.SubmitOrder(c)

		// then
		assert.Equal(t, "Price of Logo T-Shirt has changed", err.Error())
		assert.Equal(t, ordergateway.FailureRejected, err.(*Error).Failure)
		assert.Equal(t, StepForm, sut.View().Step)
		assert.Nil(t, sut.View().Order)
	})

	t.Run("Sold out item is reported per item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

		// given
		readyToSubmit(t, sut, f)
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{}, &ordergateway.Failure{Kind: ordergateway.FailureRetryable, Message: "try again"})
		f.inventory.EXPECT().CheckAvailability(gomock.Any(), gomock.Any()).Return(inventory.Availability{
			Available:   false,
			Message:     `No longer available: "Logo T-Shirt". Remove them to continue.`,
			Unavailable: []inventory.UnavailableItem{{Key: usOnlyShirt.Key(), Name: "Logo T-Shirt", Reason: "Out of stock"}},
		})

		// when
		err := sut.SubmitOrder(c)

		// then
		checkoutErr := err.(*Error)
		assert.Equal(t, KindInventoryUnavailable, checkoutErr.Kind)
		assert.Equal(t, []ItemProblem{{Key: usOnlyShirt.Key(), Name: "Logo T-Shirt", Reason: "Out of stock"}}, checkoutErr.Items)
	})

	t.Run("Double submit is refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

		// given
		readyToSubmit(t, sut, f)
		submitting := make(chan struct{})
		release := make(chan struct{})
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req ordergateway.SubmitRequest) (ordergateway.Result, error) {
			close(submitting)
			<-release
			return ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil
		}).Times(1)

		// when
		wg := sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sut.SubmitOrder(c))
		}()
		<-submitting
		assert.True(t, sut.View().Submitting)
		err := sut.SubmitOrder(c)
		close(release)
		wg.Wait()

		// then
		assert.Equal(t, http.StatusConflict, myerrors.GetHTTPStatus(err))
		assert.Equal(t, StepPayment, sut.View().Step)
	})
}

func TestSignupDuringCheckout(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)

	// given
	readyToSubmit(t, sut, f)
	assert.NoError(t, sut.SetSignupIntent(true, "secret123", "secret124"))

	// when
	err := sut.SubmitOrder(c)

	// then
	assert.Equal(t, passwordsDifferMsg, err.Error())

	// given
	assert.NoError(t, sut.SetSignupIntent(true, "secret123", "secret123"))
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req ordergateway.SubmitRequest) (ordergateway.Result, error) {
		assert.True(t, req.Register)
		assert.Equal(t, "secret123", req.Password)
		return ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil
	})

	// when
	err = sut.SubmitOrder(c)

	// then
	assert.NoError(t, err)
}

func TestAuthenticatedCheckout(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, nil, []checkoutapi.CartLineItem{mug})

	home := checkoutapi.Address{UID: "addr-1", OwnerUID: "user-1", Name: "Marc Grol", Phone: "+13105551234", PostalAddress: beverlyHills.Address, DefaultShipping: true}
	office := checkoutapi.Address{UID: "addr-2", OwnerUID: "user-1", Name: "Marc Grol", PostalAddress: checkoutapi.PostalAddress{
		Line1: "1 Infinite Loop", City: "Cupertino", Region: "california", PostalCode: "95014", CountryCode: "US",
	}}

	// given
	f.identity.EXPECT().Profile(gomock.Any(), "bearer-1").Return(checkoutapi.Profile{UID: "user-1", Name: "Marc Grol", Email: "marc@home.nl", Phone: "+13105551234"}, nil)
	f.addresses.EXPECT().List(gomock.Any(), "user-1").Return([]checkoutapi.Address{home, office}, nil)
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)

	// when
	err := sut.Start(c, "bearer-1")

	// then
	assert.NoError(t, err)
	view := sut.View()
	assert.Equal(t, beverlyHills, view.Customer)
	assert.Equal(t, []checkoutapi.CartLineItem{mug}, view.Cart.Items)
	assert.Len(t, view.SavedAddresses, 2)

	// given
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)

	// when
	err = sut.SelectSavedAddress(c, "addr-2")

	// then
	assert.NoError(t, err)
	assert.Equal(t, "CA", sut.View().Customer.Address.Region)
	assert.Equal(t, "Cupertino", sut.View().Customer.Address.City)

	// given
	assert.NoError(t, sut.SelectRate(c, "rate-1"))
	f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req ordergateway.SubmitRequest) (ordergateway.Result, error) {
		assert.Equal(t, "bearer-1", req.BearerToken)
		assert.False(t, req.Register)
		return ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil
	})
	f.addresses.EXPECT().List(gomock.Any(), "user-1").Return([]checkoutapi.Address{home}, nil)
	f.addresses.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).Return(checkoutapi.Address{}, fmt.Errorf("address book is down"))

	// when
	err = sut.SubmitOrder(c)

	// then
	assert.NoError(t, err)
	assert.Equal(t, StepPayment, sut.View().Step)
}

func TestCheckInventory(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, f := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)
	assert.NoError(t, sut.Start(c, ""))

	t.Run("Available", func(t *testing.T) {
		f.inventory.EXPECT().CheckAvailability(gomock.Any(), []checkoutapi.CartLineItem{mug}).Return(inventory.Availability{Available: true})

		assert.NoError(t, sut.CheckInventory(c))
	})

	t.Run("Service unreachable", func(t *testing.T) {
		f.inventory.EXPECT().CheckAvailability(gomock.Any(), gomock.Any()).Return(inventory.Availability{Available: false, Message: "Availability could not be verified"})

		err := sut.CheckInventory(c)

		assert.Equal(t, KindInventoryUnavailable, err.(*Error).Kind)
		assert.Equal(t, "Availability could not be verified", err.Error())
	})
}

func TestEmptyCart(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	sut, _ := setup(ctrl, nil, nil)

	assert.NoError(t, sut.Start(c, ""))

	assert.Equal(t, StepEmpty, sut.View().Step)
	assert.Equal(t, emptyCartMessage, sut.SubmitOrder(c).Error())
}

func TestConfirmPayment(t *testing.T) {
	c := context.TODO()

	t.Run("Not awaiting payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, _ := setup(ctrl, []checkoutapi.CartLineItem{mug}, nil)
		assert.NoError(t, sut.Start(c, ""))

		err := sut.ConfirmPayment(c, payment.Event{Succeeded: true})

		assert.Equal(t, http.StatusConflict, myerrors.GetHTTPStatus(err))
	})

	t.Run("Failed payment stays on payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)
		readyToSubmit(t, sut, f)
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil)
		assert.NoError(t, sut.SubmitOrder(c))

		err := sut.ConfirmPayment(c, payment.Event{PaymentIntentID: "pi_1", Succeeded: false, Message: "Your card was declined."})

		assert.NoError(t, err)
		view := sut.View()
		assert.Equal(t, StepPayment, view.Step)
		assert.Equal(t, []checkoutapi.CartLineItem{usOnlyShirt}, view.Cart.Items)
		assert.Equal(t, "Your payment did not go through: Your card was declined.", view.Notices[len(view.Notices)-1].Message)
	})

	t.Run("Foreign payment-intent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sut, f := setup(ctrl, []checkoutapi.CartLineItem{usOnlyShirt}, nil)
		readyToSubmit(t, sut, f)
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil)
		assert.NoError(t, sut.SubmitOrder(c))

		err := sut.ConfirmPayment(c, payment.Event{PaymentIntentID: "pi_other", Succeeded: true})

		assert.Equal(t, http.StatusBadRequest, myerrors.GetHTTPStatus(err))
		assert.Equal(t, StepPayment, sut.View().Step)
	})
}

func readyToSubmit(t *testing.T, sut *Machine, f fixture) {
	c := context.TODO()
	assert.NoError(t, sut.Start(c, ""))
	f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)
	assert.NoError(t, sut.UpdateCustomer(c, checkoutapi.CustomerForm{Customer: beverlyHills}))
	assert.NoError(t, sut.SelectRate(c, "rate-1"))
}

func setup(ctrl *gomock.Controller, guestItems []checkoutapi.CartLineItem, accountItems []checkoutapi.CartLineItem) (*Machine, fixture) {
	deps, f := collaborators(ctrl, accountItems)
	f.guest = cart.NewMemoryStore(checkoutapi.Cart{Items: guestItems})

	return NewMachine("checkout-1", f.guest, deps), f
}

func collaborators(ctrl *gomock.Controller, accountItems []checkoutapi.CartLineItem) (Collaborators, fixture) {
	postal := location.NewMockPostalLookup(ctrl)
	postal.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return(location.Place{}, false, nil).AnyTimes()

	tax, _ := NewFlatRateTax(DefaultTaxRates())

	f := fixture{
		rates:     shipping.NewMockRateFetcher(ctrl),
		inventory: inventory.NewMockChecker(ctrl),
		identity:  identity.NewMockClient(ctrl),
		addresses: addressbook.NewMockBook(ctrl),
		gateway:   ordergateway.NewMockSubmitter(ctrl),
		account:   cart.NewMemoryStore(checkoutapi.Cart{Items: accountItems}),
	}
	account := f.account

	return Collaborators{
		Location:  location.New(location.NewStaticCatalog(), postal),
		Rates:     f.rates,
		Inventory: f.inventory,
		Identity:  f.identity,
		Addresses: f.addresses,
		Gateway:   f.gateway,
		Tax:       tax,
		AccountCart: func(bearerToken string) cart.Store {
			return account
		},
	}, f
}
