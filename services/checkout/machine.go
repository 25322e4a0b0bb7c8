package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/addressbook"
	"github.com/MarcGrol/shopcheckout/services/addressnorm"
	"github.com/MarcGrol/shopcheckout/services/cart"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/identity"
	"github.com/MarcGrol/shopcheckout/services/inventory"
	"github.com/MarcGrol/shopcheckout/services/location"
	"github.com/MarcGrol/shopcheckout/services/ordergateway"
	"github.com/MarcGrol/shopcheckout/services/payment"
	"github.com/MarcGrol/shopcheckout/services/shipping"
)

const (
	maxNotices = 20
)

// Collaborators are the external parties a checkout talks to.
type Collaborators struct {
	Location    *location.Lookup
	Rates       shipping.RateFetcher
	Inventory   inventory.Checker
	Identity    identity.Client
	Addresses   addressbook.Book
	Gateway     ordergateway.Submitter
	Tax         TaxCalculator
	AccountCart func(bearerToken string) cart.Store
}

// Machine drives one checkout from form entry to completed payment.
// The lock is never held while waiting for a collaborator; results of calls that were overtaken by a newer edit are dropped.
type Machine struct {
	sync.Mutex
	deps       Collaborators
	session    Session
	catalog    checkoutapi.CountryCatalog
	guestStore cart.Store
	cartStore  cart.Store
	negotiator *cart.Negotiator

	rateGeneration  uint64
	stateGeneration uint64
	zipGeneration   uint64
	lookupsInFlight int
	cartSaving      bool
	// what the unpaid order in the session was created for
	orderSignature string

	logger mylog.Logger
}

func NewMachine(uid string, guestStore cart.Store, deps Collaborators) *Machine {
	return &Machine{
		deps: deps,
		session: Session{
			UID:          uid,
			Step:         StepForm,
			Cart:         checkoutapi.Cart{Items: []checkoutapi.CartLineItem{}},
			States:       []checkoutapi.State{},
			Incompatible: []checkoutapi.IncompatibleItem{},
			Rates:        []checkoutapi.ShippingRateOption{},
		},
		guestStore: guestStore,
		cartStore:  guestStore,
		logger:     mylog.New("checkout"),
	}
}

func (m *Machine) UID() string {
	return m.session.UID
}

func (m *Machine) View() Session {
	m.Lock()
	defer m.Unlock()

	return m.session.view()
}

// TakeNotices hands out the pending notifications once.
func (m *Machine) TakeNotices() []Notice {
	m.Lock()
	defer m.Unlock()

	notices := m.session.Notices
	m.session.Notices = nil
	return notices
}

// Start loads the catalog and the operative cart. A bearer token makes the account cart operative and prefills the form.
func (m *Machine) Start(c context.Context, bearerToken string) error {
	catalog, err := m.deps.Location.Countries(c)
	if err != nil {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error loading country catalog: %s", err)
		catalog = checkoutapi.CountryCatalog{Countries: []checkoutapi.Country{}}
		m.notify(KindLookupDegraded, "Shipping destinations could not be loaded")
	}

	store := m.guestStore
	var profile *checkoutapi.Profile
	if bearerToken != "" {
		p, err := m.deps.Identity.Profile(c, bearerToken)
		if err != nil {
			return fmt.Errorf("error fetching profile: %s", err)
		}
		profile = &p
		store = m.deps.AccountCart(bearerToken)
	}

	currentCart, err := store.Load(c)
	if err != nil && store != m.guestStore {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error loading account cart, using guest cart: %s", err)
		m.notify(KindLookupDegraded, "Your saved cart could not be loaded")
		store = m.guestStore
		currentCart, err = store.Load(c)
	}
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error loading cart: %s", err))
	}

	m.Lock()
	m.catalog = catalog
	m.cartStore = store
	m.session.Cart = copyCart(currentCart)
	m.session.BearerToken = bearerToken
	m.session.Profile = profile
	m.Unlock()

	m.logger.Log(c, m.session.UID, mylog.SeverityInfo, "Started checkout with %d items (authenticated: %t)", len(currentCart.Items), bearerToken != "")

	m.prefill(c)
	m.Recompute(c)

	return nil
}

// UpdateCustomer applies the edited form. Country and postal code changes trigger their lookups.
func (m *Machine) UpdateCustomer(c context.Context, form checkoutapi.CustomerForm) error {
	m.Lock()
	err := m.mustBeOnForm()
	if err != nil {
		m.Unlock()
		return err
	}

	previous := m.session.Customer.Address
	customer := form.Customer
	customer.Address.CountryCode = strings.ToUpper(strings.TrimSpace(customer.Address.CountryCode))
	customer.Address.Region = addressnorm.NormalizeRegion(customer.Address.Region)
	m.session.Customer = customer
	m.session.SignupIntent = form.CreateAccount
	m.session.Password = form.Password
	m.session.PasswordRepeat = form.PasswordRepeat

	countryChanged := previous.CountryCode != customer.Address.CountryCode
	zipChanged := previous.PostalCode != customer.Address.PostalCode
	m.Unlock()

	if countryChanged {
		m.refreshStates(c)
	}
	if countryChanged || zipChanged {
		m.lookupZip(c)
	}
	m.Recompute(c)

	return nil
}

func (m *Machine) ChangeCountry(c context.Context, countryCode string) error {
	m.Lock()
	err := m.mustBeOnForm()
	if err != nil {
		m.Unlock()
		return err
	}
	m.session.Customer.Address.CountryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	m.Unlock()

	m.refreshStates(c)
	m.lookupZip(c)
	m.Recompute(c)

	return nil
}

func (m *Machine) ChangeZip(c context.Context, postalCode string) error {
	m.Lock()
	err := m.mustBeOnForm()
	if err != nil {
		m.Unlock()
		return err
	}
	m.session.Customer.Address.PostalCode = strings.TrimSpace(postalCode)
	m.Unlock()

	m.lookupZip(c)
	m.Recompute(c)

	return nil
}

func (m *Machine) SetSignupIntent(createAccount bool, password string, passwordRepeat string) error {
	m.Lock()
	defer m.Unlock()

	err := m.mustBeOnForm()
	if err != nil {
		return err
	}
	m.session.SignupIntent = createAccount
	m.session.Password = password
	m.session.PasswordRepeat = passwordRepeat

	return nil
}

// ChangeCart replaces the contents of the operative cart.
func (m *Machine) ChangeCart(c context.Context, newCart checkoutapi.Cart) error {
	verr := validateCart(newCart)
	if verr != nil {
		m.notify(verr.Kind, verr.Message)
		return verr
	}

	m.Lock()
	err := m.mustBeOnForm()
	if err == nil && m.cartSaving {
		err = myerrors.NewConflictError(fmt.Errorf("cart of checkout %s is being updated", m.session.UID))
	}
	if err != nil {
		m.Unlock()
		return err
	}
	m.cartSaving = true
	store := m.cartStore
	m.Unlock()

	if newCart.Items == nil {
		newCart.Items = []checkoutapi.CartLineItem{}
	}
	err = store.Save(c, newCart)

	m.Lock()
	m.cartSaving = false
	if err == nil {
		m.session.Cart = copyCart(newCart)
	}
	m.Unlock()
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing cart: %s", err))
	}

	m.Recompute(c)

	return nil
}

// RemoveItems drops the given lines, typically the ones named by a shipping restriction or inventory problem.
func (m *Machine) RemoveItems(c context.Context, keys ...string) error {
	m.Lock()
	remaining := m.session.Cart.Without(keys...)
	m.Unlock()

	return m.ChangeCart(c, remaining)
}

func (m *Machine) SelectRate(c context.Context, rateID string) error {
	m.Lock()
	defer m.Unlock()

	err := m.mustBeOnForm()
	if err != nil {
		return err
	}

	for _, option := range m.session.Rates {
		if option.ID == rateID {
			selected := option
			m.session.SelectedRate = &selected
			m.updateTotals()
			return nil
		}
	}
	return newValidationError("shippingRate", fmt.Sprintf("Unknown shipping method %s", rateID))
}

// SelectSavedAddress fills the form with an address from the book of the logged-in shopper.
func (m *Machine) SelectSavedAddress(c context.Context, addressUID string) error {
	m.Lock()
	err := m.mustBeOnForm()
	if err != nil {
		m.Unlock()
		return err
	}
	if !m.session.Authenticated() {
		m.Unlock()
		return myerrors.NewAuthenticationError(fmt.Errorf("saved addresses require login"))
	}

	found := false
	for _, address := range m.session.SavedAddresses {
		if address.UID == addressUID {
			m.applySavedAddress(address)
			found = true
			break
		}
	}
	m.Unlock()

	if !found {
		return myerrors.NewNotFoundError(fmt.Errorf("address %s not found", addressUID))
	}

	m.refreshStates(c)
	m.Recompute(c)

	return nil
}

// Login authenticates a guest. When the account already holds a different cart, the checkout waits for the shopper to choose.
func (m *Machine) Login(c context.Context, email string, password string) error {
	m.Lock()
	err := m.mustBeOnForm()
	if err == nil && m.session.Authenticated() {
		err = myerrors.NewConflictError(fmt.Errorf("already logged in"))
	}
	m.Unlock()
	if err != nil {
		return err
	}

	identitySession, err := m.deps.Identity.Login(c, email, password)
	if err != nil {
		return err
	}

	negotiator := cart.NewNegotiator(m.guestStore, m.deps.AccountCart(identitySession.BearerToken))

	m.Lock()
	m.session.BearerToken = identitySession.BearerToken
	profile := identitySession.Profile
	m.session.Profile = &profile
	m.negotiator = negotiator
	m.Unlock()

	pending, err := negotiator.OnLogin(c, m.resumeWith(c))
	if err != nil {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error comparing carts, continuing with current cart: %s", err)
		m.notify(KindLookupDegraded, "Your saved cart could not be loaded. Continuing with your current cart.")
	}
	if pending {
		guestCart, accountCart := negotiator.Carts()
		m.Lock()
		m.session.Step = StepCartMerge
		m.session.GuestCart = &guestCart
		m.session.AccountCart = &accountCart
		m.Unlock()
		return nil
	}

	m.prefill(c)
	m.Recompute(c)

	return nil
}

// ConfirmMerge continues with the cart of the account.
func (m *Machine) ConfirmMerge(c context.Context) error {
	return m.resolveMerge(c, true)
}

// CancelMerge continues with the guest cart; the cart of the account is left as it is.
func (m *Machine) CancelMerge(c context.Context) error {
	return m.resolveMerge(c, false)
}

func (m *Machine) resolveMerge(c context.Context, confirm bool) error {
	m.Lock()
	negotiator := m.negotiator
	step := m.session.Step
	m.Unlock()

	if step != StepCartMerge || negotiator == nil {
		return myerrors.NewConflictError(fmt.Errorf("no cart decision pending (step %s)", step))
	}

	var err error
	if confirm {
		err = negotiator.Confirm(c, m.resumeWith(c))
	} else {
		err = negotiator.Cancel(c, m.resumeWith(c))
	}
	if err != nil {
		return err
	}

	m.prefill(c)
	m.Recompute(c)

	return nil
}

func (m *Machine) resumeWith(c context.Context) cart.ResumeFunc {
	return func(resolution cart.Resolution) error {
		m.Lock()
		defer m.Unlock()

		m.cartStore = resolution.Store
		m.session.Cart = copyCart(resolution.Cart)
		m.session.Step = StepForm
		m.session.GuestCart = nil
		m.session.AccountCart = nil

		m.logger.Log(c, m.session.UID, mylog.SeverityInfo, "Resuming checkout after %s", resolution.Decision)
		return nil
	}
}

// CheckInventory asks the inventory service whether every line can still be fulfilled.
func (m *Machine) CheckInventory(c context.Context) error {
	m.Lock()
	items := copyCart(m.session.Cart).Items
	m.Unlock()

	availability := m.deps.Inventory.CheckAvailability(c, items)
	if availability.Available {
		return nil
	}

	e := newInventoryUnavailable(availability.Message, problemsOfUnavailable(availability.Unavailable))
	m.notify(e.Kind, e.Message)
	return e
}

// SubmitOrder validates the checkout and turns it into an order with a payment-intent.
// Only one submission can be in progress at a time.
func (m *Machine) SubmitOrder(c context.Context) error {
	m.Lock()
	if m.session.Submitting {
		m.Unlock()
		return myerrors.NewConflictError(fmt.Errorf("order submission already in progress"))
	}
	err := m.mustBeOnForm()
	if err == nil && m.cartSaving {
		err = myerrors.NewConflictError(fmt.Errorf("cart of checkout %s is being updated", m.session.UID))
	}
	if err != nil {
		m.Unlock()
		return err
	}

	verr := validateSubmission(m.session, m.catalog)
	if verr != nil {
		m.addNotice(verr.Kind, verr.Message)
		m.Unlock()
		return verr
	}

	m.session.Submitting = true
	req := ordergateway.SubmitRequest{
		CheckoutUID: m.session.UID,
		BearerToken: m.session.BearerToken,
		Register:    m.session.SignupIntent,
		Password:    m.session.Password,
		Customer:    m.session.Customer,
		Cart:        copyCart(m.session.Cart),
		Rate:        *m.session.SelectedRate,
		TaxInCents:  m.session.TaxInCents,
	}
	m.Unlock()

	m.logger.Log(c, req.CheckoutUID, mylog.SeverityInfo, "Submitting order with %d items", len(req.Cart.Items))

	result, err := m.deps.Gateway.Submit(c, req)
	if err != nil {
		return m.submissionFailed(c, req, err)
	}

	m.paymentStarted(result)
	m.saveAddress(c, req)

	return nil
}

// RetryPayment requests a new payment-intent for the order that was created but could not be paid yet.
func (m *Machine) RetryPayment(c context.Context) error {
	m.Lock()
	if m.session.Submitting {
		m.Unlock()
		return myerrors.NewConflictError(fmt.Errorf("order submission already in progress"))
	}
	if m.session.Step != StepForm || m.session.Order == nil {
		m.Unlock()
		return myerrors.NewConflictError(fmt.Errorf("no unpaid order to retry (step %s)", m.session.Step))
	}
	if m.orderSignature != submissionSignature(m.session.Customer, m.session.Cart, m.session.SelectedRate) {
		// the unpaid order no longer matches the checkout: a new submission creates a matching one
		orderNumber := m.session.Order.OrderNumber
		m.session.Order = nil
		m.orderSignature = ""
		m.addNotice(KindValidation, fmt.Sprintf("Your checkout changed after order %s was created. Please place your order again.", orderNumber))
		m.Unlock()
		return myerrors.NewConflictError(fmt.Errorf("checkout changed after order %s was created", orderNumber))
	}
	m.session.Submitting = true
	m.Unlock()

	result, err := m.deps.Gateway.RetryPaymentIntent(c, m.session.UID)
	if err != nil {
		m.Lock()
		m.session.Submitting = false
		m.Unlock()

		failure := &ordergateway.Failure{}
		if errors.As(err, &failure) {
			e := newSubmissionFailure(failure)
			m.notify(e.Kind, e.Message)
			return e
		}
		return err
	}

	m.paymentStarted(result)

	return nil
}

func (m *Machine) paymentStarted(result ordergateway.Result) {
	m.Lock()
	defer m.Unlock()

	order := result.Order
	m.session.Submitting = false
	m.session.Order = &order
	m.orderSignature = ""
	m.session.PaymentProvider = result.Intent.Provider
	m.session.PaymentIntentID = result.Intent.ID
	m.session.ClientSecret = result.Intent.ClientSecret
	m.session.Step = StepPayment
	m.session.Password = ""
	m.session.PasswordRepeat = ""
}

func (m *Machine) submissionFailed(c context.Context, req ordergateway.SubmitRequest, err error) error {
	failure := &ordergateway.Failure{}
	if !errors.As(err, &failure) {
		failure = &ordergateway.Failure{
			Kind:    ordergateway.FailureRetryable,
			Message: "Your order could not be placed right now. Please try again.",
			Err:     err,
		}
	}
	m.logger.Log(c, req.CheckoutUID, mylog.SeverityWarn, "Order submission failed (%s): %s", failure.Kind, failure.Message)

	if failure.Kind == ordergateway.FailurePaymentIntent {
		m.Lock()
		m.session.Submitting = false
		m.session.Order = failure.Order
		m.orderSignature = submissionSignature(req.Customer, req.Cart, &req.Rate)
		m.Unlock()

		e := newSubmissionFailure(failure)
		m.notify(e.Kind, e.Message)
		return e
	}

	// a rejected or failed order may be caused by items that sold out meanwhile
	availability := m.deps.Inventory.CheckAvailability(c, req.Cart.Items)

	m.Lock()
	m.session.Submitting = false
	m.Unlock()

	if !availability.Available && len(availability.Unavailable) > 0 {
		e := newInventoryUnavailable(availability.Message, problemsOfUnavailable(availability.Unavailable))
		m.notify(e.Kind, e.Message)
		return e
	}

	e := newSubmissionFailure(failure)
	m.notify(e.Kind, e.Message)
	return e
}

// ConfirmPayment processes the outcome reported by the payment processor. Success completes the checkout and clears the cart.
func (m *Machine) ConfirmPayment(c context.Context, event payment.Event) error {
	m.Lock()
	if m.session.Step == StepComplete {
		m.Unlock()
		return nil
	}
	if m.session.Step != StepPayment {
		step := m.session.Step
		m.Unlock()
		return myerrors.NewConflictError(fmt.Errorf("checkout is not awaiting payment (step %s)", step))
	}
	if event.PaymentIntentID != "" && m.session.PaymentIntentID != "" && event.PaymentIntentID != m.session.PaymentIntentID {
		m.Unlock()
		return myerrors.NewInvalidInputError(fmt.Errorf("payment-intent %s does not belong to checkout %s", event.PaymentIntentID, m.session.UID))
	}

	if !event.Succeeded {
		message := "Your payment did not go through. Please try again or use another payment method."
		if event.Message != "" {
			message = fmt.Sprintf("Your payment did not go through: %s", event.Message)
		}
		m.addNotice(KindOrderSubmissionFailure, message)
		m.Unlock()
		return nil
	}

	m.session.Step = StepComplete
	if m.session.Order != nil {
		m.session.Order.PaymentStatus = checkoutapi.PaymentStatusPaid
	}
	m.session.Cart = checkoutapi.Cart{Items: []checkoutapi.CartLineItem{}}
	m.session.ClientSecret = ""
	store := m.cartStore
	m.Unlock()

	m.logger.Log(c, m.session.UID, mylog.SeverityInfo, "Payment %s captured: checkout complete", event.PaymentIntentID)

	err := store.Clear(c)
	if err != nil {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error clearing cart after payment: %s", err)
	}
	if store != m.guestStore {
		err = m.guestStore.Clear(c)
		if err != nil {
			m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error clearing guest cart after payment: %s", err)
		}
	}
	m.deps.Gateway.Forget(m.session.UID)

	return nil
}

// Recompute re-evaluates shipping compatibility and, when the address is complete, fetches a fresh quote.
// A quote that arrives after a newer recompute started is discarded.
func (m *Machine) Recompute(c context.Context) {
	m.Lock()
	if m.session.Step != StepForm || m.session.Submitting {
		m.Unlock()
		return
	}

	incompatible := shipping.CheckCompatibility(m.session.Cart.Items, m.session.Customer.Address.CountryCode, m.catalog)
	message := shipping.FormatIncompatibilityMessage(incompatible, m.catalog)
	if message != "" && message != m.session.IncompatibilityMessage {
		m.addNotice(KindShippingRestriction, message)
	}
	m.session.Incompatible = incompatible
	m.session.IncompatibilityMessage = message

	m.rateGeneration++
	generation := m.rateGeneration

	if m.session.Cart.IsEmpty() || !shipping.ReadyForRates(m.session.Customer, incompatible) {
		m.session.Rates = []checkoutapi.ShippingRateOption{}
		m.session.SelectedRate = nil
		m.session.LoadingRates = false
		m.updateTotals()
		m.Unlock()
		return
	}

	req := shipping.RateRequest{
		Recipient: m.session.Customer,
		Items:     copyCart(m.session.Cart).Items,
		Currency:  m.session.Cart.Currency(),
	}
	trigger := rateTrigger(m.session)
	previous := m.session.SelectedRate
	m.session.LoadingRates = true
	m.Unlock()

	options, err := m.deps.Rates.FetchRates(c, req)

	m.Lock()
	defer m.Unlock()

	if generation != m.rateGeneration || trigger != rateTrigger(m.session) {
		m.logger.Log(c, m.session.UID, mylog.SeverityDebug, "Discarding stale shipping quote for %s", req.Recipient.Address.CountryCode)
		return
	}
	m.session.LoadingRates = false
	if m.session.Submitting || m.session.Step != StepForm {
		// the order is being placed with the rate selected before
		return
	}

	if err != nil {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error fetching shipping rates: %s", err)
		m.session.Rates = []checkoutapi.ShippingRateOption{}
		m.session.SelectedRate = nil
		m.addNotice(KindLookupDegraded, "Shipping rates could not be loaded. Please check your address or try again.")
		m.updateTotals()
		return
	}

	m.session.Rates = options
	m.session.SelectedRate = shipping.ReselectRate(previous, options)
	m.updateTotals()
}

func rateTrigger(s Session) string {
	addr := s.Customer.Address
	return strings.Join([]string{addr.CountryCode, addr.PostalCode, addr.Region, addr.City, addr.Line1, s.Cart.Signature()}, "|")
}

func (m *Machine) refreshStates(c context.Context) {
	m.Lock()
	m.stateGeneration++
	generation := m.stateGeneration
	country := m.session.Customer.Address.CountryCode
	region := m.session.Customer.Address.Region
	m.startLookup()
	m.Unlock()

	states, updates, err := m.deps.Location.UpdateAvailableStates(c, country, region)

	m.Lock()
	defer m.Unlock()

	m.endLookup()
	if generation != m.stateGeneration || country != m.session.Customer.Address.CountryCode || m.session.Submitting {
		return
	}
	if err != nil {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error loading states of %s: %s", country, err)
		m.session.States = []checkoutapi.State{}
		m.addNotice(KindLookupDegraded, "States could not be loaded. Please enter your state manually.")
		return
	}
	m.session.States = states
	m.session.Customer.Address = location.ApplyUpdates(m.session.Customer.Address, updates)
}

func (m *Machine) lookupZip(c context.Context) {
	m.Lock()
	m.zipGeneration++
	generation := m.zipGeneration
	country := m.session.Customer.Address.CountryCode
	zip := m.session.Customer.Address.PostalCode
	m.startLookup()
	m.Unlock()

	updates := m.deps.Location.HandleZipCodeChange(c, zip, country)

	m.Lock()
	defer m.Unlock()

	m.endLookup()
	if generation != m.zipGeneration || zip != m.session.Customer.Address.PostalCode || country != m.session.Customer.Address.CountryCode || m.session.Submitting {
		return
	}
	m.session.Customer.Address = location.ApplyUpdates(m.session.Customer.Address, updates)
}

func (m *Machine) startLookup() {
	m.lookupsInFlight++
	m.session.LoadingLocation = true
}

func (m *Machine) endLookup() {
	m.lookupsInFlight--
	m.session.LoadingLocation = m.lookupsInFlight > 0
}

// prefill completes the form from the profile and the default shipping address of a logged-in shopper.
func (m *Machine) prefill(c context.Context) {
	m.Lock()
	profile := m.session.Profile
	m.Unlock()

	if profile == nil {
		return
	}

	addresses, err := m.deps.Addresses.List(c, profile.UID)
	if err != nil {
		m.logger.Log(c, m.session.UID, mylog.SeverityWarn, "Error fetching saved addresses: %s", err)
		addresses = []checkoutapi.Address{}
	}

	m.Lock()
	customer := &m.session.Customer
	if customer.Name == "" {
		customer.Name = profile.Name
	}
	if customer.Email == "" {
		customer.Email = profile.Email
	}
	if customer.Phone == "" {
		customer.Phone = profile.Phone
	}
	m.session.SavedAddresses = addresses

	addressChanged := false
	if strings.TrimSpace(customer.Address.Line1) == "" {
		for _, address := range addresses {
			if address.DefaultShipping {
				m.applySavedAddress(address)
				addressChanged = true
				break
			}
		}
	}
	m.Unlock()

	if addressChanged {
		m.refreshStates(c)
	}
}

func (m *Machine) applySavedAddress(address checkoutapi.Address) {
	if address.Name != "" {
		m.session.Customer.Name = address.Name
	}
	if address.Phone != "" {
		m.session.Customer.Phone = address.Phone
	}
	m.session.Customer.Address = address.PostalAddress
	m.session.Customer.Address.Region = addressnorm.NormalizeRegion(address.PostalAddress.Region)
}

// saveAddress adds the shipping address to the book of a logged-in shopper. Failure never affects the order.
func (m *Machine) saveAddress(c context.Context, req ordergateway.SubmitRequest) {
	m.Lock()
	profile := m.session.Profile
	m.Unlock()

	if req.BearerToken == "" || profile == nil {
		return
	}

	existing, err := m.deps.Addresses.List(c, profile.UID)
	if err != nil {
		m.logger.Log(c, req.CheckoutUID, mylog.SeverityWarn, "Error fetching saved addresses: %s", err)
		return
	}
	if len(existing) >= addressbook.MaxAddressesPerOwner {
		return
	}
	for _, address := range existing {
		if sameAddress(address.PostalAddress, req.Customer.Address) {
			return
		}
	}

	_, err = m.deps.Addresses.Create(c, profile.UID, checkoutapi.Address{
		Name:          req.Customer.Name,
		Phone:         req.Customer.Phone,
		PostalAddress: req.Customer.Address,
	})
	if err != nil {
		m.logger.Log(c, req.CheckoutUID, mylog.SeverityWarn, "Error saving address: %s", err)
	}
}

func submissionSignature(customer checkoutapi.CustomerInfo, shoppingCart checkoutapi.Cart, rate *checkoutapi.ShippingRateOption) string {
	addr := customer.Address
	shippingMethod := ""
	if rate != nil {
		shippingMethod = fmt.Sprintf("%s/%s/%d", rate.CarrierName, rate.ServiceName, rate.PriceInCents)
	}
	return strings.Join([]string{shoppingCart.Signature(), customer.Email, addr.Line1, addr.Line2, addr.City, addr.Region,
		addr.PostalCode, addr.CountryCode, shippingMethod}, "|")
}

func sameAddress(a, b checkoutapi.PostalAddress) bool {
	return strings.EqualFold(strings.TrimSpace(a.Line1), strings.TrimSpace(b.Line1)) &&
		strings.EqualFold(strings.ReplaceAll(a.PostalCode, " ", ""), strings.ReplaceAll(b.PostalCode, " ", "")) &&
		strings.EqualFold(a.CountryCode, b.CountryCode)
}

func (m *Machine) updateTotals() {
	currency := m.session.Cart.Currency()
	subtotal := checkoutapi.Amount{Currency: currency, Value: m.session.Cart.SubtotalInCents()}

	shippingCost := checkoutapi.Amount{Currency: currency}
	if m.session.SelectedRate != nil {
		shippingCost.Value = m.session.SelectedRate.PriceInCents
	}

	tax := checkoutapi.Amount{Currency: currency}
	if m.deps.Tax != nil {
		tax = m.deps.Tax.TaxFor(m.session.Customer.Address, subtotal)
	}

	m.session.Currency = currency
	m.session.SubtotalInCents = subtotal.Value
	m.session.TaxInCents = tax.Value
	m.session.TotalInCents = checkoutapi.AmountFromDecimal(currency, subtotal.Decimal().Add(shippingCost.Decimal()).Add(tax.Decimal())).Value
}

// mustBeOnForm guards every edit of the checkout: edits are only possible on the form and never while an order is being placed.
func (m *Machine) mustBeOnForm() error {
	if m.session.Submitting {
		return myerrors.NewConflictError(fmt.Errorf("checkout %s is placing an order", m.session.UID))
	}
	if m.session.Step != StepForm {
		return myerrors.NewConflictError(fmt.Errorf("checkout %s is at step %s", m.session.UID, m.session.Step))
	}
	return nil
}

func (m *Machine) notify(kind ErrorKind, message string) {
	m.Lock()
	defer m.Unlock()

	m.addNotice(kind, message)
}

func (m *Machine) addNotice(kind ErrorKind, message string) {
	m.session.Notices = append(m.session.Notices, Notice{Kind: kind, Message: message})
	if len(m.session.Notices) > maxNotices {
		m.session.Notices = m.session.Notices[len(m.session.Notices)-maxNotices:]
	}
}

func problemsOfUnavailable(list []inventory.UnavailableItem) []ItemProblem {
	problems := make([]ItemProblem, 0, len(list))
	for _, u := range list {
		problems = append(problems, ItemProblem{Key: u.Key, Name: u.Name, Reason: u.Reason})
	}
	return problems
}
