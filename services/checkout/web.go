package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopcheckout/lib/mycontext"
	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttp"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/lib/mypublisher"
	"github.com/MarcGrol/shopcheckout/lib/mypubsub"
	"github.com/MarcGrol/shopcheckout/lib/mystore"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myuuid"
	"github.com/MarcGrol/shopcheckout/services/cart"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/checkoutevents"
	"github.com/MarcGrol/shopcheckout/services/payment"
)

const (
	maxWebhookPayload = 65536
)

type Config struct {
	StripeWebhookSecret string
	AdyenHMACKey        string
}

type adyenNotificationResponse struct {
	Status string `json:"status"`
}

type webService struct {
	cfg     Config
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, deps Collaborators, guestCarts mystore.Store[cart.GuestCart], checkoutStore mystore.Store[checkoutapi.CheckoutContext],
	nower mytime.Nower, uuider myuuid.UUIDer, pubsub mypubsub.PubSub, publisher mypublisher.Publisher) *webService {
	return &webService{
		cfg:     cfg,
		logger:  mylog.New("checkout"),
		service: newService(deps, guestCarts, checkoutStore, nower, uuider, pubsub, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	router.HandleFunc("/api/checkout", s.startPage()).Methods("POST")
	router.HandleFunc("/api/checkout/event", s.handleEventEnvelope()).Methods("PUT")
	router.HandleFunc("/api/checkout/webhook/stripe", s.stripeWebhook()).Methods("POST")
	router.HandleFunc("/api/checkout/webhook/adyen", s.adyenNotification()).Methods("POST")
	router.HandleFunc("/api/checkout/orders/{orderNumber}", s.orderStatusPage()).Methods("GET")
	router.HandleFunc("/api/checkout/cron/expire-guest-carts", s.expireGuestCartsPage()).Methods("GET") // cron supports only get

	router.HandleFunc("/api/checkout/{sessionUID}", s.viewPage()).Methods("GET")
	router.HandleFunc("/api/checkout/{sessionUID}", s.abandonPage()).Methods("DELETE")
	router.HandleFunc("/api/checkout/{sessionUID}/customer", s.customerPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{sessionUID}/country/{countryCode}", s.countryPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{sessionUID}/zip/{postalCode}", s.zipPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{sessionUID}/cart", s.cartPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{sessionUID}/cart/remove", s.removeItemsPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{sessionUID}/rate/{rateID}", s.ratePage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{sessionUID}/address/{addressUID}", s.savedAddressPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{sessionUID}/login", s.loginPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{sessionUID}/merge/confirm", s.mergePage(true)).Methods("POST")
	router.HandleFunc("/api/checkout/{sessionUID}/merge/cancel", s.mergePage(false)).Methods("POST")
	router.HandleFunc("/api/checkout/{sessionUID}/inventory", s.inventoryPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{sessionUID}/submit", s.submitPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{sessionUID}/payment/retry", s.retryPaymentPage()).Methods("POST")

	return nil
}

type startRequest struct {
	GuestUID string `json:"guestUID"`
}

func (s *webService) startPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := startRequest{}
		if r.ContentLength > 0 {
			err := json.NewDecoder(r.Body).Decode(&req)
			if err != nil {
				errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
				return
			}
		}
		bearerToken, _ := mycontext.BearerToken(c)

		m, err := s.service.start(c, req.GuestUID, bearerToken)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		s.writeView(c, w, http.StatusCreated, m)
	}
}

func (s *webService) viewPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return nil
	})
}

func (s *webService) abandonPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.service.abandon(c, mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Checkout abandoned"})
	}
}

func (s *webService) customerPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		form, err := checkoutapi.NewCustomerFormFromRequest(r)
		if err != nil {
			return err
		}
		return m.UpdateCustomer(c, form)
	})
}

func (s *webService) countryPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return m.ChangeCountry(c, mux.Vars(r)["countryCode"])
	})
}

func (s *webService) zipPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return m.ChangeZip(c, mux.Vars(r)["postalCode"])
	})
}

func (s *webService) cartPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		newCart := checkoutapi.Cart{}
		err := json.NewDecoder(r.Body).Decode(&newCart)
		if err != nil {
			return myerrors.NewInvalidInputError(fmt.Errorf("error parsing cart: %s", err))
		}
		return m.ChangeCart(c, newCart)
	})
}

type removeItemsRequest struct {
	Keys []string `json:"keys"`
}

func (s *webService) removeItemsPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		req := removeItemsRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			return myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err))
		}
		return m.RemoveItems(c, req.Keys...)
	})
}

func (s *webService) ratePage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return m.SelectRate(c, mux.Vars(r)["rateID"])
	})
}

func (s *webService) savedAddressPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return m.SelectSavedAddress(c, mux.Vars(r)["addressUID"])
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *webService) loginPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		req := loginRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			return myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err))
		}
		return m.Login(c, req.Email, req.Password)
	})
}

func (s *webService) mergePage(confirm bool) http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		if confirm {
			return m.ConfirmMerge(c)
		}
		return m.CancelMerge(c)
	})
}

func (s *webService) inventoryPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return m.CheckInventory(c)
	})
}

func (s *webService) submitPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return s.service.submitOrder(c, m)
	})
}

func (s *webService) retryPaymentPage() http.HandlerFunc {
	return s.sessionOperation(func(c context.Context, r *http.Request, m *Machine) error {
		return s.service.retryPayment(c, m)
	})
}

func (s *webService) orderStatusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutContext, err := s.service.orderStatus(c, mux.Vars(r)["orderNumber"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkoutContext)
	}
}

func (s *webService) expireGuestCartsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		removed, err := s.service.expireGuestCarts(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: fmt.Sprintf("Expired %d guest carts", removed)})
	}
}

func (s *webService) stripeWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookPayload))
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		event, relevant, err := payment.ParseStripeWebhook(payload, r.Header.Get("Stripe-Signature"), s.cfg.StripeWebhookSecret)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}
		if !relevant {
			errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Ignored"})
			return
		}

		err = s.service.paymentNotification(c, event)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Processed"})
	}
}

// adyenNotification receives the definitive authorisation outcome of an adyen checkout session
func (s *webService) adyenNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookPayload))
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		events, err := payment.ParseAdyenNotification(payload, s.cfg.AdyenHMACKey)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		for _, event := range events {
			err = s.service.paymentNotification(c, event)
			if err != nil {
				errorWriter.WriteError(c, w, 3, err)
				return
			}
		}

		errorWriter.Write(c, w, http.StatusOK, adyenNotificationResponse{
			Status: "[accepted]", // adyen stops redelivering once it receives this body
		})
	}
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := checkoutevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}

// sessionOperation resolves the checkout of the request, runs the operation and answers with the resulting view.
func (s *webService) sessionOperation(operation func(c context.Context, r *http.Request, m *Machine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		m, err := s.service.get(mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = operation(c, r, m)
		if err != nil {
			// the error response carries the message already
			m.TakeNotices()
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		s.writeView(c, w, http.StatusOK, m)
	}
}

func (s *webService) writeView(c context.Context, w http.ResponseWriter, httpStatus int, m *Machine) {
	view := m.View()
	view.Notices = m.TakeNotices()
	myhttp.NewWriter(s.logger).Write(c, w, httpStatus, view)
}
