package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
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
	guestCartRetention = 30 * 24 * time.Hour
)

type service struct {
	sync.Mutex
	logger        mylog.Logger
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	deps          Collaborators
	guestCarts    mystore.Store[cart.GuestCart]
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	publisher     mypublisher.Publisher
	pubsub        mypubsub.PubSub
	sessions      map[string]*Machine
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(deps Collaborators, guestCarts mystore.Store[cart.GuestCart], checkoutStore mystore.Store[checkoutapi.CheckoutContext],
	nower mytime.Nower, uuider myuuid.UUIDer, pubsub mypubsub.PubSub, publisher mypublisher.Publisher) *service {
	return &service{
		logger:        mylog.New("checkout"),
		nower:         nower,
		uuider:        uuider,
		deps:          deps,
		guestCarts:    guestCarts,
		checkoutStore: checkoutStore,
		publisher:     publisher,
		pubsub:        pubsub,
		sessions:      map[string]*Machine{},
	}
}

// start opens a new checkout for the cart of a guest, or for the account cart when a bearer token is given.
func (s *service) start(c context.Context, guestUID string, bearerToken string) (*Machine, error) {
	if guestUID == "" {
		guestUID = s.uuider.Create()
	}
	sessionUID := s.uuider.Create()

	m := NewMachine(sessionUID, cart.NewGuestStore(guestUID, s.guestCarts, s.nower), s.deps)
	err := m.Start(c, bearerToken)
	if err != nil {
		return nil, err
	}

	s.Lock()
	s.sessions[sessionUID] = m
	s.Unlock()

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s started for guest %s", sessionUID, guestUID)

	return m, nil
}

func (s *service) get(sessionUID string) (*Machine, error) {
	s.Lock()
	defer s.Unlock()

	m, found := s.sessions[sessionUID]
	if !found {
		return nil, myerrors.NewNotFoundError(fmt.Errorf("checkout %s not found", sessionUID))
	}
	return m, nil
}

// abandon discards a checkout. An order created for it remains unpaid.
func (s *service) abandon(c context.Context, sessionUID string) error {
	s.Lock()
	_, found := s.sessions[sessionUID]
	delete(s.sessions, sessionUID)
	s.Unlock()

	if !found {
		return myerrors.NewNotFoundError(fmt.Errorf("checkout %s not found", sessionUID))
	}
	s.deps.Gateway.Forget(sessionUID)
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s abandoned", sessionUID)
	return nil
}

func (s *service) submitOrder(c context.Context, m *Machine) error {
	err := m.SubmitOrder(c)
	published := s.publishOrder(c, m)
	if err != nil {
		return err
	}
	return published
}

func (s *service) retryPayment(c context.Context, m *Machine) error {
	err := m.RetryPayment(c)
	if err != nil {
		return err
	}
	return s.publishOrder(c, m)
}

// publishOrder announces the order and its payment-intent, as far as they exist.
func (s *service) publishOrder(c context.Context, m *Machine) error {
	view := m.View()
	if view.Order == nil {
		return nil
	}

	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		_, exists, err := s.checkoutStore.Get(c, view.Order.OrderNumber)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout of order %s: %s", view.Order.OrderNumber, err))
		}
		if !exists {
			err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.OrderCreated{
				OrderNumber:   view.Order.OrderNumber,
				SessionUID:    view.UID,
				ShopperEmail:  view.Customer.Email,
				AmountInCents: view.TotalInCents,
				Currency:      view.Currency,
				Guest:         !view.Authenticated(),
			})
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
			}
		}

		if view.PaymentIntentID != "" {
			err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.PaymentIntentCreated{
				OrderNumber:     view.Order.OrderNumber,
				SessionUID:      view.UID,
				ProviderName:    view.PaymentProvider,
				PaymentIntentID: view.PaymentIntentID,
			})
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
			}
		}

		return nil
	})
}

// paymentNotification applies the outcome reported by the payment processor.
// It also works when the checkout session itself is gone: the event still reaches the order read model.
func (s *service) paymentNotification(c context.Context, event payment.Event) error {
	s.logger.Log(c, event.OrderNumber, mylog.SeverityInfo, "Payment notification for order %s: succeeded=%t", event.OrderNumber, event.Succeeded)

	if event.SessionUID != "" {
		m, err := s.get(event.SessionUID)
		if err == nil {
			err = m.ConfirmPayment(c, event)
			if err != nil {
				return err
			}
			if event.Succeeded {
				s.Lock()
				delete(s.sessions, event.SessionUID)
				s.Unlock()
			}
		}
	}

	status := checkoutevents.CheckoutStatusSuccess
	if !event.Succeeded {
		status = checkoutevents.CheckoutStatusFailed
	}

	err := s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
		OrderNumber:           event.OrderNumber,
		SessionUID:            event.SessionUID,
		ProviderName:          event.Provider,
		PaymentIntentID:       event.PaymentIntentID,
		CheckoutStatus:        status,
		CheckoutStatusDetails: event.Message,
	})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
	}

	return nil
}

func (s *service) orderStatus(c context.Context, orderNumber string) (checkoutapi.CheckoutContext, error) {
	checkoutContext, found, err := s.checkoutStore.Get(c, orderNumber)
	if err != nil {
		return checkoutapi.CheckoutContext{}, myerrors.NewInternalError(fmt.Errorf("error fetching checkout of order %s: %s", orderNumber, err))
	}
	if !found {
		return checkoutapi.CheckoutContext{}, myerrors.NewNotFoundError(fmt.Errorf("checkout of order %s not found", orderNumber))
	}
	return checkoutContext, nil
}

// expireGuestCarts drops guest carts that were abandoned long enough ago.
func (s *service) expireGuestCarts(c context.Context) (int, error) {
	removed, err := cart.ExpireGuestCarts(c, s.guestCarts, s.nower.Now().Add(-guestCartRetention))
	if err != nil {
		return removed, err
	}
	s.logger.Log(c, "", mylog.SeverityInfo, "Expired %d guest carts", removed)
	return removed, nil
}
