package checkout

import (
	"context"
	"fmt"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttp"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/checkoutevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	err = s.pubsub.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/checkout/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *service) OnOrderCreated(c context.Context, topic string, event checkoutevents.OrderCreated) error {
	s.logger.Log(c, event.OrderNumber, mylog.SeverityInfo, "Order %s created for checkout %s", event.OrderNumber, event.SessionUID)

	now := s.nower.Now()

	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		_, exists, err := s.checkoutStore.Get(c, event.OrderNumber)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout of order %s: %s", event.OrderNumber, err))
		}
		if exists {
			return nil
		}

		err = s.checkoutStore.Put(c, event.OrderNumber, checkoutapi.CheckoutContext{
			OrderNumber:   event.OrderNumber,
			SessionUID:    event.SessionUID,
			CreatedAt:     now,
			Amount:        checkoutapi.Amount{Currency: event.Currency, Value: event.AmountInCents},
			ShopperEmail:  event.ShopperEmail,
			PaymentStatus: checkoutapi.PaymentStatusUnpaid,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout of order %s: %s", event.OrderNumber, err))
		}
		return nil
	})
}

func (s *service) OnPaymentIntentCreated(c context.Context, topic string, event checkoutevents.PaymentIntentCreated) error {
	return s.updateCheckoutContext(c, event.OrderNumber, func(checkoutContext *checkoutapi.CheckoutContext) {
		if checkoutContext.PaymentStatus == checkoutapi.PaymentStatusPaid {
			return
		}
		checkoutContext.PaymentProvider = event.ProviderName
		checkoutContext.PaymentIntentID = event.PaymentIntentID
	})
}

func (s *service) OnCheckoutCompleted(c context.Context, topic string, event checkoutevents.CheckoutCompleted) error {
	s.logger.Log(c, event.OrderNumber, mylog.SeverityInfo, "Checkout of order %s completed: %s", event.OrderNumber, event.CheckoutStatus)

	return s.updateCheckoutContext(c, event.OrderNumber, func(checkoutContext *checkoutapi.CheckoutContext) {
		if checkoutContext.PaymentStatus == checkoutapi.PaymentStatusPaid {
			return
		}
		checkoutContext.PaymentProvider = event.ProviderName
		checkoutContext.PaymentIntentID = event.PaymentIntentID
		checkoutContext.StatusDetails = event.CheckoutStatusDetails
		if event.CheckoutStatus == checkoutevents.CheckoutStatusSuccess {
			checkoutContext.PaymentStatus = checkoutapi.PaymentStatusPaid
		} else {
			checkoutContext.PaymentStatus = checkoutapi.PaymentStatusFailed
		}
	})
}

func (s *service) updateCheckoutContext(c context.Context, orderNumber string, apply func(checkoutContext *checkoutapi.CheckoutContext)) error {
	now := s.nower.Now()

	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		checkoutContext, found, err := s.checkoutStore.Get(c, orderNumber)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout of order %s: %s", orderNumber, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout of order %s not found", orderNumber))
		}

		apply(&checkoutContext)
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, orderNumber, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout of order %s: %s", orderNumber, err))
		}
		return nil
	})
}
