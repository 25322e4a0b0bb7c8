package checkoutevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myevents"
)

const (
	TopicName                = "checkout"
	orderCreatedName         = TopicName + ".orderCreated"
	paymentIntentCreatedName = TopicName + ".paymentIntentCreated"
	checkoutCompletedName    = TopicName + ".completed"
)

type CheckoutEventService interface {
	Subscribe(c context.Context) error
	OnOrderCreated(c context.Context, topic string, event OrderCreated) error
	OnPaymentIntentCreated(c context.Context, topic string, event PaymentIntentCreated) error
	OnCheckoutCompleted(c context.Context, topic string, event CheckoutCompleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service CheckoutEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case orderCreatedName:
		{
			event := OrderCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOrderCreated(c, envelope.Topic, event)
		}
	case paymentIntentCreatedName:
		{
			event := PaymentIntentCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnPaymentIntentCreated(c, envelope.Topic, event)
		}
	case checkoutCompletedName:
		{
			event := CheckoutCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutCompleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unsupported event %s", envelope.EventTypeName))
	}
}

type OrderCreated struct {
	OrderNumber   string
	SessionUID    string
	ShopperEmail  string
	AmountInCents int64
	Currency      string
	Guest         bool
}

func (e OrderCreated) GetEventTypeName() string {
	return orderCreatedName
}

func (e OrderCreated) GetAggregateName() string {
	return e.OrderNumber
}

type PaymentIntentCreated struct {
	OrderNumber     string
	SessionUID      string
	ProviderName    string
	PaymentIntentID string
}

func (e PaymentIntentCreated) GetEventTypeName() string {
	return paymentIntentCreatedName
}

func (e PaymentIntentCreated) GetAggregateName() string {
	return e.OrderNumber
}

type CheckoutStatus string

const (
	CheckoutStatusSuccess CheckoutStatus = "success"
	CheckoutStatusFailed  CheckoutStatus = "failed"
)

type CheckoutCompleted struct {
	OrderNumber           string
	SessionUID            string
	ProviderName          string
	PaymentIntentID       string
	CheckoutStatus        CheckoutStatus
	CheckoutStatusDetails string
}

func (e CheckoutCompleted) GetEventTypeName() string {
	return checkoutCompletedName
}

func (e CheckoutCompleted) GetAggregateName() string {
	return e.OrderNumber
}
