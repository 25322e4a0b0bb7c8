package checkoutevents

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myevents"
)

type recordingService struct {
	received []any
}

func (s *recordingService) Subscribe(c context.Context) error {
	return nil
}

func (s *recordingService) OnOrderCreated(c context.Context, topic string, event OrderCreated) error {
	s.received = append(s.received, event)
	return nil
}

func (s *recordingService) OnPaymentIntentCreated(c context.Context, topic string, event PaymentIntentCreated) error {
	s.received = append(s.received, event)
	return nil
}

func (s *recordingService) OnCheckoutCompleted(c context.Context, topic string, event CheckoutCompleted) error {
	s.received = append(s.received, event)
	return nil
}

func TestDispatchEvent(t *testing.T) {
	t.Run("Checkout completed", func(t *testing.T) {
		service := &recordingService{}
		event := CheckoutCompleted{OrderNumber: "ORD-1001", ProviderName: "stripe", CheckoutStatus: CheckoutStatusSuccess}

		err := DispatchEvent(context.TODO(), pushRequest(t, event), service)

		assert.NoError(t, err)
		assert.Equal(t, []any{event}, service.received)
	})

	t.Run("Order created", func(t *testing.T) {
		service := &recordingService{}
		event := OrderCreated{OrderNumber: "ORD-1001", AmountInCents: 3299, Currency: "USD"}

		err := DispatchEvent(context.TODO(), pushRequest(t, event), service)

		assert.NoError(t, err)
		assert.Equal(t, []any{event}, service.received)
	})

	t.Run("Unknown event", func(t *testing.T) {
		service := &recordingService{}
		envelope, _ := json.Marshal(myevents.EventEnvelope{Topic: TopicName, EventTypeName: "checkout.unknown", EventPayload: "{}"})
		body, _ := json.Marshal(myevents.PushRequest{Message: myevents.PushMessage{Data: envelope}})

		err := DispatchEvent(context.TODO(), strings.NewReader(string(body)), service)

		assert.Equal(t, http.StatusNotImplemented, myerrors.GetHTTPStatus(err))
		assert.Empty(t, service.received)
	})

	t.Run("Garbage", func(t *testing.T) {
		err := DispatchEvent(context.TODO(), strings.NewReader("<html>"), &recordingService{})
		assert.Equal(t, http.StatusBadRequest, myerrors.GetHTTPStatus(err))
	})
}

func pushRequest(t *testing.T, event myevents.Event) *strings.Reader {
	payload, err := json.Marshal(event)
	assert.NoError(t, err)
	envelope, err := json.Marshal(myevents.EventEnvelope{
		Topic:         TopicName,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(payload),
	})
	assert.NoError(t, err)
	body, err := json.Marshal(myevents.PushRequest{Message: myevents.PushMessage{Data: envelope}})
	assert.NoError(t, err)
	return strings.NewReader(string(body))
}
