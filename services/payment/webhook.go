package payment

import (
	"encoding/json"
	"fmt"

	"github.com/adyen/adyen-go-api-library/v6/src/hmacvalidator"
	"github.com/adyen/adyen-go-api-library/v6/src/notification"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
)

// Event is a payment outcome reported asynchronously by a processor.
type Event struct {
	Provider        string
	PaymentIntentID string
	OrderNumber     string
	SessionUID      string
	Succeeded       bool
	Message         string
}

// ParseStripeWebhook verifies the signature and extracts the outcome of a payment-intent.
// The second return value is false for event types that carry no payment outcome.
func ParseStripeWebhook(payload []byte, signatureHeader string, secret string) (Event, bool, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, secret)
	if err != nil {
		return Event{}, false, myerrors.NewAuthenticationError(fmt.Errorf("error verifying stripe webhook: %s", err))
	}

	eventType := string(event.Type)
	if eventType != "payment_intent.succeeded" && eventType != "payment_intent.payment_failed" {
		return Event{}, false, nil
	}

	intent := stripe.PaymentIntent{}
	err = json.Unmarshal(event.Data.Raw, &intent)
	if err != nil {
		return Event{}, false, myerrors.NewInvalidInputError(fmt.Errorf("error parsing payment-intent of event %s: %s", event.ID, err))
	}

	result := Event{
		Provider:        ProviderStripe,
		PaymentIntentID: intent.ID,
		OrderNumber:     intent.Metadata["orderNumber"],
		SessionUID:      intent.Metadata["sessionUID"],
		Succeeded:       eventType == "payment_intent.succeeded",
	}
	if intent.LastPaymentError != nil {
		result.Message = intent.LastPaymentError.Msg
	}

	return result, true, nil
}

// ParseAdyenNotification verifies the hmac signature of every notification item and extracts the authorisation outcomes.
// Items of other event types are acknowledged but carry no outcome.
func ParseAdyenNotification(payload []byte, hmacKey string) ([]Event, error) {
	n := notification.Notification{}
	err := json.Unmarshal(payload, &n)
	if err != nil {
		return nil, myerrors.NewInvalidInputError(fmt.Errorf("error parsing adyen notification: %s", err))
	}

	events := []Event{}
	for _, item := range n.GetNotificationItems() {
		if item.AdditionalData == nil || !hmacvalidator.ValidateHmac(*item, hmacKey) {
			return nil, myerrors.NewAuthenticationError(fmt.Errorf("invalid hmac signature on adyen notification %s", item.PspReference))
		}
		if item.EventCode != notification.EventCodeAuthorisation {
			continue
		}

		additionalData := *item.AdditionalData
		event := Event{
			Provider:        ProviderAdyen,
			PaymentIntentID: stringValue(additionalData, "checkoutSessionId"),
			OrderNumber:     item.MerchantReference,
			SessionUID:      stringValue(additionalData, "metadata.sessionUID"),
			Succeeded:       item.Success == "true",
		}
		if !event.Succeeded {
			event.Message = item.Reason
		}
		events = append(events, event)
	}

	return events, nil
}

func stringValue(data map[string]interface{}, key string) string {
	value, ok := data[key].(string)
	if !ok {
		return ""
	}
	return value
}
