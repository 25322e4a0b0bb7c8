package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adyen/adyen-go-api-library/v6/src/hmacvalidator"
	"github.com/adyen/adyen-go-api-library/v6/src/notification"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/shopcheckout/lib/myevents"
	"github.com/MarcGrol/shopcheckout/lib/mypublisher"
	"github.com/MarcGrol/shopcheckout/lib/mypubsub"
	"github.com/MarcGrol/shopcheckout/lib/mystore"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myuuid"
	"github.com/MarcGrol/shopcheckout/services/cart"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/checkoutevents"
	"github.com/MarcGrol/shopcheckout/services/ordergateway"
)

const (
	webhookSecret = "whsec_test"
	adyenHMACKey  = "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056"
)

var (
	now = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
)

type errorResponse struct {
	ErrorCode int
	Kind      string
	Message   string
	Details   struct {
		Field       string        `json:"field"`
		Items       []ItemProblem `json:"items"`
		Failure     string        `json:"failure"`
		OrderNumber string        `json:"orderNumber"`
	}
}

type webFixture struct {
	fixture
	publisher     *mypublisher.MockPublisher
	uuider        *myuuid.MockUUIDer
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
}

func TestCheckoutWeb(t *testing.T) {
	t.Run("Start and view", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, f := setupWeb(t, ctrl, []checkoutapi.CartLineItem{mug})

		// given
		f.uuider.EXPECT().Create().Return("session-1")

		// when
		response := doRequest(t, router, http.MethodPost, "/api/checkout", `{"guestUID":"guest-1"}`, "")

		// then
		assert.Equal(t, http.StatusCreated, response.Code)
		view := Session{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &view))
		assert.Equal(t, "session-1", view.UID)
		assert.Equal(t, StepForm, view.Step)
		assert.Equal(t, []checkoutapi.CartLineItem{mug}, view.Cart.Items)

		// when
		response = doRequest(t, router, http.MethodGet, "/api/checkout/session-1", "", "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)

		// when
		response = doRequest(t, router, http.MethodGet, "/api/checkout/session-2", "", "")

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})

	t.Run("Validation error carries kind and field", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, f := setupWeb(t, ctrl, []checkoutapi.CartLineItem{mug})

		// given
		f.uuider.EXPECT().Create().Return("session-1")
		doRequest(t, router, http.MethodPost, "/api/checkout", `{"guestUID":"guest-1"}`, "")

		// when
		response := doRequest(t, router, http.MethodPost, "/api/checkout/session-1/submit", "", "")

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		resp := errorResponse{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &resp))
		assert.Equal(t, "ValidationError", resp.Kind)
		assert.Equal(t, "name", resp.Details.Field)
		assert.Equal(t, "Please fill in all required fields: name, email, phone, address1, city, zip, country", resp.Message)
	})

	t.Run("Shipping restriction names the item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, f := setupWeb(t, ctrl, []checkoutapi.CartLineItem{usOnlyShirt})

		// given
		f.uuider.EXPECT().Create().Return("session-1")
		doRequest(t, router, http.MethodPost, "/api/checkout", `{"guestUID":"guest-1"}`, "")

		// when
		response := doRequest(t, router, http.MethodPut, "/api/checkout/session-1/customer", encodeCustomer(t, berlin), "application/x-www-form-urlencoded")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		view := Session{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &view))
		assert.Len(t, view.Incompatible, 1)
		assert.Len(t, view.Notices, 1)

		// when
		response = doRequest(t, router, http.MethodPost, "/api/checkout/session-1/submit", "", "")

		// then
		assert.Equal(t, http.StatusUnprocessableEntity, response.Code)
		resp := errorResponse{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &resp))
		assert.Equal(t, "ShippingRestriction", resp.Kind)
		assert.Equal(t, "Logo T-Shirt", resp.Details.Items[0].Name)

		// when
		response = doRequest(t, router, http.MethodPost, "/api/checkout/session-1/cart/remove", fmt.Sprintf(`{"keys":[%q]}`, usOnlyShirt.Key()), "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		view = Session{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &view))
		assert.Equal(t, StepEmpty, view.Step)
	})

	t.Run("Submit publishes order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, f := setupWeb(t, ctrl, []checkoutapi.CartLineItem{usOnlyShirt})

		// given
		f.uuider.EXPECT().Create().Return("session-1")
		doRequest(t, router, http.MethodPost, "/api/checkout", `{"guestUID":"guest-1"}`, "")
		f.rates.EXPECT().FetchRates(gomock.Any(), gomock.Any()).Return([]checkoutapi.ShippingRateOption{ground}, nil)
		doRequest(t, router, http.MethodPut, "/api/checkout/session-1/customer", encodeCustomer(t, beverlyHills), "application/x-www-form-urlencoded")
		doRequest(t, router, http.MethodPut, "/api/checkout/session-1/rate/rate-1", "", "")
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(ordergateway.Result{Order: createdOrder, Intent: okIntent}, nil)
		f.publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.OrderCreated{
			OrderNumber:   "ORD-1001",
			SessionUID:    "session-1",
			ShopperEmail:  "marc@home.nl",
			AmountInCents: 3099,
			Currency:      "USD",
			Guest:         true,
		}).Return(nil)
		f.publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.PaymentIntentCreated{
			OrderNumber:     "ORD-1001",
			SessionUID:      "session-1",
			ProviderName:    "stripe",
			PaymentIntentID: "pi_1",
		}).Return(nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/checkout/session-1/submit", "", "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		view := Session{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &view))
		assert.Equal(t, StepPayment, view.Step)
		assert.Equal(t, "pi_1_secret", view.ClientSecret)

		// given
		f.gateway.EXPECT().Forget("session-1")
		f.publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			OrderNumber:     "ORD-1001",
			SessionUID:      "session-1",
			ProviderName:    "stripe",
			PaymentIntentID: "pi_1",
			CheckoutStatus:  checkoutevents.CheckoutStatusSuccess,
		}).Return(nil)

		// when
		payload := stripeEvent("payment_intent.succeeded", `{"id":"pi_1","object":"payment_intent","metadata":{"orderNumber":"ORD-1001","sessionUID":"session-1"}}`)
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/webhook/stripe", strings.NewReader(string(payload)))
		assert.NoError(t, err)
		request.Header.Set("Stripe-Signature", signStripe(payload, webhookSecret))
		response = httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		response = doRequest(t, router, http.MethodGet, "/api/checkout/session-1", "", "")
		assert.Equal(t, http.StatusNotFound, response.Code)
	})

	t.Run("Webhook with bad signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, _ := setupWeb(t, ctrl, nil)

		// when
		payload := stripeEvent("payment_intent.succeeded", `{"id":"pi_1","object":"payment_intent"}`)
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/webhook/stripe", strings.NewReader(string(payload)))
		assert.NoError(t, err)
		request.Header.Set("Stripe-Signature", signStripe(payload, "whsec_other"))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("Adyen notification completes checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, f := setupWeb(t, ctrl, nil)

		// given
		f.publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			OrderNumber:     "ORD-1001",
			SessionUID:      "session-1",
			ProviderName:    "adyen",
			PaymentIntentID: "CS123",
			CheckoutStatus:  checkoutevents.CheckoutStatusSuccess,
		}).Return(nil)

		// when
		response := doRequest(t, router, http.MethodPost, "/api/checkout/webhook/adyen", string(adyenAuthorisation(t, adyenHMACKey)), "application/json")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.JSONEq(t, `{"status":"[accepted]"}`, response.Body.String())
	})

	t.Run("Adyen notification with bad signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, _ := setupWeb(t, ctrl, nil)

		// when
		payload := adyenAuthorisation(t, "00112233445566778899AABBCCDDEEFF00112233445566778899AABBCCDDEEFF")
		response := doRequest(t, router, http.MethodPost, "/api/checkout/webhook/adyen", string(payload), "application/json")

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
	})

	t.Run("Events maintain order status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, _ := setupWeb(t, ctrl, nil)

		// when
		response := doRequest(t, router, http.MethodGet, "/api/checkout/orders/ORD-1001", "", "")

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)

		// when
		response = doRequest(t, router, http.MethodPut, "/api/checkout/event", pushRequest(t, checkoutevents.OrderCreated{
			OrderNumber: "ORD-1001", SessionUID: "session-1", ShopperEmail: "marc@home.nl", AmountInCents: 3099, Currency: "USD", Guest: true,
		}), "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)

		// when
		doRequest(t, router, http.MethodPut, "/api/checkout/event", pushRequest(t, checkoutevents.CheckoutCompleted{
			OrderNumber: "ORD-1001", SessionUID: "session-1", ProviderName: "stripe", PaymentIntentID: "pi_1", CheckoutStatus: checkoutevents.CheckoutStatusSuccess,
		}), "")
		doRequest(t, router, http.MethodPut, "/api/checkout/event", pushRequest(t, checkoutevents.CheckoutCompleted{
			OrderNumber: "ORD-1001", SessionUID: "session-1", ProviderName: "stripe", PaymentIntentID: "pi_1", CheckoutStatus: checkoutevents.CheckoutStatusFailed,
		}), "")
		response = doRequest(t, router, http.MethodGet, "/api/checkout/orders/ORD-1001", "", "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		checkoutContext := checkoutapi.CheckoutContext{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &checkoutContext))
		assert.Equal(t, checkoutapi.PaymentStatusPaid, checkoutContext.PaymentStatus)
		assert.Equal(t, checkoutapi.Amount{Currency: "USD", Value: 3099}, checkoutContext.Amount)
		assert.Equal(t, "pi_1", checkoutContext.PaymentIntentID)
	})

	t.Run("Expire guest carts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, _ := setupWeb(t, ctrl, []checkoutapi.CartLineItem{mug})

		// when
		response := doRequest(t, router, http.MethodGet, "/api/checkout/cron/expire-guest-carts", "", "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), "Expired 0 guest carts")
	})

	t.Run("Abandon", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router, f := setupWeb(t, ctrl, []checkoutapi.CartLineItem{mug})

		// given
		f.uuider.EXPECT().Create().Return("session-1")
		doRequest(t, router, http.MethodPost, "/api/checkout", `{"guestUID":"guest-1"}`, "")
		f.gateway.EXPECT().Forget("session-1")

		// when
		response := doRequest(t, router, http.MethodDelete, "/api/checkout/session-1", "", "")

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		response = doRequest(t, router, http.MethodDelete, "/api/checkout/session-1", "", "")
		assert.Equal(t, http.StatusNotFound, response.Code)
	})
}

func doRequest(t *testing.T, router *mux.Router, method string, url string, body string, contentType string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request, err := http.NewRequest(method, url, reader)
	assert.NoError(t, err)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func encodeCustomer(t *testing.T, customer checkoutapi.CustomerInfo) string {
	values, err := checkoutapi.CustomerForm{Customer: customer}.ToForm()
	assert.NoError(t, err)
	return values.Encode()
}

func pushRequest(t *testing.T, event myevents.Event) string {
	payload, err := json.Marshal(event)
	assert.NoError(t, err)
	envelope, err := json.Marshal(myevents.EventEnvelope{
		UID:           "event-1",
		CreatedAt:     now,
		Topic:         checkoutevents.TopicName,
		AggregateUID:  event.GetAggregateName(),
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(payload),
	})
	assert.NoError(t, err)
	body, err := json.Marshal(myevents.PushRequest{Message: myevents.PushMessage{Data: envelope}, Subscription: checkoutevents.TopicName})
	assert.NoError(t, err)
	return string(body)
}

func stripeEvent(eventType string, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":"%s","type":"%s","data":{"object":%s}}`, stripe.APIVersion, eventType, object))
}

func signStripe(payload []byte, secret string) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", timestamp, payload)))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func adyenAuthorisation(t *testing.T, key string) []byte {
	item := notification.NotificationRequestItem{
		Amount:              notification.Amount{Currency: "USD", Value: 3099},
		EventCode:           notification.EventCodeAuthorisation,
		MerchantAccountCode: "MyMerchantAccount",
		MerchantReference:   "ORD-1001",
		PaymentMethod:       "visa",
		PspReference:        "7914073381342284",
		Success:             "true",
	}
	signature, err := hmacvalidator.CalculateHmac(item, key)
	assert.NoError(t, err)
	item.AdditionalData = &map[string]interface{}{
		"hmacSignature":       signature,
		"checkoutSessionId":   "CS123",
		"metadata.sessionUID": "session-1",
	}
	payload, err := json.Marshal(notification.Notification{
		Live:              "false",
		NotificationItems: &[]notification.NotificationItem{{NotificationRequestItem: item}},
	})
	assert.NoError(t, err)
	return payload
}

func setupWeb(t *testing.T, ctrl *gomock.Controller, guestItems []checkoutapi.CartLineItem) (*mux.Router, webFixture) {
	c := context.TODO()

	deps, f := collaborators(ctrl, nil)

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(now).AnyTimes()

	guestCarts, guestCleanup, err := mystore.NewInMemoryStore[cart.GuestCart](c)
	assert.NoError(t, err)
	t.Cleanup(guestCleanup)
	checkoutStore, checkoutCleanup, err := mystore.NewInMemoryStore[checkoutapi.CheckoutContext](c)
	assert.NoError(t, err)
	t.Cleanup(checkoutCleanup)

	if len(guestItems) > 0 {
		err = cart.NewGuestStore("guest-1", guestCarts, nower).Save(c, checkoutapi.Cart{Items: guestItems})
		assert.NoError(t, err)
	}

	wf := webFixture{
		fixture:       f,
		publisher:     mypublisher.NewMockPublisher(ctrl),
		uuider:        myuuid.NewMockUUIDer(ctrl),
		checkoutStore: checkoutStore,
	}

	pubsub := mypubsub.NewMockPubSub(ctrl)
	wf.publisher.EXPECT().CreateTopic(gomock.Any(), checkoutevents.TopicName).Return(nil)
	pubsub.EXPECT().Subscribe(gomock.Any(), checkoutevents.TopicName, gomock.Any()).Return(nil)

	router := mux.NewRouter()
	err = NewWebService(Config{StripeWebhookSecret: webhookSecret, AdyenHMACKey: adyenHMACKey}, deps, guestCarts, checkoutStore, nower, wf.uuider, pubsub, wf.publisher).RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return router, wf
}
