package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/lib/mystore"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

// Store is where the operative cart of a checkout lives.
//
//go:generate mockgen -source=store.go -package cart -destination store_mock.go Store
type Store interface {
	Load(c context.Context) (checkoutapi.Cart, error)
	Save(c context.Context, cart checkoutapi.Cart) error
	Clear(c context.Context) error
}

// GuestCart is the persisted form of a cart that is not tied to an account.
type GuestCart struct {
	GuestUID     string
	Payload      string `datastore:",noindex"`
	LastModified time.Time
}

type guestStore struct {
	guestUID string
	store    mystore.Store[GuestCart]
	nower    mytime.Nower
}

func NewGuestStore(guestUID string, store mystore.Store[GuestCart], nower mytime.Nower) Store {
	return &guestStore{
		guestUID: guestUID,
		store:    store,
		nower:    nower,
	}
}

func (s *guestStore) Load(c context.Context) (checkoutapi.Cart, error) {
	guestCart, found, err := s.store.Get(c, s.guestUID)
	if err != nil {
		return checkoutapi.Cart{}, myerrors.NewInternalError(fmt.Errorf("error fetching guest cart %s: %s", s.guestUID, err))
	}
	if !found || guestCart.Payload == "" {
		return checkoutapi.Cart{Items: []checkoutapi.CartLineItem{}}, nil
	}

	cart := checkoutapi.Cart{}
	err = json.Unmarshal([]byte(guestCart.Payload), &cart)
	if err != nil {
		return checkoutapi.Cart{}, myerrors.NewInternalError(fmt.Errorf("error parsing guest cart %s: %s", s.guestUID, err))
	}
	return cart, nil
}

func (s *guestStore) Save(c context.Context, cart checkoutapi.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error marshalling guest cart %s: %s", s.guestUID, err))
	}

	return s.store.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		err := s.store.Put(c, s.guestUID, GuestCart{
			GuestUID:     s.guestUID,
			Payload:      string(payload),
			LastModified: s.nower.Now(),
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing guest cart %s: %s", s.guestUID, err))
		}
		return nil
	})
}

func (s *guestStore) Clear(c context.Context) error {
	err := s.store.Delete(c, s.guestUID)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error clearing guest cart %s: %s", s.guestUID, err))
	}
	return nil
}

// ExpireGuestCarts removes the guest carts that were not touched since cutoff and reports how many it removed.
func ExpireGuestCarts(c context.Context, store mystore.Store[GuestCart], cutoff time.Time) (int, error) {
	stale, err := store.Query(c, []mystore.Filter{{Field: "LastModified", Compare: mystore.Before, Value: cutoff}}, "")
	if err != nil {
		return 0, myerrors.NewInternalError(fmt.Errorf("error querying stale guest carts: %s", err))
	}

	for idx, guestCart := range stale {
		err = store.Delete(c, guestCart.GuestUID)
		if err != nil {
			return idx, myerrors.NewInternalError(fmt.Errorf("error deleting guest cart %s: %s", guestCart.GuestUID, err))
		}
	}

	return len(stale), nil
}

type serverStore struct {
	sender      myhttpclient.HTTPSender
	baseURL     string
	bearerToken string
}

// NewServerStore reaches the cart of an authenticated user through the cart API.
func NewServerStore(sender myhttpclient.HTTPSender, baseURL string, bearerToken string) Store {
	return &serverStore{
		sender:      sender,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		bearerToken: bearerToken,
	}
}

func (s *serverStore) Load(c context.Context) (checkoutapi.Cart, error) {
	cart := checkoutapi.Cart{}
	err := myhttpclient.SendJSON(c, s.sender, http.MethodGet, s.baseURL+"/cart", s.bearerToken, nil, &cart)
	if err != nil {
		return checkoutapi.Cart{}, fmt.Errorf("error fetching server cart: %s", err)
	}
	if cart.Items == nil {
		cart.Items = []checkoutapi.CartLineItem{}
	}
	return cart, nil
}

func (s *serverStore) Save(c context.Context, cart checkoutapi.Cart) error {
	err := myhttpclient.SendJSON(c, s.sender, http.MethodPut, s.baseURL+"/cart", s.bearerToken, cart, nil)
	if err != nil {
		return fmt.Errorf("error storing server cart: %s", err)
	}
	return nil
}

func (s *serverStore) Clear(c context.Context) error {
	err := myhttpclient.SendJSON(c, s.sender, http.MethodDelete, s.baseURL+"/cart", s.bearerToken, nil, nil)
	if err != nil {
		return fmt.Errorf("error clearing server cart: %s", err)
	}
	return nil
}

// MemoryStore keeps a cart for the lifetime of one checkout only.
type MemoryStore struct {
	sync.Mutex
	cart checkoutapi.Cart
}

func NewMemoryStore(cart checkoutapi.Cart) *MemoryStore {
	return &MemoryStore{
		cart: copyCart(cart),
	}
}

func (s *MemoryStore) Load(c context.Context) (checkoutapi.Cart, error) {
	s.Lock()
	defer s.Unlock()

	return copyCart(s.cart), nil
}

func (s *MemoryStore) Save(c context.Context, cart checkoutapi.Cart) error {
	s.Lock()
	defer s.Unlock()

	s.cart = copyCart(cart)
	return nil
}

func (s *MemoryStore) Clear(c context.Context) error {
	s.Lock()
	defer s.Unlock()

	s.cart = checkoutapi.Cart{Items: []checkoutapi.CartLineItem{}}
	return nil
}

func copyCart(cart checkoutapi.Cart) checkoutapi.Cart {
	items := make([]checkoutapi.CartLineItem, len(cart.Items))
	copy(items, cart.Items)
	return checkoutapi.Cart{Items: items}
}
