package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

type NegotiationState string

const (
	NegotiationIdle     NegotiationState = "idle"
	NegotiationPending  NegotiationState = "pending"
	NegotiationResolved NegotiationState = "resolved"
)

type Decision string

const (
	// DecisionAdoptServer continues with the cart of the account.
	DecisionAdoptServer Decision = "adopt-server"
	// DecisionKeepGuest continues with the guest cart for this checkout only; the account cart is left alone.
	DecisionKeepGuest Decision = "keep-guest"
	// DecisionMoveGuest moves the guest cart into the empty account cart.
	DecisionMoveGuest Decision = "move-guest"
)

// Resolution tells the checkout which cart to continue with and where it lives.
type Resolution struct {
	Decision Decision
	Cart     checkoutapi.Cart
	Store    Store
}

// ResumeFunc makes the checkout continue with the resolved cart.
// Guest storage is only cleared once it returned without error.
type ResumeFunc func(resolution Resolution) error

// Negotiator reconciles the guest cart with the cart of the account a guest just logged into.
// It is the only component that switches the operative cart of a checkout, and it does so at most once.
type Negotiator struct {
	sync.Mutex
	guest      Store
	server     Store
	state      NegotiationState
	guestCart  checkoutapi.Cart
	serverCart checkoutapi.Cart
	logger     mylog.Logger
}

func NewNegotiator(guest Store, server Store) *Negotiator {
	return &Negotiator{
		guest:  guest,
		server: server,
		state:  NegotiationIdle,
		logger: mylog.New("cartmerge"),
	}
}

func (n *Negotiator) State() NegotiationState {
	n.Lock()
	defer n.Unlock()

	return n.state
}

// Carts returns the two carts the shopper has to choose between.
func (n *Negotiator) Carts() (guest checkoutapi.Cart, server checkoutapi.Cart) {
	n.Lock()
	defer n.Unlock()

	return copyCart(n.guestCart), copyCart(n.serverCart)
}

// OnLogin compares both carts. It resolves on its own when there is nothing to choose and
// reports pending when the shopper must decide.
func (n *Negotiator) OnLogin(c context.Context, resume ResumeFunc) (bool, error) {
	n.Lock()
	defer n.Unlock()

	if n.state != NegotiationIdle {
		return false, myerrors.NewConflictError(fmt.Errorf("cart negotiation already started (%s)", n.state))
	}

	guestCart, err := n.guest.Load(c)
	if err != nil {
		return false, fmt.Errorf("error loading guest cart: %s", err)
	}
	serverCart, err := n.server.Load(c)
	if err != nil {
		return false, fmt.Errorf("error loading account cart: %s", err)
	}
	n.guestCart = guestCart
	n.serverCart = serverCart

	switch {
	case serverCart.IsEmpty() && !guestCart.IsEmpty():
		err = n.server.Save(c, guestCart)
		if err != nil {
			return false, fmt.Errorf("error moving guest cart to account: %s", err)
		}
		return false, n.resolve(c, Resolution{Decision: DecisionMoveGuest, Cart: copyCart(guestCart), Store: n.server}, resume)

	case guestCart.IsEmpty() || guestCart.Signature() == serverCart.Signature():
		return false, n.resolve(c, Resolution{Decision: DecisionAdoptServer, Cart: copyCart(serverCart), Store: n.server}, resume)

	default:
		n.state = NegotiationPending
		n.logger.Log(c, "", mylog.SeverityInfo, "Carts differ: guest has %d items, account has %d items", len(guestCart.Items), len(serverCart.Items))
		return true, nil
	}
}

// Confirm continues with the cart of the account and discards the guest cart.
func (n *Negotiator) Confirm(c context.Context, resume ResumeFunc) error {
	n.Lock()
	defer n.Unlock()

	err := n.mustBePending()
	if err != nil {
		return err
	}

	return n.resolve(c, Resolution{Decision: DecisionAdoptServer, Cart: copyCart(n.serverCart), Store: n.server}, resume)
}

// Cancel continues with the guest cart and leaves the cart of the account untouched.
func (n *Negotiator) Cancel(c context.Context, resume ResumeFunc) error {
	n.Lock()
	defer n.Unlock()

	err := n.mustBePending()
	if err != nil {
		return err
	}

	return n.resolve(c, Resolution{Decision: DecisionKeepGuest, Cart: copyCart(n.guestCart), Store: NewMemoryStore(n.guestCart)}, resume)
}

func (n *Negotiator) mustBePending() error {
	if n.state != NegotiationPending {
		return myerrors.NewConflictError(fmt.Errorf("no cart decision pending (%s)", n.state))
	}
	return nil
}

func (n *Negotiator) resolve(c context.Context, resolution Resolution, resume ResumeFunc) error {
	err := resume(resolution)
	if err != nil {
		return fmt.Errorf("error resuming checkout with %s: %s", resolution.Decision, err)
	}
	n.state = NegotiationResolved

	err = n.guest.Clear(c)
	if err != nil {
		// not fatal: the decision has been applied
		n.logger.Log(c, "", mylog.SeverityWarn, "Error clearing guest cart after %s: %s", resolution.Decision, err)
	}

	n.logger.Log(c, "", mylog.SeverityInfo, "Cart negotiation resolved: %s (%d items)", resolution.Decision, len(resolution.Cart.Items))

	return nil
}
