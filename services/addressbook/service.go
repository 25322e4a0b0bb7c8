package addressbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/lib/mystore"
	"github.com/MarcGrol/shopcheckout/lib/mytime"
	"github.com/MarcGrol/shopcheckout/lib/myuuid"
	"github.com/MarcGrol/shopcheckout/services/addressnorm"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

const (
	MaxAddressesPerOwner = 6
)

//go:generate mockgen -source=service.go -package addressbook -destination book_mock.go Book
type Book interface {
	List(c context.Context, ownerUID string) ([]checkoutapi.Address, error)
	Create(c context.Context, ownerUID string, address checkoutapi.Address) (checkoutapi.Address, error)
	Update(c context.Context, ownerUID string, uid string, address checkoutapi.Address) (checkoutapi.Address, error)
	Delete(c context.Context, ownerUID string, uid string) error
	SetDefault(c context.Context, ownerUID string, uid string, addressType checkoutapi.AddressType) error
	Default(c context.Context, ownerUID string, addressType checkoutapi.AddressType) (checkoutapi.Address, bool, error)
}

type service struct {
	logger       mylog.Logger
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	addressStore mystore.Store[checkoutapi.Address]
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(addressStore mystore.Store[checkoutapi.Address], nower mytime.Nower, uuider myuuid.UUIDer) *service {
	return &service{
		logger:       mylog.New("addressbook"),
		nower:        nower,
		uuider:       uuider,
		addressStore: addressStore,
	}
}

func (s *service) List(c context.Context, ownerUID string) ([]checkoutapi.Address, error) {
	addresses, err := s.addressStore.Query(c, []mystore.Filter{{Field: "OwnerUID", Compare: "=", Value: ownerUID}}, "CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error fetching addresses of %s: %s", ownerUID, err))
	}
	return addresses, nil
}

func (s *service) Create(c context.Context, ownerUID string, address checkoutapi.Address) (checkoutapi.Address, error) {
	err := validateAddress(address)
	if err != nil {
		return checkoutapi.Address{}, err
	}

	address.UID = s.uuider.Create()
	address.OwnerUID = ownerUID
	address.PostalAddress.Region = addressnorm.NormalizeRegion(address.PostalAddress.Region)
	address.CreatedAt = s.nower.Now()
	address.LastModified = nil

	err = s.addressStore.RunInTransaction(c, func(c context.Context) error {
		existing, err := s.List(c, ownerUID)
		if err != nil {
			return err
		}
		if len(existing) >= MaxAddressesPerOwner {
			return myerrors.NewUnprocessableError(fmt.Errorf("address book of %s is full (max %d)", ownerUID, MaxAddressesPerOwner))
		}

		// the first address becomes the default for everything
		if len(existing) == 0 {
			address.DefaultShipping = true
			address.DefaultBilling = true
		}

		err = s.clearOtherDefaults(c, existing, address)
		if err != nil {
			return err
		}

		err = s.addressStore.Put(c, address.UID, address)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing address: %s", err))
		}
		return nil
	})
	if err != nil {
		return checkoutapi.Address{}, err
	}

	s.logger.Log(c, ownerUID, mylog.SeverityInfo, "Created address %s for %s", address.UID, ownerUID)

	return address, nil
}

func (s *service) Update(c context.Context, ownerUID string, uid string, address checkoutapi.Address) (checkoutapi.Address, error) {
	err := validateAddress(address)
	if err != nil {
		return checkoutapi.Address{}, err
	}

	now := s.nower.Now()
	updated := checkoutapi.Address{}
	err = s.addressStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		current, err := s.get(c, ownerUID, uid)
		if err != nil {
			return err
		}

		current.Name = address.Name
		current.Phone = address.Phone
		current.PostalAddress = address.PostalAddress
		current.PostalAddress.Region = addressnorm.NormalizeRegion(address.PostalAddress.Region)
		current.LastModified = &now

		err = s.addressStore.Put(c, uid, current)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing address %s: %s", uid, err))
		}
		updated = current
		return nil
	})
	if err != nil {
		return checkoutapi.Address{}, err
	}

	return updated, nil
}

func (s *service) Delete(c context.Context, ownerUID string, uid string) error {
	return s.addressStore.RunInTransaction(c, func(c context.Context) error {
		_, err := s.get(c, ownerUID, uid)
		if err != nil {
			return err
		}

		err = s.addressStore.Delete(c, uid)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error deleting address %s: %s", uid, err))
		}
		return nil
	})
}

// SetDefault makes the address the default for the given type. Defaults are exclusive per owner.
func (s *service) SetDefault(c context.Context, ownerUID string, uid string, addressType checkoutapi.AddressType) error {
	if !addressType.Valid() {
		return myerrors.NewInvalidInputError(fmt.Errorf("invalid address type '%s'", addressType))
	}

	now := s.nower.Now()
	return s.addressStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		current, err := s.get(c, ownerUID, uid)
		if err != nil {
			return err
		}

		if addressType == checkoutapi.AddressTypeShipping || addressType == checkoutapi.AddressTypeBoth {
			current.DefaultShipping = true
		}
		if addressType == checkoutapi.AddressTypeBilling || addressType == checkoutapi.AddressTypeBoth {
			current.DefaultBilling = true
		}
		current.LastModified = &now

		existing, err := s.List(c, ownerUID)
		if err != nil {
			return err
		}
		err = s.clearOtherDefaults(c, existing, current)
		if err != nil {
			return err
		}

		err = s.addressStore.Put(c, uid, current)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing address %s: %s", uid, err))
		}
		return nil
	})
}

func (s *service) Default(c context.Context, ownerUID string, addressType checkoutapi.AddressType) (checkoutapi.Address, bool, error) {
	addresses, err := s.List(c, ownerUID)
	if err != nil {
		return checkoutapi.Address{}, false, err
	}
	for _, a := range addresses {
		if (addressType == checkoutapi.AddressTypeBilling && a.DefaultBilling) ||
			(addressType != checkoutapi.AddressTypeBilling && a.DefaultShipping) {
			return a, true, nil
		}
	}
	return checkoutapi.Address{}, false, nil
}

func (s *service) get(c context.Context, ownerUID string, uid string) (checkoutapi.Address, error) {
	address, found, err := s.addressStore.Get(c, uid)
	if err != nil {
		return checkoutapi.Address{}, myerrors.NewInternalError(fmt.Errorf("error fetching address %s: %s", uid, err))
	}
	if !found || address.OwnerUID != ownerUID {
		return checkoutapi.Address{}, myerrors.NewNotFoundError(fmt.Errorf("address %s not found", uid))
	}
	return address, nil
}

func (s *service) clearOtherDefaults(c context.Context, existing []checkoutapi.Address, winner checkoutapi.Address) error {
	for _, other := range existing {
		if other.UID == winner.UID {
			continue
		}
		changed := false
		if winner.DefaultShipping && other.DefaultShipping {
			other.DefaultShipping = false
			changed = true
		}
		if winner.DefaultBilling && other.DefaultBilling {
			other.DefaultBilling = false
			changed = true
		}
		if !changed {
			continue
		}
		err := s.addressStore.Put(c, other.UID, other)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing address %s: %s", other.UID, err))
		}
	}
	return nil
}

func validateAddress(address checkoutapi.Address) error {
	pa := address.PostalAddress
	missing := checkoutapi.MissingFields(pa)
	if len(missing) > 0 {
		return myerrors.NewInvalidInputError(fmt.Errorf("missing address fields: %s", strings.Join(missing, ", ")))
	}

	validation := addressnorm.ValidatePostalCode(pa.PostalCode, pa.CountryCode)
	if !validation.Valid {
		return myerrors.NewInvalidInputError(fmt.Errorf("%s", validation.Message))
	}
	return nil
}
