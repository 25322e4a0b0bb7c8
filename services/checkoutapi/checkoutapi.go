package checkoutapi

import (
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
)

// CustomerForm is what the checkout form posts when the shopper edits contact or address fields.
type CustomerForm struct {
	Customer       CustomerInfo `form:"customer"`
	CreateAccount  bool         `form:"createAccount"`
	Password       string       `form:"password"`
	PasswordRepeat string       `form:"passwordRepeat"`
}

func NewCustomerFormFromRequest(r *http.Request) (CustomerForm, error) {
	err := r.ParseForm()
	if err != nil {
		return CustomerForm{}, myerrors.NewInvalidInputError(err)
	}
	return NewCustomerFormFromValues(r.Form)
}

func NewCustomerFormFromValues(values url.Values) (CustomerForm, error) {
	customerForm := CustomerForm{}
	err := formcodec.NewDecoder().Decode(&customerForm, values)
	if err != nil {
		return customerForm, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}

	return customerForm, nil
}

func (f CustomerForm) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(f)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}
