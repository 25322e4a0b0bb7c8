package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

// Session is the outcome of a successful login or registration.
type Session struct {
	BearerToken string              `json:"token"`
	Profile     checkoutapi.Profile `json:"user"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

//go:generate mockgen -source=client.go -package identity -destination client_mock.go Client
type Client interface {
	Login(c context.Context, email string, password string) (Session, error)
	Register(c context.Context, registration Registration) (Session, error)
	Profile(c context.Context, bearerToken string) (checkoutapi.Profile, error)
}

type httpClient struct {
	sender  myhttpclient.HTTPSender
	baseURL string
}

func NewClient(sender myhttpclient.HTTPSender, baseURL string) Client {
	return &httpClient{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (cl *httpClient) Login(c context.Context, email string, password string) (Session, error) {
	session := Session{}
	err := myhttpclient.SendJSON(c, cl.sender, http.MethodPost, cl.baseURL+"/auth/login", "", loginRequest{Email: email, Password: password}, &session)
	if err != nil {
		return Session{}, classify("login", err)
	}
	if session.BearerToken == "" {
		return Session{}, myerrors.NewBadGatewayError(fmt.Errorf("login of %s returned no token", email))
	}
	return session, nil
}

func (cl *httpClient) Register(c context.Context, registration Registration) (Session, error) {
	session := Session{}
	err := myhttpclient.SendJSON(c, cl.sender, http.MethodPost, cl.baseURL+"/auth/register", "", registration, &session)
	if err != nil {
		return Session{}, classify("registration", err)
	}
	return session, nil
}

func (cl *httpClient) Profile(c context.Context, bearerToken string) (checkoutapi.Profile, error) {
	profile := checkoutapi.Profile{}
	err := myhttpclient.SendJSON(c, cl.sender, http.MethodGet, cl.baseURL+"/auth/me", bearerToken, nil, &profile)
	if err != nil {
		return checkoutapi.Profile{}, classify("profile", err)
	}
	return profile, nil
}

func classify(what string, err error) error {
	statusErr := myhttpclient.StatusError{}
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return myerrors.NewAuthenticationError(fmt.Errorf("%s refused: %s", what, statusErr.Message))
		case statusErr.StatusCode == http.StatusConflict:
			return myerrors.NewConflictError(fmt.Errorf("%s refused: %s", what, statusErr.Message))
		case !statusErr.IsServerSide():
			return myerrors.NewInvalidInputError(fmt.Errorf("%s refused: %s", what, statusErr.Message))
		}
	}
	return myerrors.NewUnavailableError(fmt.Errorf("error during %s: %s", what, err))
}
