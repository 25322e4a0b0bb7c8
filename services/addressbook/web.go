package addressbook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopcheckout/lib/mycontext"
	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttp"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
	"github.com/MarcGrol/shopcheckout/services/identity"
)

type webService struct {
	logger   mylog.Logger
	identity identity.Client
	service  Book
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(book Book, identityClient identity.Client) *webService {
	return &webService{
		logger:   mylog.New("addressbook"),
		identity: identityClient,
		service:  book,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/addresses", s.listPage()).Methods("GET")
	router.HandleFunc("/api/addresses", s.createPage()).Methods("POST")
	router.HandleFunc("/api/addresses/{addressUID}", s.updatePage()).Methods("PUT")
	router.HandleFunc("/api/addresses/{addressUID}", s.deletePage()).Methods("DELETE")
	router.HandleFunc("/api/addresses/{addressUID}/default/{addressType}", s.setDefaultPage()).Methods("PUT")
}

type addressRequest struct {
	Name          string                    `json:"name"`
	Phone         string                    `json:"phone"`
	PostalAddress checkoutapi.PostalAddress `json:"address"`
}

func (s *webService) listPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		ownerUID, err := s.owner(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		addresses, err := s.service.List(c, ownerUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, addresses)
	}
}

func (s *webService) createPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		ownerUID, err := s.owner(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		req, err := parseAddressRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		created, err := s.service.Create(c, ownerUID, req)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, created)
	}
}

func (s *webService) updatePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		ownerUID, err := s.owner(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		req, err := parseAddressRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		updated, err := s.service.Update(c, ownerUID, mux.Vars(r)["addressUID"], req)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, updated)
	}
}

func (s *webService) deletePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		ownerUID, err := s.owner(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.service.Delete(c, ownerUID, mux.Vars(r)["addressUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Address deleted",
		})
	}
}

func (s *webService) setDefaultPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		ownerUID, err := s.owner(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.service.SetDefault(c, ownerUID, mux.Vars(r)["addressUID"], checkoutapi.AddressType(mux.Vars(r)["addressType"]))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Default address changed",
		})
	}
}

func (s *webService) owner(c context.Context) (string, error) {
	token, found := mycontext.BearerToken(c)
	if !found {
		return "", myerrors.NewAuthenticationError(fmt.Errorf("missing bearer token"))
	}

	profile, err := s.identity.Profile(c, token)
	if err != nil {
		return "", err
	}
	return profile.UID, nil
}

func parseAddressRequest(r *http.Request) (checkoutapi.Address, error) {
	req := addressRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return checkoutapi.Address{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing address: %s", err))
	}

	return checkoutapi.Address{
		Name:          req.Name,
		Phone:         req.Phone,
		PostalAddress: req.PostalAddress,
	}, nil
}
