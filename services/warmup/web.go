package warmup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopcheckout/lib/mycontext"
	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/myhttp"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
	"github.com/MarcGrol/shopcheckout/lib/myvault"
	"github.com/MarcGrol/shopcheckout/services/location"
)

type webService struct {
	logger  mylog.Logger
	vault   myvault.VaultReader[myvault.Token]
	catalog location.Catalog
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(vault myvault.VaultReader[myvault.Token], catalog location.Catalog) *webService {
	return &webService{
		logger:  mylog.New("warmup"),
		vault:   vault,
		catalog: catalog,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

// warmupPage touches the datastore and the country catalog so the first shopper does not pay for cold connections.
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, _, err := s.vault.Get(c, myvault.CurrentToken)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		catalog, err := s.catalog.Countries(c)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewUnavailableError(fmt.Errorf("error loading country catalog: %s", err)))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Successfully processed warmup request (%d countries)", len(catalog.Countries)),
		})
	}
}
