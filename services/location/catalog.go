package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
	"github.com/MarcGrol/shopcheckout/services/checkoutapi"
)

//go:generate mockgen -source=catalog.go -package location -destination catalog_mock.go Catalog
type Catalog interface {
	Countries(c context.Context) (checkoutapi.CountryCatalog, error)
	States(c context.Context, countryCode string) ([]checkoutapi.State, error)
}

type httpCatalog struct {
	sender  myhttpclient.HTTPSender
	baseURL string
}

func NewCatalog(sender myhttpclient.HTTPSender, baseURL string) Catalog {
	return &httpCatalog{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (cat *httpCatalog) Countries(c context.Context) (checkoutapi.CountryCatalog, error) {
	resp := checkoutapi.CountryCatalog{}
	err := myhttpclient.SendJSON(c, cat.sender, http.MethodGet, cat.baseURL+"/countries", "", nil, &resp)
	if err != nil {
		return checkoutapi.CountryCatalog{}, fmt.Errorf("error fetching countries: %s", err)
	}
	return resp, nil
}

type statesResponse struct {
	States []checkoutapi.State `json:"states"`
}

func (cat *httpCatalog) States(c context.Context, countryCode string) ([]checkoutapi.State, error) {
	resp := statesResponse{}
	err := myhttpclient.SendJSON(c, cat.sender, http.MethodGet,
		fmt.Sprintf("%s/countries/%s/states", cat.baseURL, url.PathEscape(strings.ToUpper(countryCode))), "", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("error fetching states of %s: %s", countryCode, err)
	}
	return resp.States, nil
}
