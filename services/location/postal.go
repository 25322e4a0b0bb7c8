package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/MarcGrol/shopcheckout/lib/myhttpclient"
)

const (
	// the public zippopotam.us api asks for moderate use
	postalLookupRate  = rate.Limit(2)
	postalLookupBurst = 5
)

type Place struct {
	City   string
	Region string
}

//go:generate mockgen -source=postal.go -package location -destination postal_lookup_mock.go PostalLookup
type PostalLookup interface {
	Lookup(c context.Context, postalCode string, countryCode string) (Place, bool, error)
}

type zippopotamLookup struct {
	sender  myhttpclient.HTTPSender
	baseURL string
	limiter *rate.Limiter
}

// NewPostalLookup speaks the response format of api.zippopotam.us.
func NewPostalLookup(sender myhttpclient.HTTPSender, baseURL string) PostalLookup {
	return &zippopotamLookup{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: rate.NewLimiter(postalLookupRate, postalLookupBurst),
	}
}

type zippopotamPlace struct {
	PlaceName         string `json:"place name"`
	State             string `json:"state"`
	StateAbbreviation string `json:"state abbreviation"`
}

type zippopotamResponse struct {
	PostCode string            `json:"post code"`
	Country  string            `json:"country"`
	Places   []zippopotamPlace `json:"places"`
}

func (l *zippopotamLookup) Lookup(c context.Context, postalCode string, countryCode string) (Place, bool, error) {
	err := l.limiter.Wait(c)
	if err != nil {
		return Place{}, false, fmt.Errorf("error waiting for postal lookup of %s: %s", postalCode, err)
	}

	resp := zippopotamResponse{}
	err = myhttpclient.SendJSON(c, l.sender, http.MethodGet,
		fmt.Sprintf("%s/%s/%s", l.baseURL, url.PathEscape(strings.ToLower(countryCode)), url.PathEscape(strings.TrimSpace(postalCode))),
		"", nil, &resp)
	if err != nil {
		statusErr := myhttpclient.StatusError{}
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return Place{}, false, nil
		}
		return Place{}, false, fmt.Errorf("error looking up postal code %s: %s", postalCode, err)
	}

	if len(resp.Places) == 0 {
		return Place{}, false, nil
	}

	region := resp.Places[0].StateAbbreviation
	if region == "" {
		region = resp.Places[0].State
	}

	return Place{
		City:   resp.Places[0].PlaceName,
		Region: region,
	}, true, nil
}
