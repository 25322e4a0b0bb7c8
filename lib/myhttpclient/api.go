package myhttpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

//go:generate mockgen -source=api.go -package myhttpclient -destination http_sender_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, method string, url string, bearerToken string, body []byte) (int, []byte, error)
}

// StatusError is returned when the remote party answered with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// IsServerSide tells whether retrying the same request could succeed.
func (e StatusError) IsServerSide() bool {
	return e.StatusCode >= 500
}

// SendJSON marshals req (when not nil), sends it and unmarshals a 2xx response into resp (when not nil).
func SendJSON(c context.Context, sender HTTPSender, method string, url string, bearerToken string, req any, resp any) error {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return fmt.Errorf("error marshalling request for %s %s: %s", method, url, err)
		}
	}

	status, respBody, err := sender.Send(c, method, url, bearerToken, body)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return StatusError{
			Method:     method,
			URL:        url,
			StatusCode: status,
			Message:    extractMessage(respBody),
		}
	}

	if resp != nil && len(respBody) > 0 {
		err = json.Unmarshal(respBody, resp)
		if err != nil {
			return fmt.Errorf("error parsing response of %s %s: %s", method, url, err)
		}
	}

	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func extractMessage(body []byte) string {
	eb := errorBody{}
	err := json.Unmarshal(body, &eb)
	if err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return strings.TrimSpace(string(body))
}
