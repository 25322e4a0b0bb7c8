package myhttp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/lib/mylog"
)

type ResponseWriter interface {
	WriteError(c context.Context, w http.ResponseWriter, errorCode int, err error)
	Write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{})
}

// KindedError is implemented by domain errors that want their classification and payload exposed to the client.
type KindedError interface {
	error
	ErrorKind() string
	ErrorDetails() any
}

type errorResponse struct {
	ErrorCode int
	Kind      string `json:",omitempty"`
	Message   string
	Details   any `json:",omitempty"`
}

type SuccessResponse struct {
	Message string
}

func NewWriter(logger mylog.Logger) ResponseWriter {
	return &responseWriter{
		logger: logger,
	}
}

type responseWriter struct {
	logger mylog.Logger
}

func (rw responseWriter) WriteError(c context.Context, w http.ResponseWriter, errorCode int, err error) {
	httpStatus := myerrors.GetHTTPStatus(err)
	rw.logger.Log(c, "", mylog.SeverityWarn, "Error response: http-status:%d, error-code:%d, error-msg:%s", httpStatus, errorCode, err)

	resp := errorResponse{
		ErrorCode: errorCode,
		Message:   err.Error(),
	}
	var kinded KindedError
	if errors.As(err, &kinded) {
		resp.Kind = kinded.ErrorKind()
		resp.Message = kinded.Error()
		resp.Details = kinded.ErrorDetails()
	}
	rw.write(w, httpStatus, resp)
}

func (rw responseWriter) Write(c context.Context, w http.ResponseWriter, httpStatus int, resp interface{}) {
	rw.logger.Log(c, "", mylog.SeverityInfo, "Success response: http-status:%d", httpStatus)
	rw.write(w, httpStatus, resp)
}

func (rw responseWriter) write(w http.ResponseWriter, httpStatus int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "\t")
	err := encoder.Encode(resp)
	if err != nil {
		log.Printf("Error writing response: %s", err)
		return
	}
}
