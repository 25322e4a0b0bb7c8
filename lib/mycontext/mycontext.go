package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// CtxTraceContext is a context key for the trace context (used by mylog)
type CtxTraceContext struct{}

// CtxBearerToken is a context key for the credential of the authenticated shopper
type CtxBearerToken struct{}

func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")

	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	}

	ctx := context.WithValue(r.Context(), CtxTraceContext{}, trace)

	token := bearerFromHeader(r.Header.Get("Authorization"))
	if token != "" {
		ctx = context.WithValue(ctx, CtxBearerToken{}, token)
	}

	return ctx
}

func BearerToken(c context.Context) (string, bool) {
	token, ok := c.Value(CtxBearerToken{}).(string)
	return token, ok && token != ""
}

func bearerFromHeader(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
