package mycontext

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextFromHTTPRequest(t *testing.T) {
	t.Run("Trace and bearer", func(t *testing.T) {
		request, err := http.NewRequest(http.MethodGet, "/api/checkout/123", nil)
		assert.NoError(t, err)
		request.Header.Set("X-Cloud-Trace-Context", "abc123/456;o=1")
		request.Header.Set("Authorization", "Bearer my_token")

		c := ContextFromHTTPRequest(request)

		assert.Contains(t, c.Value(CtxTraceContext{}).(string), "/traces/abc123")
		token, found := BearerToken(c)
		assert.True(t, found)
		assert.Equal(t, "my_token", token)
	})

	t.Run("Anonymous", func(t *testing.T) {
		request, err := http.NewRequest(http.MethodGet, "/api/checkout/123", nil)
		assert.NoError(t, err)
		request.Header.Set("Authorization", "Basic abc")

		c := ContextFromHTTPRequest(request)

		assert.Equal(t, "", c.Value(CtxTraceContext{}).(string))
		_, found := BearerToken(c)
		assert.False(t, found)
	})
}
