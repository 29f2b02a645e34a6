package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/pkg/reqctx"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID(), Identity())
	app.Get("/whoami", func(c fiber.Ctx) error {
		uid, _ := reqctx.UserIDFromContext(c.Context())
		local, _ := UserIDFromFiber(c)
		rid, _ := RequestIDFromFiber(c)
		return c.JSON(fiber.Map{
			"ctx":   uid,
			"local": local,
			"rid":   rid,
			"ctxID": reqctx.RequestIDFromContext(c.Context()),
		})
	})
	return app
}

func TestRequestIDKeepsValidIncomingID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderRequestID, "abc-123")

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"ctxID":"abc-123"`)
}

func TestRequestIDReplacesUnsafeID(t *testing.T) {
	for _, bad := range []string{"", "has space", strings.Repeat("x", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if bad != "" {
			req.Header.Set(HeaderRequestID, bad)
		}
		resp, err := newApp().Test(req)
		require.NoError(t, err)

		got := resp.Header.Get(HeaderRequestID)
		assert.NotEqual(t, bad, got)
		assert.Len(t, got, 36)
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, `"local":0`},
		{"valid", "17", http.StatusOK, `"ctx":17`},
		{"not a number", "abc", http.StatusBadRequest, "invalid X-User-Id"},
		{"zero", "0", http.StatusBadRequest, "invalid X-User-Id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			resp, err := newApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.body)
		})
	}
}
