package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporthub/internal/adapter/api/middleware"
	"supporthub/internal/infrastructure/realtime"
)

// A rejected connection must come back as a 401 envelope, not a generic
// 500 from the framework's default error handler.
func TestWebSocketRejectsMissingToken(t *testing.T) {
	h := NewWebSocketHandler(realtime.NewManager(), middleware.NewAuthMiddleware(nil))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.HandleWebSocket(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "UNAUTHORIZED"))
}
