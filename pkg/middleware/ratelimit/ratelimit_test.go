package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadFormat(t *testing.T) {
	_, err := New("ten per minute")
	require.Error(t, err)
}

func TestNew_LimitsRequests(t *testing.T) {
	mw, err := New("2-M")
	require.NoError(t, err)

	e := echo.New()
	e.POST("/customer/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/customer/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
