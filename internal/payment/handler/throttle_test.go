package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsouq/marketplace/internal/security"
)

func throttledRequest(userID uint) *http.Request {
	ctx := context.WithValue(context.Background(), UserIDKey, userID)
	return httptest.NewRequest(http.MethodPost, "/api/orders/1/pay", nil).WithContext(ctx)
}

func TestAllowAttemptThrottlesPerUser(t *testing.T) {
	h := &PaymentHandler{
		limiter: security.NewRateLimiter(security.NewMemoryLimiterStore(), 1, time.Minute),
	}

	w := httptest.NewRecorder()
	assert.True(t, h.allowAttempt(w, throttledRequest(7)))

	w = httptest.NewRecorder()
	assert.False(t, h.allowAttempt(w, throttledRequest(7)))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Another user has their own window.
	w = httptest.NewRecorder()
	assert.True(t, h.allowAttempt(w, throttledRequest(8)))
}

func TestAllowAttemptDisabledWithoutLimiter(t *testing.T) {
	h := &PaymentHandler{}
	assert.True(t, h.allowAttempt(httptest.NewRecorder(), throttledRequest(7)))
}

func TestRetryPaymentRespondsTooManyRequests(t *testing.T) {
	h := &PaymentHandler{
		limiter: security.NewRateLimiter(security.NewMemoryLimiterStore(), 0, time.Minute),
	}

	req := mux.SetURLVars(throttledRequest(7), map[string]string{"id": "5"})
	w := httptest.NewRecorder()
	h.RetryPayment(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many payment attempts")
}
