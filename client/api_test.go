package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterConsecutiveTransportFailures(t *testing.T) {
	// Grab a port that refuses connections by closing the server first.
	srv := httptest.NewServer(nil)
	deadAddr := srv.URL
	srv.Close()

	api := NewAPI(deadAddr)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := api.FetchCart(ctx)
		require.Error(t, err)
		assert.True(t, IsTransient(err), "transport failure %d must classify transient", i)
	}

	// Five consecutive failures trip the breaker; the next call is
	// rejected without touching the network and still reads as transient.
	_, err := api.FetchCart(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsTransient(err), "an open circuit is a retryable condition, not a bug")
}

func TestBreaker_HTTPErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	ctx := context.Background()

	// Any number of completed HTTP round trips leaves the circuit closed:
	// a 5xx is the server answering, not the transport dying.
	for i := 0; i < 8; i++ {
		_, err := api.FetchCart(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
		assert.True(t, IsTransient(err))
	}
}
