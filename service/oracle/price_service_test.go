package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/feeds/eth-usd/latest":
			_, _ = w.Write([]byte(`{"feed":"eth-usd","answer":"240000000000","decimals":8}`))
		case "/feeds/zero/latest":
			_, _ = w.Write([]byte(`{"feed":"zero","answer":"0","decimals":8}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"msg":"feed not found"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := New(srv.URL+"/", time.Minute)

	answer, decimals, err := s.Price(ctx, "eth-usd")
	require.Nil(t, err)
	assert.Equal(t, "2400", answer.Shift(-decimals).String())

	_, _, err = s.Price(ctx, "eth-usd")
	require.Nil(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second read is cached")

	_, _, err = s.Price(ctx, "zero")
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, _, err = s.Price(ctx, "btc-usd")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "feed not found")
}

func TestStatic(t *testing.T) {
	s := NewStatic()
	_, _, err := s.Price(context.Background(), "eth-usd")
	assert.ErrorIs(t, err, ErrFeedNotFound)
}
