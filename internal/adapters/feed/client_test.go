package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sea-sol/prediction-markets/internal/adapters/feed"
	"github.com/sea-sol/prediction-markets/internal/domain"
)

var feedKey = solana.MustPublicKeyFromBase58("FW9KvGkRcnibqm5LSE4J8sq3homgVizKGBoNA511gR2s")

func TestClientRead_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feeds/"+feedKey.String(), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": "150.25", "last_update": 1767225600}`))
	}))
	defer srv.Close()

	c := feed.NewClient(srv.URL+"/", 100)
	r, err := c.Read(context.Background(), feedKey)
	require.NoError(t, err)
	assert.True(t, r.Value.Equal(decimal.RequireFromString("150.25")))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), r.LastUpdate)
}

func TestClientRead_NumericValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value": 99, "last_update": 0}`))
	}))
	defer srv.Close()

	r, err := feed.NewClient(srv.URL, 100).Read(context.Background(), feedKey)
	require.NoError(t, err)
	assert.True(t, r.Value.Equal(decimal.NewFromInt(99)))
	assert.True(t, r.LastUpdate.IsZero(), "missing timestamp must be treated as stale downstream")
}

func TestClientRead_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"value": "1", "last_update": 1767225600}`))
	}))
	defer srv.Close()

	_, err := feed.NewClient(srv.URL, 100).Read(context.Background(), feedKey)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientRead_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := feed.NewClient(srv.URL, 100).Read(context.Background(), feedKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientRead_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad feed"))
	}))
	defer srv.Close()

	_, err := feed.NewClient(srv.URL, 100).Read(context.Background(), feedKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad feed")
}

func TestStatic(t *testing.T) {
	s := feed.NewStatic()
	_, err := s.Read(context.Background(), feedKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	want := domain.FeedReading{Value: decimal.NewFromInt(150), LastUpdate: time.Unix(10, 0)}
	s.Set(feedKey, want)
	got, err := s.Read(context.Background(), feedKey)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
