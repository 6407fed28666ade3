package gtfsrt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	payload := []byte{0x0a, 0x05, 0x68, 0x65, 0x6c, 0x6c, 0x6f}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestFetchUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	require.Error(t, err)

	var fe *FeedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, UnexpectedStatus, fe.Cond)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
}

func TestFetchNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Fetch(context.Background())
	require.Error(t, err)

	var fe *FeedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, NetworkUnavailable, fe.Cond)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Fetch(context.Background())
	require.Error(t, err)

	var fe *FeedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, NetworkTimeout, fe.Cond)
}

func TestFetchDefaultTimeout(t *testing.T) {
	c := NewClient("http://example.invalid/feed.bin", 0)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}
