package gtfsrt

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single feed fetch.
const DefaultTimeout = 10 * time.Second

// Client fetches the raw VehiclePositions feed. It performs one GET per
// call and holds no state between calls.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given feed endpoint. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET against the feed endpoint and returns the raw
// protobuf body. Failures are returned as *FeedError: NetworkTimeout when
// the request exceeds the client timeout, UnexpectedStatus for any non-2xx
// response (the body is not read in that case), NetworkUnavailable for
// everything else at the transport level.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	log.WithField("url", c.url).Debug("fetching vehicle positions")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FeedError{Cond: NetworkUnavailable, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FeedError{Cond: UnexpectedStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	log.WithField("bytes", len(body)).Debug("received data from feed")
	return body, nil
}

func classifyTransportError(err error) *FeedError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FeedError{Cond: NetworkTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FeedError{Cond: NetworkTimeout, Err: err}
	}
	return &FeedError{Cond: NetworkUnavailable, Err: err}
}
