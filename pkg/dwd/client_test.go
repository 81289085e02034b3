package dwd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopSleep(context.Context, time.Duration) error { return nil }

func newTestClient(t *testing.T, retries int) *Client {
	t.Helper()
	return NewClient(
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		WithRetryPolicy(RetryPolicy{MaxRetries: retries, MinWait: time.Millisecond, MaxWait: 10 * time.Millisecond}),
		WithUserAgent("mosmix-test/1.0"),
		WithSleepFunc(noopSleep),
	)
}

func TestGetSuccess(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	body, err := newTestClient(t, 0).Get(context.Background(), server.URL+"/file.kmz")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "mosmix-test/1.0", userAgent)
}

func TestGetNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(t, 3).Get(context.Background(), server.URL+"/missing.kmz")
	require.Error(t, err)

	var dwdErr *Error
	require.True(t, errors.As(err, &dwdErr))
	assert.Equal(t, ErrCodeNotFound, dwdErr.Code)
	assert.Equal(t, http.StatusNotFound, dwdErr.StatusCode)
	assert.Contains(t, err.Error(), "/missing.kmz")
	assert.Equal(t, int32(1), calls.Load(), "404 is not retried")
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := newTestClient(t, 2).Get(context.Background(), server.URL)
	require.NoError(t, err)
	body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetExhaustedRetries(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   ErrorCode
	}{
		{"Server_Error", http.StatusBadGateway, ErrCodeUpstreamUnavailable},
		{"Rate_Limited", http.StatusTooManyRequests, ErrCodeUpstreamRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(t, 1).Get(context.Background(), server.URL)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestGetNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, 0).Get(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUpstreamFailure, CodeOf(err))
}

func TestComputeBackoff(t *testing.T) {
	c := newTestClient(t, 3)
	c.retryPolicy = RetryPolicy{MaxRetries: 3, MinWait: 100 * time.Millisecond, MaxWait: time.Second}

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	assert.Equal(t, time.Second, c.computeBackoff(0, resp), "Retry-After is clamped to MaxWait")

	for attempt := 0; attempt < 5; attempt++ {
		wait := c.computeBackoff(attempt, nil)
		assert.GreaterOrEqual(t, wait, 100*time.Millisecond)
		assert.LessOrEqual(t, wait, time.Second)
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NewError(ErrCodeInvalidResponse, "bad", nil))
	assert.Equal(t, ErrCodeInvalidResponse, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

// trackedBody records whether it was closed
type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

// MockHTTPClient replays fixed statuses and keeps every body it handed out
type MockHTTPClient struct {
	Statuses []int
	Bodies   []*trackedBody
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	status := m.Statuses[len(m.Bodies)]
	body := &trackedBody{Reader: strings.NewReader(http.StatusText(status))}
	m.Bodies = append(m.Bodies, body)
	return &http.Response{StatusCode: status, Status: http.StatusText(status), Header: http.Header{}, Body: body}, nil
}

func TestGetClosesFailedAttemptBodies(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		wantErr    bool
		openBodies int
	}{
		{"Retry_Then_Success", []int{http.StatusServiceUnavailable, http.StatusOK}, false, 1},
		{"Retry_Then_Not_Found", []int{http.StatusTooManyRequests, http.StatusNotFound}, true, 0},
		{"Retries_Exhausted", []int{http.StatusBadGateway, http.StatusBadGateway}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockHTTPClient{Statuses: tt.statuses}
			client := NewClient(
				WithHTTPClient(mock),
				WithRetryPolicy(RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond}),
				WithSleepFunc(noopSleep),
			)

			body, err := client.Get(context.Background(), "https://example.invalid/file.kmz")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, mock.Bodies, len(tt.statuses))
			assert.True(t, mock.Bodies[0].closed, "failed attempt body is closed before retrying")

			open := 0
			for _, b := range mock.Bodies {
				if !b.closed {
					open++
				}
			}
			assert.Equal(t, tt.openBodies, open, "only the returned body stays open")

			if body != nil {
				require.NoError(t, body.Close())
				assert.True(t, mock.Bodies[len(mock.Bodies)-1].closed)
			}
		})
	}
}
