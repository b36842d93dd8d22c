package client

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}

func TestClientOptions(t *testing.T) {
	hc := &http.Client{}
	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(hc),
		WithTimeout(5*time.Second),
		WithRetryMax(1),
		WithRetryWait(10*time.Millisecond, 20*time.Millisecond),
		WithUserAgent("scentinel-test/1.0"),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Equal(t, 1, c.retryMax)
	assert.Equal(t, "scentinel-test/1.0", c.userAgent)
}

func TestClientHeaders(t *testing.T) {
	var gotUA, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, c.get(context.Background(), "/health/ready", &out))
	assert.Equal(t, "scentinel-go-sdk/"+Version, gotUA)
	assert.NotEmpty(t, gotReqID)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, c.get(context.Background(), "/health/ready", &out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "ENG_002",
			"message": "finished dosage must be in (0, 100]",
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	err = c.get(context.Background(), "/api/v1/standards", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "ENG_002", apiErr.Code)
	assert.True(t, apiErr.IsValidation())
	assert.Contains(t, apiErr.Error(), "finished dosage")
}

func TestLimitUnmarshal(t *testing.T) {
	var l Limit
	require.NoError(t, json.Unmarshal([]byte(`0.6`), &l))
	assert.Equal(t, 0.6, l.Value)
	assert.False(t, l.Specification)

	require.NoError(t, json.Unmarshal([]byte(`"specification"`), &l))
	assert.True(t, l.Specification)

	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &l))
}

func TestFloatUnmarshal(t *testing.T) {
	var f Float
	require.NoError(t, json.Unmarshal([]byte(`0.5`), &f))
	assert.Equal(t, Float(0.5), f)

	require.NoError(t, json.Unmarshal([]byte(`"Infinity"`), &f))
	assert.True(t, math.IsInf(float64(f), 1))

	assert.Error(t, json.Unmarshal([]byte(`"NaN"`), &f))
}
