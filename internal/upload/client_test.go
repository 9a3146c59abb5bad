package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftmap/internal/ingest"
)

func testClient(url string) *Client {
	c := NewClient(url+"/", "secret")
	c.backoff = time.Millisecond
	return c
}

// TestIngestPostsExport verifies the export body, path and API key reach the server.
func TestIngestPostsExport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/ingest/alpha", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "csv body", string(body))
		_ = json.NewEncoder(w).Encode(ingest.Result{SessionsReceived: 1, SetsReceived: 3, SetsInserted: 3})
	}))
	defer ts.Close()

	res, err := testClient(ts.URL).Ingest(context.Background(), strings.NewReader("csv body"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.SetsInserted)
}

// TestIngestRetriesServerErrors verifies 5xx responses are retried with the same body.
func TestIngestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "csv body", string(body))
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":"busy"}`, http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(ingest.Result{SetsInserted: 2})
	}))
	defer ts.Close()

	res, err := testClient(ts.URL).Ingest(context.Background(), strings.NewReader("csv body"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.SetsInserted)
	assert.Equal(t, int32(3), calls.Load())
}

// TestIngestClientErrorNotRetried verifies a rejected export fails on the first attempt.
func TestIngestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"parsing export: no sessions"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Ingest(context.Background(), strings.NewReader("junk"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "no sessions")
	assert.Equal(t, int32(1), calls.Load())
}

// TestIngestGivesUpAfterRetries verifies persistent server errors surface after the last attempt.
func TestIngestGivesUpAfterRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Ingest(context.Background(), strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}
