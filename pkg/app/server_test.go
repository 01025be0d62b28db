package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	a := newApp(WithMetrics(NewMetrics(reg)))
	srv := httptest.NewServer(NewServer(a, reg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postEvaluate(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/evaluate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerEvaluate(t *testing.T) {
	srv := newTestServer(t)
	body, err := json.Marshal(EvaluateRequest{Source: gridSource, Meshes: true})
	require.NoError(t, err)

	resp := postEvaluate(t, srv.URL, string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res EvalResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Empty(t, res.Errors)
	require.NotNil(t, res.Case)
	assert.Len(t, res.Case.KeyFrames, 4)
	assert.NotEmpty(t, res.Meshes)
}

func TestServerEvaluateReportsEvalErrors(t *testing.T) {
	srv := newTestServer(t)
	resp := postEvaluate(t, srv.URL, `{"source": "(key"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res EvalResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.NotEmpty(t, res.Errors)
	assert.Nil(t, res.Case)
}

func TestServerConcurrentRequests(t *testing.T) {
	srv := newTestServer(t)
	body, err := json.Marshal(EvaluateRequest{Source: gridSource})
	require.NoError(t, err)

	const n = 8
	results := make([]EvalResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/evaluate", "application/json", strings.NewReader(string(body)))
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			errs[i] = json.NewDecoder(resp.Body).Decode(&results[i])
		}()
	}
	wg.Wait()

	for i, res := range results {
		require.NoError(t, errs[i], "request %d", i)
		assert.Empty(t, res.Errors, "request %d", i)
		assert.NotNil(t, res.Case, "request %d", i)
	}
}

func TestServerEvaluateSession(t *testing.T) {
	srv := newTestServer(t)
	body, err := json.Marshal(EvaluateRequest{Source: gridSource, Session: "editor-1"})
	require.NoError(t, err)

	resp := postEvaluate(t, srv.URL, string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res EvalResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Case)
}

func TestServerBadRequest(t *testing.T) {
	srv := newTestServer(t)
	resp := postEvaluate(t, srv.URL, `{"source": 12`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRequestID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	_, err = uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "generated request id")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "trace-42")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-42", resp.Header.Get(RequestIDHeader))
}

func TestServerMetrics(t *testing.T) {
	srv := newTestServer(t)
	postEvaluate(t, srv.URL, `{"source": ""}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `cuttlecase_app_evaluations_total{outcome="ok"} 1`)
}

func TestServerRunShutsDown(t *testing.T) {
	s := NewServer(newApp(), prometheus.NewRegistry(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0", time.Second) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
