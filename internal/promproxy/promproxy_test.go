package promproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryPassesBodyVerbatim(t *testing.T) {
	const body = `{"status":"success","data":{"resultType":"vector","result":[],"custom":1}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		assert.Equal(t, "up", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer server.Close()

	client, err := New(server.URL, 0)
	require.NoError(t, err)
	raw, err := client.Query(context.Background(), "up", "")
	require.NoError(t, err)
	assert.Equal(t, body, string(raw))
}

func TestQueryRangeParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query_range", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "rate(http_requests_total[5m])", q.Get("query"))
		assert.Equal(t, "100", q.Get("start"))
		assert.Equal(t, "200", q.Get("end"))
		assert.Equal(t, "15s", q.Get("step"))
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client, err := New(server.URL, 0)
	require.NoError(t, err)
	_, err = client.QueryRange(context.Background(), "rate(http_requests_total[5m])", "100", "200", "15s")
	require.NoError(t, err)
}

func TestLabelValuesPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/label/job/values", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":["prometheus"]}`))
	}))
	defer server.Close()

	client, err := New(server.URL, 0)
	require.NoError(t, err)
	_, err = client.LabelValues(context.Background(), "job")
	require.NoError(t, err)
}

func TestSeriesRepeatsMatchers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"up", "node_load1"}, r.URL.Query()["match[]"])
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer server.Close()

	client, err := New(server.URL, 0)
	require.NoError(t, err)
	_, err = client.Series(context.Background(), []string{"up", "node_load1"}, "", "")
	require.NoError(t, err)
}

func TestNon2xxBecomesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "query processing would load too many samples", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client, err := New(server.URL, 0)
	require.NoError(t, err)
	raw, err := client.Query(context.Background(), "up", "")
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "too many samples")
}

func TestUnreachableUpstreamWithinTimeout(t *testing.T) {
	// Port 1 refuses connections immediately on any sane machine.
	client, err := New("http://127.0.0.1:1", 2*time.Second)
	require.NoError(t, err)

	started := time.Now()
	raw, err := client.Query(context.Background(), "up", "")
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.Less(t, time.Since(started), 2*time.Second)

	envelope := Envelope(err)
	encoded, marshalErr := json.Marshal(envelope)
	require.NoError(t, marshalErr)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "error", decoded["status"])
	assert.NotEmpty(t, decoded["error"])
	assert.Contains(t, string(encoded), `"data":null`)
}

func TestNewRejectsGarbageURL(t *testing.T) {
	_, err := New("not a url", 0)
	assert.Error(t, err)
	_, err = New("/just/a/path", 0)
	assert.Error(t, err)
}
