package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/weft"
	wefthttp "github.com/weftworks/weft/pkg/adapters/http"
	"github.com/weftworks/weft/pkg/adapters/memory"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
	"github.com/weftworks/weft/pkg/registry"
)

const counterGraph = `{
	"name": "counter",
	"start_node": "tick",
	"nodes": [
		{"name": "tick", "function": "increment"},
		{"name": "report", "function": "echo"}
	],
	"edges": [
		{"from": "tick", "to": "tick", "condition": "count < 3"},
		{"from": "tick", "to": "report"}
	]
}`

func newTestServer(t *testing.T) (*wefthttp.Server, ports.RunStore) {
	t.Helper()

	reg := registry.New()
	reg.MustRegister("increment", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		count, _ := state["count"].(float64)
		state["count"] = count + 1
		return state, nil
	}, "adds one to count")
	reg.MustRegister("echo", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return state, nil
	}, "")

	streams := wefthttp.NewStreamManager()
	engine := weft.New(
		weft.WithRegistry(reg),
		weft.WithObserver(streams),
	)
	store := memory.NewStore()
	return wefthttp.NewServer(engine, store, streams, nil), store
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, handler http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := getJSON(t, handler, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var info map[string]string
	rec = getJSON(t, handler, "/info", &info)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "weft-http", info["app"])
	assert.NotEmpty(t, info["version"])
}

func TestCreateGraph(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/graphs", counterGraph)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "counter", resp["name"])
	assert.Equal(t, 2.0, resp["nodes"])

	var list map[string][]string
	getJSON(t, handler, "/graphs", &list)
	assert.Equal(t, []string{"counter"}, list["graphs"])
}

func TestCreateGraph_UnknownFunction(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/graphs", `{
		"name": "bad",
		"nodes": [{"name": "a", "function": "ghost"}]
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghost")
}

func TestCreateGraph_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := postJSON(t, srv.Handler(), "/graphs", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGraph_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := getJSON(t, srv.Handler(), "/graphs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateGraph(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	require.Equal(t, http.StatusCreated, postJSON(t, handler, "/graphs", counterGraph).Code)

	var resp map[string]any
	rec := postJSON(t, handler, "/graphs/counter/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["valid"])
}

func TestStartRun_CompletesInBackground(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.Handler()

	require.Equal(t, http.StatusCreated, postJSON(t, handler, "/graphs", counterGraph).Code)

	rec := postJSON(t, handler, "/graphs/counter/runs", `{"initial_state": {"count": 0}}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	runID, _ := accepted["run_id"].(string)
	require.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		record, err := store.Load(context.Background(), runID)
		return err == nil && record.Status == ports.RunCompleted
	}, 2*time.Second, 10*time.Millisecond)

	record, err := store.Load(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, "counter", record.GraphName)
	assert.Equal(t, 4, record.StepsExecuted, "three tick passes plus report")
	assert.Equal(t, 3.0, record.FinalState["count"])
	assert.Len(t, record.Trace, 4)
	assert.NotNil(t, record.CompletedAt)
}

func TestStartRun_GraphNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := postJSON(t, srv.Handler(), "/graphs/ghost/runs", "{}")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := getJSON(t, srv.Handler(), "/runs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRun_FailedRunKeepsPartialTrace(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.Handler()

	// A guard over a missing variable faults on the first transition.
	require.Equal(t, http.StatusCreated, postJSON(t, handler, "/graphs", `{
		"name": "faulty",
		"nodes": [
			{"name": "a", "function": "echo"},
			{"name": "b", "function": "echo"}
		],
		"edges": [{"from": "a", "to": "b", "condition": "missing_var > 1"}]
	}`).Code)

	rec := postJSON(t, handler, "/graphs/faulty/runs", "{}")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	runID := accepted["run_id"].(string)

	require.Eventually(t, func() bool {
		record, err := store.Load(context.Background(), runID)
		return err == nil && record.Status == ports.RunFailed
	}, 2*time.Second, 10*time.Millisecond)

	record, err := store.Load(context.Background(), runID)
	require.NoError(t, err)
	assert.Contains(t, record.Error, "missing_var")
	assert.Len(t, record.Trace, 1, "the successful step before the fault stays in the trace")
}

func TestListFunctions(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp map[string]map[string]string
	rec := getJSON(t, srv.Handler(), "/functions", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, resp["functions"], "increment")
	assert.Equal(t, "adds one to count", resp["functions"]["increment"])
}

func TestSubscribeEvents_RequiresRunID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := getJSON(t, srv.Handler(), "/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribeEvents_StreamsRunProgress(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.Equal(t, http.StatusCreated, postJSON(t, srv.Handler(), "/graphs", counterGraph).Code)

	runID := "run-sse"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?run_id="+runID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() domain.Event {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev domain.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
			return ev
		}
	}

	greeting := readEvent()
	assert.Equal(t, domain.EventConnected, greeting.Type)
	assert.Equal(t, runID, greeting.RunID)

	// Drive the run with the subscriber's chosen ID through the store-backed
	// path: execute directly against the registered graph.
	record := &ports.RunRecord{
		ID:           runID,
		GraphName:    "counter",
		Status:       ports.RunPending,
		InitialState: map[string]any{"count": 2.0},
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), record))
	require.NoError(t, srv.ExecuteStoredRun(record))

	first := readEvent()
	assert.Equal(t, domain.EventStepComplete, first.Type)
	assert.Equal(t, "tick", first.Node)

	second := readEvent()
	assert.Equal(t, domain.EventStepComplete, second.Type)
	assert.Equal(t, "report", second.Node)

	done := readEvent()
	assert.Equal(t, domain.EventWorkflowComplete, done.Type)
	assert.Equal(t, 3.0, done.State["count"])
}
