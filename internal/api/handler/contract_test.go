package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/fraudbatch/internal/api"
	"github.com/kiranshivaraju/fraudbatch/internal/api/handler"
	mw "github.com/kiranshivaraju/fraudbatch/internal/api/middleware"
	"github.com/kiranshivaraju/fraudbatch/internal/batch"
	"github.com/kiranshivaraju/fraudbatch/internal/cache"
	"github.com/kiranshivaraju/fraudbatch/internal/scoring"
	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// ─── test fixtures ───────────────────────────────────────────────────────────

const testRawKey = "fbk_test_contract_key_1234567890"

func testKeyHash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(testRawKey), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// ─── fake scoring service ────────────────────────────────────────────────────

// fakeScorer answers /score with risk 0.9 for transactions whose amount is
// above 1000 and 0.1 otherwise. failChunks lists 1-based call numbers that
// answer 500.
type fakeScorer struct {
	calls      atomic.Int32
	failChunks map[int32]bool
}

func (f *fakeScorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.calls.Add(1)
	if f.failChunks[n] {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(req.Transactions))
	for _, tx := range req.Transactions {
		risk, label := 0.1, 0
		if tx.Amount > 1000 {
			risk, label = 0.9, 1
		}
		results = append(results, map[string]any{
			"transaction_id": tx.ID,
			"risk":           risk,
			"prediction":     label,
		})
	}
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

// ─── test harness ────────────────────────────────────────────────────────────

type testServer struct {
	server *httptest.Server
	engine *batch.Engine
	redis  *miniredis.Miniredis
	scorer *fakeScorer
}

func newTestServer(t *testing.T, failChunks ...int32) *testServer {
	t.Helper()

	fs := &fakeScorer{failChunks: map[int32]bool{}}
	for _, c := range failChunks {
		fs.failChunks[c] = true
	}
	scoringSrv := httptest.NewServer(fs)
	t.Cleanup(scoringSrv.Close)

	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	engine := batch.NewEngine(scoring.NewHTTPClient(scoringSrv.URL, 5*time.Second), nil, nil, batch.Options{
		MaxBatchSize: 10,
		ChunkSize:    2,
		ChunkPause:   time.Millisecond,
		HistoryLimit: 5,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Status:       rc,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
	})

	deps := api.Dependencies{
		Auth:      mw.NewAuth([]string{testKeyHash(t)}),
		RateLimit: mw.NewRateLimit(rc, 1000),

		HealthHandler: handler.NewHealthHandler("test", engine, engine.Config(),
			handler.DependencyCheck{Name: "cache", Check: rc.Ping}),
		CreateJobHandler: handler.NewCreateJobHandler(engine),
		ListJobsHandler:  handler.NewListJobsHandler(engine),
		GetJobHandler:    handler.NewGetJobHandler(engine),
		CancelJobHandler: handler.NewCancelJobHandler(engine),
		StatsHandler:     handler.NewStatsHandler(engine),
		JobStatusHandler: handler.NewJobStatusHandler(engine, rc),
	}

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testServer{server: srv, engine: engine, redis: mr, scorer: fs}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testRawKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func parseBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func txnPayload(amounts ...float64) map[string]any {
	txns := make([]map[string]any, len(amounts))
	for i, a := range amounts {
		txns[i] = map[string]any{"transaction_id": fmt.Sprintf("t%d", i), "type": "TRANSFER", "amount": a}
	}
	return map[string]any{
		"job_type": "process_transactions",
		"data":     map[string]any{"transactions": txns},
	}
}

func (ts *testServer) submit(t *testing.T, body any) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/jobs", body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	out := parseBody(t, resp)
	assert.Equal(t, "created", out["status"])
	assert.Equal(t, "Batch job created and started", out["message"])
	id, _ := out["job_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func (ts *testServer) waitDone(t *testing.T, id string) map[string]any {
	t.Helper()
	var job map[string]any
	require.Eventually(t, func() bool {
		resp := ts.do(t, http.MethodGet, "/jobs/"+id, nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		job = parseBody(t, resp)
		return job["status"] == "completed" || job["status"] == "failed"
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

// ─── contract tests ──────────────────────────────────────────────────────────

func TestContract_CreateAndPollJob(t *testing.T) {
	ts := newTestServer(t)
	id := ts.submit(t, txnPayload(5000, 10, 20))

	job := ts.waitDone(t, id)
	assert.Equal(t, "completed", job["status"])
	assert.Equal(t, id, job["job_id"])
	assert.Equal(t, "process_transactions", job["job_type"])
	assert.EqualValues(t, 3, job["total_items"])
	assert.EqualValues(t, 3, job["processed_items"])
	assert.EqualValues(t, 0, job["failed_items"])
	assert.EqualValues(t, 100, job["progress"])
	assert.NotNil(t, job["started_at"])
	assert.NotNil(t, job["completed_at"])
	assert.Nil(t, job["error_message"])

	results := job["results"].(map[string]any)
	assert.EqualValues(t, 1, results["high_risk_count"])
	assert.Len(t, results["predictions"], 3)
	assert.Equal(t, false, results["has_errors"])
	assert.Equal(t, []any{}, results["errors"], "a clean job reports an empty errors list, not null")

	assert.EqualValues(t, 2, ts.scorer.calls.Load())

	// status mirror is written after the registry update
	assert.Eventually(t, func() bool {
		status, err := ts.redis.Get(cache.JobStatusKey(id))
		return err == nil && status == "completed"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestContract_FailedChunkStillCompletes(t *testing.T) {
	ts := newTestServer(t, 2)
	id := ts.submit(t, txnPayload(1, 2, 3, 4, 5))

	job := ts.waitDone(t, id)
	assert.Equal(t, "completed", job["status"])
	assert.EqualValues(t, 3, job["processed_items"])
	assert.EqualValues(t, 2, job["failed_items"])

	results := job["results"].(map[string]any)
	assert.Equal(t, true, results["has_errors"])
	errs := results["errors"].([]any)
	require.Len(t, errs, 1)
	assert.EqualValues(t, 2, errs[0].(map[string]any)["chunk"])
}

func TestContract_AllChunksFailedReportsEmptyPredictions(t *testing.T) {
	ts := newTestServer(t, 1)
	id := ts.submit(t, txnPayload(1, 2))

	job := ts.waitDone(t, id)
	assert.Equal(t, "completed", job["status"])
	assert.EqualValues(t, 2, job["failed_items"])

	results := job["results"].(map[string]any)
	assert.Equal(t, []any{}, results["predictions"])
	assert.Len(t, results["errors"], 1)
}

func TestContract_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"missing job type", map[string]any{"data": map[string]any{}}, "job_type is required"},
		{"unknown job type", map[string]any{"job_type": "train_model"}, "Unknown job type: train_model"},
		{"empty transactions", txnPayload(), "transactions array is required"},
		{"over max batch", txnPayload(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11), "Batch size exceeds maximum of 10"},
		{"missing csv file", map[string]any{"job_type": "process_csv", "data": map[string]any{"file_path": "/nonexistent/x.csv"}}, "Valid file_path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/jobs", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			errObj := parseBody(t, resp)["error"].(map[string]any)
			assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
			assert.Equal(t, tt.wantMsg, errObj["message"])
		})
	}

	// nothing was registered
	resp := ts.do(t, http.MethodGet, "/jobs", nil)
	assert.EqualValues(t, 0, parseBody(t, resp)["count"])
}

func TestContract_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, ts.server.URL+"/jobs", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testRawKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", parseBody(t, resp)["error"].(map[string]any)["code"])
}

func TestContract_GetUnknownJob(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/jobs/batch_20260101_000000_999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "JOB_NOT_FOUND", parseBody(t, resp)["error"].(map[string]any)["code"])
}

func TestContract_ListJobs(t *testing.T) {
	ts := newTestServer(t)
	first := ts.submit(t, txnPayload(1))
	ts.waitDone(t, first)
	second := ts.submit(t, txnPayload(2))
	ts.waitDone(t, second)

	resp := ts.do(t, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := parseBody(t, resp)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 0, body["active_jobs"])
	assert.EqualValues(t, 2, body["completed_jobs"])
	jobs := body["jobs"].([]any)
	assert.Equal(t, second, jobs[0].(map[string]any)["job_id"])

	resp = ts.do(t, http.MethodGet, "/jobs?limit=1&status=completed", nil)
	body = parseBody(t, resp)
	assert.EqualValues(t, 1, body["count"])

	resp = ts.do(t, http.MethodGet, "/jobs?status=failed", nil)
	assert.EqualValues(t, 0, parseBody(t, resp)["count"])

	for _, q := range []string{"limit=abc", "limit=0", "status=paused"} {
		resp = ts.do(t, http.MethodGet, "/jobs?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestContract_CancelCompletedJobNotFound(t *testing.T) {
	ts := newTestServer(t)
	id := ts.submit(t, txnPayload(1))
	ts.waitDone(t, id)

	resp := ts.do(t, http.MethodDelete, "/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errObj := parseBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "Job not found or already completed", errObj["message"])
}

func TestContract_JobStatus(t *testing.T) {
	ts := newTestServer(t)
	id := ts.submit(t, txnPayload(1))
	ts.waitDone(t, id)

	resp := ts.do(t, http.MethodGet, "/jobs/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := parseBody(t, resp)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "registry", body["source"])

	// a job another replica ran, or one evicted from history
	require.NoError(t, ts.redis.Set(cache.JobStatusKey("batch_20250101_000000_7"), "failed"))
	resp = ts.do(t, http.MethodGet, "/jobs/batch_20250101_000000_7/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = parseBody(t, resp)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "mirror", body["source"])

	resp = ts.do(t, http.MethodGet, "/jobs/batch_unknown/status", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContract_PredictionsNotStoredLocally(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/jobs/batch_1/predictions", nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestContract_Stats(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/stats", nil)
	body := parseBody(t, resp)
	assert.EqualValues(t, 0, body["total_jobs"])
	assert.EqualValues(t, 0, body["success_rate"])

	id := ts.submit(t, txnPayload(1, 2, 3, 4))
	ts.waitDone(t, id)

	resp = ts.do(t, http.MethodGet, "/stats", nil)
	body = parseBody(t, resp)
	assert.EqualValues(t, 1, body["total_jobs"])
	assert.EqualValues(t, 1, body["completed_jobs"])
	assert.EqualValues(t, 100, body["success_rate"])
	assert.EqualValues(t, 4, body["total_items_processed"])
	assert.EqualValues(t, 4, body["average_batch_size"])
}

func TestContract_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := parseBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "batch_service", body["service"])
	assert.Equal(t, "ok", body["checks"].(map[string]any)["cache"])
	assert.Equal(t, "1ms", body["config"].(map[string]any)["chunk_pause"])

	ts.redis.Close()
	resp2, err := http.Get(ts.server.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
	assert.Equal(t, "degraded", parseBody(t, resp2)["status"])
}

func TestContract_RequiresAPIKey(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.server.URL + "/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
