package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/speech-coach/internal/adapters/http"
	"github.com/PabloGalante/speech-coach/internal/adapters/llm"
	"github.com/PabloGalante/speech-coach/internal/adapters/storage/memory"
	"github.com/PabloGalante/speech-coach/internal/app/analysis"
	"github.com/PabloGalante/speech-coach/internal/app/credentials"
	"github.com/PabloGalante/speech-coach/internal/app/history"
	"github.com/PabloGalante/speech-coach/internal/app/metrics"
	"github.com/PabloGalante/speech-coach/internal/app/practice"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

const practiceBody = `{"text":"Thanks for having me. I have spent five years building payment systems and I enjoy hard problems","scenario":"interview","duration_seconds":20}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	kv := memory.NewKV()
	vault := credentials.NewVault(kv, "")
	orch := analysis.NewOrchestrator(llm.NewMockLLM(), vault, analysis.Options{})
	store := history.NewStore(kv, history.Options{})
	sup := practice.NewSupervisor(metrics.NewEngine(), orch, store, practice.Options{})

	return httpadapter.NewServer(sup, vault)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPassthrough(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodOptions, "/history", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPracticeTextNeedsCredential(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/practice/text", practiceBody)
	require.Equal(t, http.StatusPreconditionFailed, w.Code, w.Body.String())

	var resp struct {
		Error   string            `json:"error"`
		Outcome *practice.Outcome `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Outcome)
	assert.Nil(t, resp.Outcome.Analysis)
	require.NotNil(t, resp.Outcome.Record, "the session is kept without analysis")
}

func TestPracticeTextWithCredential(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPut, "/credential", `{"api_key":"secret"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodPost, "/practice/text", practiceBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out practice.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.Analysis)
	assert.GreaterOrEqual(t, out.Analysis.OverallScore, 1)
	assert.Equal(t, domain.ScenarioInterview, out.Scenario)

	w = do(t, srv, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []domain.SessionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Analysis)

	w = do(t, srv, http.MethodDelete, "/history", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/history", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPracticeTextEmpty(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodPost, "/practice/text", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/sessions/stop", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, srv, http.MethodPost, "/sessions", `{"scenario":"social"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.NotEmpty(t, started["session_id"])
	assert.Equal(t, "recording", started["state"])

	w = do(t, srv, http.MethodPost, "/sessions", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, srv, http.MethodPost, "/sessions/transcript", `{"text":"um hello everyone","is_final":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var snap practice.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 3, snap.Metrics.WordCount)
	assert.Equal(t, 1, snap.Metrics.FillerWordCount)

	w = do(t, srv, http.MethodGet, "/sessions/current", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost, "/sessions/stop", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out practice.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, started["session_id"], out.SessionID)
	assert.NotEmpty(t, out.SkipReason)

	w = do(t, srv, http.MethodGet, "/sessions/current", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, practice.StateIdle, snap.State)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, "/sessions", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, "/practice/text", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/sessions/unknown", "").Code)
}
