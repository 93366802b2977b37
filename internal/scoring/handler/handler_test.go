package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/internal/scoring/service"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubRunner struct {
	result pipeline.RunResult
	err    error
	calls  int
}

func (s *stubRunner) Run(context.Context) (pipeline.RunResult, error) {
	s.calls++
	return s.result, s.err
}

type stubRuns struct {
	runs []pipeline.ScoringRun
}

func (s *stubRuns) GetRun(_ context.Context, id uuid.UUID) (pipeline.ScoringRun, error) {
	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return pipeline.ScoringRun{}, apperr.NotFound("scoring run not found")
}

func (s *stubRuns) ListRuns(_ context.Context, limit int) ([]pipeline.ScoringRun, error) {
	if limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

type stubReader struct {
	rows   []pipeline.ResultRow
	filter pipeline.ResultFilter
}

func (s *stubReader) ListResults(_ context.Context, filter pipeline.ResultFilter) ([]pipeline.ResultRow, error) {
	s.filter = filter
	return s.rows, nil
}

type stubEnqueuer struct {
	reason string
	err    error
}

func (s *stubEnqueuer) EnqueueScoringRun(_ context.Context, reason string) (string, error) {
	s.reason = reason
	if s.err != nil {
		return "", s.err
	}
	return "task-1", nil
}

type fixture struct {
	engine   *gin.Engine
	runner   *stubRunner
	runs     *stubRuns
	reader   *stubReader
	enqueuer *stubEnqueuer
}

func newFixture(t *testing.T, withEnqueuer bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		runner: &stubRunner{},
		runs:   &stubRuns{},
		reader: &stubReader{},
	}
	var enqueuer service.RunEnqueuer
	if withEnqueuer {
		f.enqueuer = &stubEnqueuer{}
		enqueuer = f.enqueuer
	}
	svc := service.New(f.runner, f.runs, pipeline.NewProjection(f.reader), enqueuer, logger.Nop())
	h := New(svc, validator.New(), logger.Nop())

	f.engine = gin.New()
	v1 := f.engine.Group("/api/v1")
	v1.POST("/score", h.Score)
	v1.GET("/score/runs", h.ListRuns)
	v1.GET("/score/runs/:id", h.GetRun)
	v1.GET("/results", h.ListResults)
	v1.GET("/export", h.Export)
	return f
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestScoreReturnsRunSummary(t *testing.T) {
	f := newFixture(t, false)
	runID := uuid.New()
	f.runner.result = pipeline.RunResult{
		Run: pipeline.ScoringRun{ID: runID, Status: pipeline.RunCompleted, FallbackCount: 1},
		Results: []pipeline.ScoreResult{
			{ID: uuid.New(), RunID: runID, RuleScore: 40, AIScore: 50, FinalScore: 90, Intent: pipeline.IntentHigh},
			{ID: uuid.New(), RunID: runID, RuleScore: 10, AIScore: 25, FinalScore: 35, Intent: pipeline.IntentMedium, Fallback: true},
		},
	}

	rec := f.do(http.MethodPost, "/api/v1/score")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["message"] != service.MsgScored {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if body["count"] != float64(2) || body["fallbackCount"] != float64(1) {
		t.Fatalf("unexpected counts: %v", body)
	}
	if body["runId"] != runID.String() {
		t.Fatalf("expected runId %s, got %v", runID, body["runId"])
	}
	results := body["results"].([]any)
	first := results[0].(map[string]any)
	if first["final_score"] != float64(90) || first["intent"] != "High" {
		t.Fatalf("unexpected first result %v", first)
	}
}

func TestScorePreconditionReportsStage(t *testing.T) {
	f := newFixture(t, false)
	f.runner.err = apperr.Precondition(pipeline.StageLoadOffer, pipeline.MsgNoOffer)

	rec := f.do(http.MethodPost, "/api/v1/score")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != pipeline.MsgNoOffer || body["stage"] != pipeline.StageLoadOffer {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestScoreConflictWhileRunning(t *testing.T) {
	f := newFixture(t, false)
	f.runner.err = apperr.Conflict(pipeline.MsgRunInProgress).WithStage(pipeline.StageAcquireLock)

	rec := f.do(http.MethodPost, "/api/v1/score")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestScoreUntypedErrorIsInternal(t *testing.T) {
	f := newFixture(t, false)
	f.runner.err = errors.New("boom")

	rec := f.do(http.MethodPost, "/api/v1/score")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatal("internal cause must not leak to the response")
	}
}

func TestScoreAsyncQueuesRun(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodPost, "/api/v1/score?async=true")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["taskId"] != "task-1" || body["message"] != service.MsgQueued {
		t.Fatalf("unexpected body %v", body)
	}
	if f.runner.calls != 0 {
		t.Fatal("async request must not run the pipeline inline")
	}
	if f.enqueuer.reason != reasonManual {
		t.Fatalf("expected reason %q, got %q", reasonManual, f.enqueuer.reason)
	}
}

func TestScoreAsyncWithoutSchedulerIsUnavailable(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/api/v1/score?async=true")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	f := newFixture(t, false)
	runID := uuid.New()
	f.runs.runs = []pipeline.ScoringRun{{ID: runID, Status: pipeline.RunCompleted, LeadCount: 3, ResultCount: 3, StartedAt: time.Now()}}

	rec := f.do(http.MethodGet, "/api/v1/score/runs/"+runID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "completed" || body["result_count"] != float64(3) {
		t.Fatalf("unexpected body %v", body)
	}

	if rec := f.do(http.MethodGet, "/api/v1/score/runs/not-a-uuid"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/score/runs/"+uuid.NewString()); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	f := newFixture(t, false)
	f.runs.runs = []pipeline.ScoringRun{{ID: uuid.New()}, {ID: uuid.New()}}

	rec := f.do(http.MethodGet, "/api/v1/score/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["count"] != float64(2) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestListResults(t *testing.T) {
	f := newFixture(t, false)
	runID := uuid.New()
	f.reader.rows = []pipeline.ResultRow{{ID: uuid.New(), RunID: runID, Name: "Ava", Intent: pipeline.IntentHigh, Score: 90}}

	rec := f.do(http.MethodGet, "/api/v1/results?runId="+runID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != service.MsgResults || body["count"] != float64(1) {
		t.Fatalf("unexpected body %v", body)
	}
	if f.reader.filter.RunID == nil || *f.reader.filter.RunID != runID {
		t.Fatal("expected runId filter to reach the reader")
	}
}

func TestListResultsEmptyReturnsZeroCount(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/v1/results")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["count"] != float64(0) || body["message"] != service.MsgResults {
		t.Fatalf("unexpected body %v", body)
	}
	if results, ok := body["results"].([]any); !ok || len(results) != 0 {
		t.Fatalf("expected an empty results array, got %v", body["results"])
	}
}

func TestListResultsRejectsBadRunID(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/v1/results?runId=nope")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExportWritesCSV(t *testing.T) {
	f := newFixture(t, false)
	f.reader.rows = []pipeline.ResultRow{
		{Name: "Ava", Role: "CEO", Company: `Acme "Labs"`, Intent: pipeline.IntentHigh, Score: 90, Reasoning: "Fit"},
	}

	rec := f.do(http.MethodGet, "/api/v1/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="scoring-results.csv"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	want := pipeline.CSVHeader + "\n" + `"Ava","CEO","Acme ""Labs""","High",90,"Fit"`
	if rec.Body.String() != want {
		t.Fatalf("unexpected body\n%s\nwant\n%s", rec.Body.String(), want)
	}
}

func TestExportEmptyIsNotFound(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/v1/export")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatal("empty export must not send an attachment")
	}
}
