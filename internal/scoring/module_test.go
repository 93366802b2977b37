package scoring

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
)

type memoryStorage struct {
	bucket string
	folder string
	name   string
	body   string
}

func (m *memoryStorage) UploadFile(_ context.Context, bucket, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.bucket, m.folder, m.name, m.body = bucket, folder, fileName, string(data)
	return folder + "/" + fileName, nil
}

func (m *memoryStorage) EnsureBucketExists(context.Context, string) error { return nil }
func (m *memoryStorage) ValidateContentType(string) error                 { return nil }
func (m *memoryStorage) ValidateFileSize(int64) error                     { return nil }

type countingEnqueuer struct {
	reasons []string
}

func (c *countingEnqueuer) EnqueueScoringRun(_ context.Context, reason string) (string, error) {
	c.reasons = append(c.reasons, reason)
	return "task", nil
}

type noLeads struct{}

func (noLeads) ListLeads(context.Context) ([]pipeline.Lead, error) { return nil, nil }

type noOffer struct{}

func (noOffer) CurrentOffer(context.Context) (*pipeline.Offer, error) { return nil, nil }

type silentGenerator struct{}

func (silentGenerator) Generate(context.Context, string, string) (string, error) { return "", nil }

func newTestModule(t *testing.T, cfg Config, store *memoryStorage, enqueuer *countingEnqueuer) (*Module, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	deps := Deps{
		Pool:      mock,
		Leads:     noLeads{},
		Offers:    noOffer{},
		Generator: silentGenerator{},
		Bus:       events.NewInMemoryBus(logger.Nop()),
	}
	if store != nil {
		deps.Storage = store
	}
	if enqueuer != nil {
		deps.Enqueuer = enqueuer
	}
	cfg.Classifier.Timeout = time.Second
	cfg.Classifier.MaxAttempts = 1
	return NewModule(deps, cfg, validator.New(), logger.Nop()), mock
}

func TestHandleRunCompletedArchivesExport(t *testing.T) {
	store := &memoryStorage{}
	m, mock := newTestModule(t, Config{ExportBucket: "result-exports"}, store, nil)
	runID := uuid.New()

	cols := []string{"id", "run_id", "lead_id", "name", "role", "company", "intent", "final_score", "rule_score", "ai_score", "reasoning", "created_at"}
	mock.ExpectQuery(`FROM results r`).
		WithArgs(&runID).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), runID, uuid.New(), "Ava", "CEO", "Acme", "High", 90, 40, 50, "Fit", time.Now()))

	err := m.Handle(context.Background(), events.ScoringRunCompleted{BaseEvent: events.NewBaseEvent(), RunID: runID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.bucket != "result-exports" || store.folder != exportFolder || store.name != runID.String()+".csv" {
		t.Fatalf("unexpected upload target %+v", store)
	}
	if !strings.HasPrefix(store.body, pipeline.CSVHeader+"\n") || !strings.Contains(store.body, `"Ava"`) {
		t.Fatalf("unexpected export body %q", store.body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandleRunCompletedWithoutStorageIsNoop(t *testing.T) {
	m, mock := newTestModule(t, Config{ExportBucket: "result-exports"}, nil, nil)

	if err := m.Handle(context.Background(), events.ScoringRunCompleted{RunID: uuid.New()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no queries expected: %v", err)
	}
}

func TestHandleLeadsImportedEnqueuesWhenAutoScoreEnabled(t *testing.T) {
	enqueuer := &countingEnqueuer{}
	m, _ := newTestModule(t, Config{AutoScore: true}, nil, enqueuer)

	if err := m.Handle(context.Background(), events.LeadsImported{Count: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enqueuer.reasons) != 1 || enqueuer.reasons[0] != reasonLeadsImported {
		t.Fatalf("expected one enqueue, got %v", enqueuer.reasons)
	}

	if err := m.Handle(context.Background(), events.LeadsImported{Count: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enqueuer.reasons) != 1 {
		t.Fatal("empty imports must not trigger scoring")
	}
}

func TestHandleLeadsImportedIgnoredWhenAutoScoreDisabled(t *testing.T) {
	enqueuer := &countingEnqueuer{}
	m, _ := newTestModule(t, Config{}, nil, enqueuer)

	if err := m.Handle(context.Background(), events.LeadsImported{Count: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enqueuer.reasons) != 0 {
		t.Fatalf("expected no enqueue, got %v", enqueuer.reasons)
	}
}

func TestHandleLeadsImportedRunsInProcessWithoutScheduler(t *testing.T) {
	m, mock := newTestModule(t, Config{AutoScore: true}, nil, nil)

	// No offer exists, so the in-process run stops at its precondition.
	err := m.Handle(context.Background(), events.LeadsImported{Count: 2})
	if err == nil || !strings.Contains(err.Error(), pipeline.MsgNoOffer) {
		t.Fatalf("expected no-offer precondition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no queries expected: %v", err)
	}
}
