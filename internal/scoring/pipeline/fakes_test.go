package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
	systems   []string
	delay     time.Duration
	respond   func(prompt string) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	idx := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.systems = append(g.systems, system)
	g.mu.Unlock()

	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.delay):
		}
	}
	if g.respond != nil {
		return g.respond(prompt)
	}
	var err error
	if idx < len(g.errs) {
		err = g.errs[idx]
	}
	if err != nil {
		return "", err
	}
	if idx < len(g.responses) {
		return g.responses[idx], nil
	}
	if len(g.responses) > 0 {
		return g.responses[len(g.responses)-1], nil
	}
	return "", errors.New("no scripted response")
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeLeads struct {
	leads []Lead
	err   error
}

func (f *fakeLeads) ListLeads(context.Context) ([]Lead, error) { return f.leads, f.err }

type fakeOffers struct {
	offer *Offer
	err   error
}

func (f *fakeOffers) CurrentOffer(context.Context) (*Offer, error) { return f.offer, f.err }

type fakeSink struct {
	mu       sync.Mutex
	stored   []ScoreResult
	failAt   int // 1-based insert index that fails; 0 never fails
	inserted int
	onInsert func()
}

func (s *fakeSink) InsertResult(_ context.Context, r ScoreResult) (ScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted++
	if s.onInsert != nil {
		s.onInsert()
	}
	if s.failAt > 0 && s.inserted == s.failAt {
		return ScoreResult{}, errors.New("insert failed")
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	s.stored = append(s.stored, r)
	return r, nil
}

type fakeRuns struct {
	mu          sync.Mutex
	created     []ScoringRun
	runs        map[uuid.UUID]ScoringRun
	completeErr error
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: map[uuid.UUID]ScoringRun{}}
}

func (f *fakeRuns) CreateRun(_ context.Context, run ScoringRun) (ScoringRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, run)
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeRuns) CompleteRun(_ context.Context, id uuid.UUID, leads, results, fallbacks int) (ScoringRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return ScoringRun{}, f.completeErr
	}
	run := f.runs[id]
	now := time.Now()
	run.Status = RunCompleted
	run.LeadCount, run.ResultCount, run.FallbackCount = leads, results, fallbacks
	run.CompletedAt = &now
	f.runs[id] = run
	return run, nil
}

func (f *fakeRuns) FailRun(_ context.Context, id uuid.UUID, leads, results, fallbacks int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.runs[id]
	run.Status = RunFailed
	run.LeadCount, run.ResultCount, run.FallbackCount = leads, results, fallbacks
	run.Error = reason
	f.runs[id] = run
	return nil
}

func (f *fakeRuns) GetRun(_ context.Context, id uuid.UUID) (ScoringRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[id], nil
}

func (f *fakeRuns) ListRuns(context.Context, int) ([]ScoringRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ScoringRun, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, nil
}

type recordingObserver struct {
	mu   sync.Mutex
	runs []ScoringRun
}

func (o *recordingObserver) RunCompleted(_ context.Context, run ScoringRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, run)
}

func testOffer() *Offer {
	return &Offer{
		ID:            uuid.New(),
		Name:          "AI Outreach Automation",
		ValueProps:    []string{"24/7 outreach", "6x more meetings"},
		IdealUseCases: []string{"B2B SaaS mid-market"},
	}
}

func testLeads(n int) []Lead {
	leads := make([]Lead, n)
	for i := range leads {
		leads[i] = Lead{
			ID:       uuid.New(),
			Name:     "Lead " + string(rune('A'+i)),
			Role:     "Head of Growth",
			Company:  "FlowMetrics",
			Industry: "SaaS",
			Location: "Lagos",
		}
	}
	return leads
}
