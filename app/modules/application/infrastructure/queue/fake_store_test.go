package applicationqueue

import (
	"context"
	"sync"
	"time"

	postingparser "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/parser"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type FakeStore struct {
	mu    sync.Mutex
	trace []string

	ClaimForEnrichmentFn func(ctx context.Context, db bun.IDB, limit int, staleAfter time.Duration) ([]applicationdb.Application, error)
	SaveEnrichmentFn     func(ctx context.Context, db bun.IDB, id uuid.UUID, result applicationdb.EnrichmentResult) error

	Saved map[uuid.UUID]applicationdb.EnrichmentResult
}

func (f *FakeStore) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeStore) ClaimForEnrichment(ctx context.Context, db bun.IDB, limit int, staleAfter time.Duration) ([]applicationdb.Application, error) {
	f.record("ClaimForEnrichment")
	if f.ClaimForEnrichmentFn != nil {
		return f.ClaimForEnrichmentFn(ctx, db, limit, staleAfter)
	}
	return nil, nil
}

func (f *FakeStore) SaveEnrichment(ctx context.Context, db bun.IDB, id uuid.UUID, result applicationdb.EnrichmentResult) error {
	f.record("SaveEnrichment")
	if f.SaveEnrichmentFn != nil {
		if err := f.SaveEnrichmentFn(ctx, db, id, result); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Saved == nil {
		f.Saved = map[uuid.UUID]applicationdb.EnrichmentResult{}
	}
	f.Saved[id] = result
	return nil
}

var _ Store = (*FakeStore)(nil)

type FakeParser struct {
	ParseFn func(ctx context.Context, postingURL string) (*postingparser.Posting, error)
}

func (f *FakeParser) Parse(ctx context.Context, postingURL string) (*postingparser.Posting, error) {
	if f.ParseFn != nil {
		return f.ParseFn(ctx, postingURL)
	}
	return &postingparser.Posting{}, nil
}

var _ postingparser.Parser = (*FakeParser)(nil)

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) RecordEnrichment(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}
