package app_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/app"
	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// MockAnalyzer counts analysis runs and returns a canned result.
type MockAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (a *MockAnalyzer) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return &model.AnalysisResult{
		Dimension: req.Query.Dimension,
		Summaries: []model.SwitchSummary{
			{EntityID: "NIVEA", StayedCount: 1, StayedValue: decimal.NewFromInt(100)},
		},
	}, nil
}

func (a *MockAnalyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// MockBroadcaster implements the Broadcaster interface for testing
type MockBroadcaster struct {
	mu         sync.Mutex
	broadcasts []*model.AnalysisResult
}

func (b *MockBroadcaster) BroadcastResult(result *model.AnalysisResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasts = append(b.broadcasts, result)
}

func (b *MockBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(http.ResponseWriter, *http.Request) {}
}

func (b *MockBroadcaster) GetBroadcasts() []*model.AnalysisResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.broadcasts
}

func testJob(id string) *app.AnalysisJob {
	return &app.AnalysisJob{
		ID: id,
		Request: model.AnalysisRequest{
			Query: model.QuerySpec{
				Dimension:   model.GroupBrand,
				BeforeStart: "2025-01-01",
				BeforeEnd:   "2025-03-31",
				AfterStart:  "2025-04-01",
				AfterEnd:    "2025-06-30",
				Category:    "DEO ROLL ON",
			},
		},
	}
}

func TestAnalysisProcessor(t *testing.T) {
	// Setup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobCh := make(chan *app.AnalysisJob, 10)
	analyzer := &MockAnalyzer{}
	broadcaster := &MockBroadcaster{}

	processor := app.NewAnalysisProcessor(jobCh, analyzer, broadcaster)
	go processor.Run(ctx)

	// Send test jobs
	jobCh <- testJob("job1")
	jobCh <- testJob("job2")

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	if analyzer.Calls() != 2 {
		t.Errorf("expected 2 analysis runs, got %d", analyzer.Calls())
	}
	broadcasts := broadcaster.GetBroadcasts()
	if len(broadcasts) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(broadcasts))
	}
	if broadcasts[0].Dimension != model.GroupBrand {
		t.Errorf("unexpected broadcast dimension: %s", broadcasts[0].Dimension)
	}

	// Test deduplication: a retried job id is not re-run
	jobCh <- testJob("job1")
	time.Sleep(100 * time.Millisecond)

	if analyzer.Calls() != 2 {
		t.Errorf("duplication prevention failed: expected 2 runs, got %d", analyzer.Calls())
	}
	if len(broadcaster.GetBroadcasts()) != 2 {
		t.Errorf("duplicate job must not broadcast again")
	}
}

func TestAnalysisProcessorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobCh := make(chan *app.AnalysisJob, 1)
	processor := app.NewAnalysisProcessor(jobCh, &MockAnalyzer{}, &MockBroadcaster{})

	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("processor did not stop after cancel")
	}
}
