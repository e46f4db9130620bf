package app

import (
	"context"
	"errors"
	"log"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/useCases"
)

// ErrContextCancelled is returned when the context is cancelled during processing
var ErrContextCancelled = errors.New("context cancelled during processing")

// AnalysisJob is one queued analysis request. ID identifies the job towards
// websocket clients; a client retry reuses the same ID and is deduplicated.
type AnalysisJob struct {
	ID      string
	Request model.AnalysisRequest
}

// AnalysisProcessor drains queued analysis jobs, runs them through the
// analyzer and broadcasts finished results to dashboard clients.
type AnalysisProcessor struct {
	JobCh       chan *AnalysisJob
	Analyzer    useCases.SwitchAnalyzer
	Broadcaster useCases.Broadcaster
	DedupCache  map[string]struct{} // processed job ids; per-process, replace with Redis for HA
}

func NewAnalysisProcessor(jobCh chan *AnalysisJob, analyzer useCases.SwitchAnalyzer, broadcaster useCases.Broadcaster) *AnalysisProcessor {
	return &AnalysisProcessor{
		JobCh:       jobCh,
		Analyzer:    analyzer,
		Broadcaster: broadcaster,
		DedupCache:  make(map[string]struct{}),
	}
}

func (p *AnalysisProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-p.JobCh:
			if err := p.processJob(ctx, job); err != nil {
				if errors.Is(err, ErrContextCancelled) {
					log.Println("Context cancelled, stopping analysis processor")
					return ctx.Err()
				}
				// Other errors are just logged but processing continues
				log.Printf("Error processing analysis job: %v", err)
			}
		}
	}
}

// processJob handles a single analysis job with proper context cancellation checks
func (p *AnalysisProcessor) processJob(ctx context.Context, job *AnalysisJob) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}
	if job == nil {
		return nil
	}

	if _, exists := p.DedupCache[job.ID]; exists {
		return nil
	}
	p.DedupCache[job.ID] = struct{}{}

	result, err := p.Analyzer.Analyze(ctx, job.Request)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	p.Broadcaster.BroadcastResult(result)
	return nil
}
