package service

import (
	"context"
	"fmt"
	"log"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
	"github.com/YodaWagyu/everything-switching/internal/domain/useCases"
)

// AnalysisService runs switching analyses against an injected period fetcher
// with an optional result cache in front. It holds no per-request state, so
// one instance serves concurrent analysis requests.
type AnalysisService struct {
	fetcher repository.PeriodFetcher
	cache   repository.ResultCache // optional
}

// NewAnalysisService wires an analysis service. The cache may be nil, in
// which case every request recomputes.
func NewAnalysisService(fetcher repository.PeriodFetcher, cache repository.ResultCache) *AnalysisService {
	return &AnalysisService{fetcher: fetcher, cache: cache}
}

// Analyze validates the request, consults the cache, and otherwise fetches
// both period windows and classifies them. Cache failures are logged and
// degrade to a recompute.
func (s *AnalysisService) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	cfg := ClassifierConfig{
		Dimension:        req.Query.Dimension,
		PrimaryThreshold: req.PrimaryThreshold,
		TopN:             req.TopN,
		IncludeMovements: req.IncludeMovements,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	key := req.Fingerprint()
	if s.cache != nil && key != "" {
		cached, err := s.cache.GetResult(ctx, key)
		if err != nil {
			log.Printf("result cache lookup failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	before, after, err := s.fetcher.FetchPeriods(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("fetch periods: %w", err)
	}

	result, err := Classify(before, after, cfg)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && key != "" {
		if err := s.cache.SaveResult(ctx, key, result); err != nil {
			log.Printf("result cache save failed: %v", err)
		}
	}
	return result, nil
}

var _ useCases.SwitchAnalyzer = (*AnalysisService)(nil)
