package useCases

import (
	"context"
	"net/http"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// SwitchAnalyzer runs one switching analysis end to end: fetch, classify,
// cache. Implementations must be safe for concurrent calls.
type SwitchAnalyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)
}

// Broadcaster pushes finished analyses to connected dashboard clients.
type Broadcaster interface {
	BroadcastResult(result *model.AnalysisResult)
	Handler() func(http.ResponseWriter, *http.Request)
}

// Narrator turns an analysis result into a written insight summary.
type Narrator interface {
	Narrate(ctx context.Context, req model.AnalysisRequest, result *model.AnalysisResult) (string, error)
}
