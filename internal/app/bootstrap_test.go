package app_test

import (
	"context"
	"testing"

	"github.com/YodaWagyu/everything-switching/internal/app"
)

func TestCleanupLeavesJobChannelOpen(t *testing.T) {
	appCtx := &app.AppContext{JobCh: make(chan *app.AnalysisJob, 1)}

	appCtx.Cleanup(context.Background())

	// A late async request may still be enqueueing during shutdown; the
	// send must not panic on a closed channel.
	select {
	case appCtx.JobCh <- testJob("late-job"):
	default:
		t.Fatal("job channel rejected a buffered send after cleanup")
	}
}
