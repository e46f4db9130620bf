package narrate_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/infrastructure/narrate"
)

func TestBuildPrompt(t *testing.T) {
	req := model.AnalysisRequest{
		Query: model.QuerySpec{
			Dimension:   model.GroupBrand,
			BeforeStart: "2025-01-01",
			BeforeEnd:   "2025-03-31",
			AfterStart:  "2025-04-01",
			AfterEnd:    "2025-06-30",
			Category:    "DEO ROLL ON",
			Brands:      []string{"NIVEA", "VASELINE"},
		},
		PrimaryThreshold: 60,
	}
	result := &model.AnalysisResult{
		Dimension: model.GroupBrand,
		Summaries: []model.SwitchSummary{
			{EntityID: "NIVEA", StayedCount: 70, SwitchedInCount: 10, NewCount: 5, LostCount: 15,
				BeforeCount: 85, AfterCount: 85, NetChange: decimal.NewFromInt(1200)},
			{EntityID: "VASELINE", StayedCount: 40, LostCount: 20,
				BeforeCount: 60, AfterCount: 40, NetChange: decimal.NewFromInt(-800)},
		},
		Flows: []model.FlowCell{
			{FromEntity: "VASELINE", ToEntity: "NIVEA", CustomerCount: 10, Value: decimal.NewFromInt(500)},
		},
	}

	prompt := narrate.BuildPrompt(req, result)

	for _, want := range []string{
		"Category: DEO ROLL ON",
		"Brands Analyzed: NIVEA, VASELINE",
		"Comparison: 2025-01-01..2025-03-31 vs 2025-04-01..2025-06-30",
		"Total Customers: 160",
		"VASELINE -> NIVEA: 10 customers",
		"Strategic Recommendations",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// NIVEA gained, VASELINE lost; the gainer list must lead with NIVEA.
	gainersAt := strings.Index(prompt, "Top Gainers")
	niveaAt := strings.Index(prompt[gainersAt:], "- NIVEA")
	vaselineAt := strings.Index(prompt[gainersAt:], "- VASELINE")
	if niveaAt < 0 || vaselineAt < 0 || niveaAt > vaselineAt {
		t.Error("expected NIVEA listed as top gainer before VASELINE")
	}
}

func TestBuildPromptEmptyResult(t *testing.T) {
	prompt := narrate.BuildPrompt(model.AnalysisRequest{}, &model.AnalysisResult{})
	if !strings.Contains(prompt, "Total Customers: 0") {
		t.Error("empty result should report zero customers without dividing by zero")
	}
	if !strings.Contains(prompt, "Brands Analyzed: All") {
		t.Error("missing all-brands default")
	}
}
