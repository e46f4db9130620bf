package service_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/service"
)

func flow(from, to string, customers int, value float64) model.FlowCell {
	return model.FlowCell{
		FromEntity:    from,
		ToEntity:      to,
		CustomerCount: customers,
		Value:         decimal.NewFromFloat(value),
	}
}

func TestFilterFlowsSymmetric(t *testing.T) {
	flows := []model.FlowCell{
		flow("NIVEA", "VASELINE", 5, 100),
		flow("NIVEA", "CITRA", 3, 60),
		flow("VASELINE", "NIVEA", 2, 40),
	}

	filtered := service.FilterFlows(flows, []string{"NIVEA", "VASELINE"}, service.FlowFilterSymmetric)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 flows after symmetric filter, got %d", len(filtered))
	}
	for _, cell := range filtered {
		if cell.ToEntity == "CITRA" {
			t.Errorf("flow to unselected brand survived the filter: %+v", cell)
		}
	}
}

func TestFilterFlowsFullModeKeepsEverything(t *testing.T) {
	flows := []model.FlowCell{
		flow("NIVEA", "CITRA", 3, 60),
	}

	kept := service.FilterFlows(flows, []string{"NIVEA"}, service.FlowFilterFull)
	if len(kept) != 1 {
		t.Errorf("full mode must keep all destinations, got %d flows", len(kept))
	}
	kept = service.FilterFlows(flows, nil, service.FlowFilterSymmetric)
	if len(kept) != 1 {
		t.Errorf("empty brand selection must keep all flows, got %d", len(kept))
	}
}

func TestRollupFlowsToBrand(t *testing.T) {
	flows := []model.FlowCell{
		flow("NIVEA Body Lotion", "VASELINE Gel", 5, 100),
		flow("NIVEA Deo Roll-On", "VASELINE Gel", 3, 50),
		flow("", "VASELINE Gel", 1, 10),
	}
	lookup := map[string]string{"VASELINE Gel": "VASELINE"}

	rolled := service.RollupFlows(flows, lookup)
	if len(rolled) != 2 {
		t.Fatalf("expected 2 brand-level flows, got %d", len(rolled))
	}

	var nivea *model.FlowCell
	for i := range rolled {
		if rolled[i].FromEntity == "NIVEA" {
			nivea = &rolled[i]
		} else if rolled[i].FromEntity != "Unknown" {
			t.Errorf("unexpected rollup origin %q", rolled[i].FromEntity)
		}
	}
	if nivea == nil {
		t.Fatal("expected a NIVEA origin after rollup")
	}
	if nivea.CustomerCount != 8 {
		t.Errorf("expected 8 customers aggregated, got %d", nivea.CustomerCount)
	}
	if !nivea.Value.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected value 150, got %s", nivea.Value)
	}
	if nivea.ToEntity != "VASELINE" {
		t.Errorf("expected destination mapped through lookup, got %q", nivea.ToEntity)
	}
}

func TestTopFlowsOrdering(t *testing.T) {
	flows := []model.FlowCell{
		flow("A", "B", 2, 10),
		flow("C", "D", 5, 30),
		flow("E", "F", 5, 50),
		flow("G", "H", 1, 5),
	}

	top := service.TopFlows(flows, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 flows, got %d", len(top))
	}
	if top[0].FromEntity != "E" {
		t.Errorf("expected count tie broken by value, got %s first", top[0].FromEntity)
	}
	if top[1].FromEntity != "C" || top[2].FromEntity != "A" {
		t.Errorf("unexpected order: %s, %s", top[1].FromEntity, top[2].FromEntity)
	}

	if got := service.TopFlows(flows, 0); got != nil {
		t.Errorf("expected nil for n=0, got %d flows", len(got))
	}
}

func TestWaterfallBalances(t *testing.T) {
	summary := model.SwitchSummary{
		EntityID:         "NIVEA",
		BeforeCount:      100,
		AfterCount:       95,
		StayedCount:      70,
		NewCount:         15,
		SwitchedInCount:  10,
		SwitchedOutCount: 12,
		LostCount:        18,
	}

	steps := service.Waterfall(summary)
	if len(steps) != 6 {
		t.Fatalf("expected 6 waterfall steps, got %d", len(steps))
	}
	if steps[0].Measure != "absolute" || steps[5].Measure != "total" {
		t.Errorf("unexpected end-step measures: %s, %s", steps[0].Measure, steps[5].Measure)
	}

	// before + relatives must land on the after total
	running := steps[0].Value
	for _, step := range steps[1:5] {
		if step.Measure != "relative" {
			t.Errorf("step %q: expected relative measure, got %s", step.Label, step.Measure)
		}
		running = running.Add(step.Value)
	}
	if !running.Equal(steps[5].Value) {
		t.Errorf("waterfall does not balance: running %s, after %s", running, steps[5].Value)
	}
}
