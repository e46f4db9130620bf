package utils_test

import (
	"context"
	"testing"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/service"
	"github.com/YodaWagyu/everything-switching/pkg/utils"
)

func demoSpec() model.QuerySpec {
	return model.QuerySpec{
		Dimension:   model.GroupBrand,
		BeforeStart: "2025-01-01",
		BeforeEnd:   "2025-03-31",
		AfterStart:  "2025-04-01",
		AfterEnd:    "2025-06-30",
		Category:    "DEO ROLL ON",
	}
}

func TestMockSourceGeneratesBothPeriods(t *testing.T) {
	source := utils.NewMockPeriodSource()

	before, after, err := source.FetchPeriods(context.Background(), demoSpec())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(before) == 0 || len(after) == 0 {
		t.Fatalf("expected records in both periods, got %d and %d", len(before), len(after))
	}
	for i, r := range append(before, after...) {
		if r.EntityID == "" {
			t.Errorf("record %d has empty entity", i)
		}
		if r.CustomerID == "" {
			t.Errorf("record %d has empty customer", i)
		}
		if r.PurchaseAmount.IsNegative() || r.PurchaseAmount.IsZero() {
			t.Errorf("record %d has non-positive amount %s", i, r.PurchaseAmount)
		}
	}
}

func TestMockSourceFeedsClassifier(t *testing.T) {
	source := utils.NewMockPeriodSource()
	before, after, err := source.FetchPeriods(context.Background(), demoSpec())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	cfg := service.ClassifierConfig{Dimension: model.GroupBrand, PrimaryThreshold: 60}
	result, err := service.Classify(before, after, cfg)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(result.Summaries) == 0 {
		t.Fatal("expected summaries from demo data")
	}
	if len(result.Flows) == 0 {
		t.Error("demo data should produce switching flows")
	}
}

func TestMockSourceCatalog(t *testing.T) {
	source := utils.NewMockPeriodSource()

	categories, err := source.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories failed: %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected demo categories")
	}

	brands, err := source.BrandsByCategory(context.Background(), categories[0])
	if err != nil {
		t.Fatalf("brands failed: %v", err)
	}
	if len(brands) == 0 {
		t.Errorf("expected brands for %q", categories[0])
	}
}
