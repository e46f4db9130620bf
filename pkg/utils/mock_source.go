package utils

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
)

// MockPeriodSource is a PeriodFetcher that fabricates plausible two-period
// purchase data. It stands in for the warehouse in local development and
// demos when ClickHouse is unreachable.
type MockPeriodSource struct {
	rng *rand.Rand
}

func NewMockPeriodSource() *MockPeriodSource {
	return &MockPeriodSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

var _ repository.PeriodFetcher = (*MockPeriodSource)(nil)

// FetchPeriods generates stayed, switched, new and lost cohorts across the
// category's brands so every movement bucket shows up in the demo dashboard.
func (m *MockPeriodSource) FetchPeriods(_ context.Context, spec model.QuerySpec) ([]model.PeriodRecord, []model.PeriodRecord, error) {
	brands := spec.Brands
	if len(brands) == 0 {
		brands = mockBrands(spec.Category)
	}

	var before, after []model.PeriodRecord
	seq := 0
	nextCustomer := func() string {
		seq++
		return fmt.Sprintf("C%06d", seq)
	}
	amount := func() decimal.Decimal {
		return decimal.NewFromFloat(5 + m.rng.Float64()*495).Round(2)
	}
	record := func(period model.Period, entity, customer string) model.PeriodRecord {
		return model.PeriodRecord{
			EntityID:       entity,
			CustomerID:     customer,
			Period:         period,
			PurchaseAmount: amount(),
			PurchaseCount:  1 + m.rng.Intn(5),
		}
	}

	for _, brand := range brands {
		for i := 0; i < 15+m.rng.Intn(16); i++ { // stayed
			cust := nextCustomer()
			before = append(before, record(model.PeriodBefore, brand, cust))
			after = append(after, record(model.PeriodAfter, brand, cust))
		}
		for i := 0; i < 5+m.rng.Intn(11); i++ { // new to category
			after = append(after, record(model.PeriodAfter, brand, nextCustomer()))
		}
		for i := 0; i < 3+m.rng.Intn(8); i++ { // lost from category
			before = append(before, record(model.PeriodBefore, brand, nextCustomer()))
		}
	}
	for _, from := range brands {
		for _, to := range brands {
			if from == to {
				continue
			}
			for i := 0; i < 2+m.rng.Intn(7); i++ { // switched
				cust := nextCustomer()
				before = append(before, record(model.PeriodBefore, from, cust))
				after = append(after, record(model.PeriodAfter, to, cust))
			}
		}
	}

	return before, after, nil
}

// Categories returns the demo category list.
func (m *MockPeriodSource) Categories(context.Context) ([]string, error) {
	return []string{
		"DEODORANT", "FACIAL CLEANSING", "MOISTURIZER FOR BODY",
		"MOISTURIZER FOR FACE", "SHAMPOO", "SUNCARE", "TALCUM POWDER",
		"TOILET SOAP", "TOOTHBRUSH", "TOOTHPASTE",
	}, nil
}

// BrandsByCategory returns the demo brands for a category.
func (m *MockPeriodSource) BrandsByCategory(_ context.Context, category string) ([]string, error) {
	return mockBrands(category), nil
}

func mockBrands(category string) []string {
	brands := map[string][]string{
		"MOISTURIZER FOR BODY": {"NIVEA", "VASELINE", "CITRA", "JERGENS"},
		"FACIAL CLEANSING":     {"NIVEA", "CETAPHIL", "CLEAN & CLEAR", "GARNIER"},
		"SHAMPOO":              {"CLEAR", "PANTENE", "HEAD & SHOULDERS", "DOVE"},
		"TOILET SOAP":          {"DOVE", "LUX", "NIVEA", "JOHNSONS"},
		"DEODORANT":            {"NIVEA", "REXONA", "AXE", "DOVE"},
	}
	if b, ok := brands[category]; ok {
		return b
	}
	return []string{"NIVEA", "VASELINE", "CITRA"}
}
