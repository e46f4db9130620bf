package service

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// FlowFilterMode controls the client-side brand filter applied to the flow
// matrix after classification.
type FlowFilterMode string

const (
	// FlowFilterFull keeps every destination, showing where filtered brands
	// went (asymmetric view).
	FlowFilterFull FlowFilterMode = "full"
	// FlowFilterSymmetric keeps only flows landing on the selected brands.
	FlowFilterSymmetric FlowFilterMode = "filtered"
)

// FilterFlows narrows a flow matrix to the selected brands without requiring
// a re-query. In full mode, or with no brands selected, the input is returned
// unchanged.
func FilterFlows(flows []model.FlowCell, brands []string, mode FlowFilterMode) []model.FlowCell {
	if len(brands) == 0 || mode != FlowFilterSymmetric {
		return flows
	}
	selected := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		selected[b] = struct{}{}
	}
	out := make([]model.FlowCell, 0, len(flows))
	for _, cell := range flows {
		if _, ok := selected[cell.ToEntity]; ok {
			out = append(out, cell)
		}
	}
	return out
}

// RollupFlows aggregates a product-level flow matrix to brand level. Entities
// are mapped through the lookup when present; otherwise the first word of the
// product name is taken as the brand, with "Unknown" for blanks.
func RollupFlows(flows []model.FlowCell, brandLookup map[string]string) []model.FlowCell {
	agg := make(map[[2]string]*model.FlowCell)
	for _, cell := range flows {
		from := brandOf(cell.FromEntity, brandLookup)
		to := brandOf(cell.ToEntity, brandLookup)
		key := [2]string{from, to}
		rolled, ok := agg[key]
		if !ok {
			rolled = &model.FlowCell{FromEntity: from, ToEntity: to}
			agg[key] = rolled
		}
		rolled.CustomerCount += cell.CustomerCount
		rolled.Value = rolled.Value.Add(cell.Value)
	}
	return finalizeFlows(agg)
}

func brandOf(entity string, lookup map[string]string) string {
	if brand, ok := lookup[entity]; ok && brand != "" {
		return brand
	}
	fields := strings.Fields(entity)
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[0]
}

// TopFlows returns the n largest flows by customer count, ties broken by
// value, then from/to entity ids for a stable ordering.
func TopFlows(flows []model.FlowCell, n int) []model.FlowCell {
	if n <= 0 {
		return nil
	}
	out := make([]model.FlowCell, len(flows))
	copy(out, flows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CustomerCount != out[j].CustomerCount {
			return out[i].CustomerCount > out[j].CustomerCount
		}
		if cmp := out[i].Value.Cmp(out[j].Value); cmp != 0 {
			return cmp > 0
		}
		if out[i].FromEntity != out[j].FromEntity {
			return out[i].FromEntity < out[j].FromEntity
		}
		return out[i].ToEntity < out[j].ToEntity
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Waterfall decomposes one entity's customer movement into the steps of a
// waterfall chart: before total, inflows, outflows, after total.
func Waterfall(summary model.SwitchSummary) []model.WaterfallStep {
	return []model.WaterfallStep{
		{Label: "Before Total", Value: decimal.NewFromInt(int64(summary.BeforeCount)), Measure: "absolute"},
		{Label: "New Customers", Value: decimal.NewFromInt(int64(summary.NewCount)), Measure: "relative"},
		{Label: "Switch In", Value: decimal.NewFromInt(int64(summary.SwitchedInCount)), Measure: "relative"},
		{Label: "Switch Out", Value: decimal.NewFromInt(int64(-summary.SwitchedOutCount)), Measure: "relative"},
		{Label: "Gone", Value: decimal.NewFromInt(int64(-summary.LostCount)), Measure: "relative"},
		{Label: "After Total", Value: decimal.NewFromInt(int64(summary.AfterCount)), Measure: "total"},
	}
}
