// Package service implements the domain services behind the switching
// analysis: the movement classifier, flow post-processing and the analysis
// orchestration. It depends only on domain models and repository interfaces.
package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// ErrInvalidInput marks configuration or input-shape errors that should be
// surfaced to the caller immediately and never retried. Data sparsity (empty
// periods, one-sided entities) is valid input, not an error.
var ErrInvalidInput = errors.New("invalid input")

// ClassifierConfig is the request-scoped configuration for one analysis run.
type ClassifierConfig struct {
	Dimension model.GroupingDimension

	// PrimaryThreshold is the minimum percent (0-100) of a customer's period
	// spend that must sit in one entity for it to count as the customer's
	// dominant entity. Zero disables the dominant-entity reduction. Only
	// consulted for brand and custom analysis modes.
	PrimaryThreshold float64

	// TopN truncates the summary list to the N entities with the largest
	// monetary movement. Zero reports every entity.
	TopN int

	// IncludeMovements adds the customer-level drill-down to the result.
	IncludeMovements bool
}

func (c ClassifierConfig) validate() error {
	if !c.Dimension.Valid() {
		return fmt.Errorf("%w: unknown grouping dimension %q", ErrInvalidInput, c.Dimension)
	}
	if c.PrimaryThreshold < 0 || c.PrimaryThreshold > 100 {
		return fmt.Errorf("%w: primary threshold %.2f outside [0,100]", ErrInvalidInput, c.PrimaryThreshold)
	}
	if c.TopN < 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidInput, c.TopN)
	}
	return nil
}

func (c ClassifierConfig) thresholdApplies() bool {
	if c.PrimaryThreshold <= 0 {
		return false
	}
	return c.Dimension == model.GroupBrand || c.Dimension == model.GroupCustom
}

// holding is one customer's aggregated purchases of one entity in one period.
type holding struct {
	amount decimal.Decimal
	count  int
}

// basket maps entity id to holding for a single customer and period.
type basket map[string]holding

// Classify partitions the customer base described by the two period record
// sets into movement categories and rolls the result up into per-entity
// summaries plus the switching flow matrix. It is a pure function of its
// input: records are not mutated and repeated runs yield identical output.
func Classify(before, after []model.PeriodRecord, cfg ClassifierConfig) (*model.AnalysisResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	beforeBaskets := collapse(before)
	afterBaskets := collapse(after)

	if cfg.thresholdApplies() {
		reduceToDominant(beforeBaskets, cfg.PrimaryThreshold)
		reduceToDominant(afterBaskets, cfg.PrimaryThreshold)
	}

	if err := checkPeriodOverlap(beforeBaskets, afterBaskets); err != nil {
		return nil, err
	}

	summaries := make(map[string]*model.SwitchSummary)
	flows := make(map[[2]string]*model.FlowCell)
	var movements []model.CustomerMovement

	for _, cust := range unionCustomers(beforeBaskets, afterBaskets) {
		b := beforeBaskets[cust]
		a := afterBaskets[cust]

		for ent, h := range b {
			s := summaryFor(summaries, ent)
			s.BeforeCount++
			s.BeforeValue = s.BeforeValue.Add(h.amount)
		}
		for ent, h := range a {
			s := summaryFor(summaries, ent)
			s.AfterCount++
			s.AfterValue = s.AfterValue.Add(h.amount)
		}

		switch {
		case len(b) == 0 && len(a) == 0:
			// Absent from both periods: excluded entirely.

		case len(b) == 0:
			for ent, h := range a {
				s := summaryFor(summaries, ent)
				s.NewCount++
				s.NewValue = s.NewValue.Add(h.amount)
				if cfg.IncludeMovements {
					movements = append(movements, model.CustomerMovement{
						EntityID:    ent,
						CustomerID:  cust,
						Category:    model.MoveNew,
						AfterAmount: h.amount,
					})
				}
			}

		case len(a) == 0:
			for ent, h := range b {
				s := summaryFor(summaries, ent)
				s.LostCount++
				s.LostValue = s.LostValue.Add(h.amount)
				if cfg.IncludeMovements {
					movements = append(movements, model.CustomerMovement{
						EntityID:     ent,
						CustomerID:   cust,
						Category:     model.MoveLost,
						BeforeAmount: h.amount,
					})
				}
			}

		default:
			var gained, dropped []string
			for ent := range a {
				if _, ok := b[ent]; ok {
					h := a[ent]
					s := summaryFor(summaries, ent)
					s.StayedCount++
					s.StayedValue = s.StayedValue.Add(h.amount)
					if cfg.IncludeMovements {
						movements = append(movements, model.CustomerMovement{
							EntityID:     ent,
							CustomerID:   cust,
							Category:     model.MoveStayed,
							BeforeAmount: b[ent].amount,
							AfterAmount:  h.amount,
						})
					}
				} else {
					gained = append(gained, ent)
				}
			}
			for ent := range b {
				if _, ok := a[ent]; !ok {
					dropped = append(dropped, ent)
				}
			}
			sort.Strings(gained)
			sort.Strings(dropped)

			// The movement leaves each dropped entity as a switch-out; those
			// counts balance the before-period ledger but are not a fifth
			// bucket in the per-entity primary view.
			for _, ent := range dropped {
				s := summaryFor(summaries, ent)
				s.SwitchedOutCount++
				s.SwitchedOutValue = s.SwitchedOutValue.Add(b[ent].amount)
			}

			if len(gained) > 0 {
				origins := dropped
				if len(origins) == 0 {
					// Customer kept everything and added entities on top;
					// attribute the inflow to their largest prior entity.
					origins = []string{topSpendEntity(b)}
				}
				prior := topSpendAmong(b, origins)
				for _, ent := range gained {
					h := a[ent]
					s := summaryFor(summaries, ent)
					s.SwitchedInCount++
					s.SwitchedInValue = s.SwitchedInValue.Add(h.amount)
					if cfg.IncludeMovements {
						movements = append(movements, model.CustomerMovement{
							EntityID:     ent,
							CustomerID:   cust,
							Category:     model.MoveSwitched,
							BeforeAmount: b[prior].amount,
							AfterAmount:  h.amount,
							BeforeEntity: prior,
						})
					}
					for _, from := range origins {
						key := [2]string{from, ent}
						cell, ok := flows[key]
						if !ok {
							cell = &model.FlowCell{FromEntity: from, ToEntity: ent}
							flows[key] = cell
						}
						cell.CustomerCount++
						cell.Value = cell.Value.Add(h.amount)
					}
				}
			}
		}
	}

	result := &model.AnalysisResult{
		Dimension:   cfg.Dimension,
		Summaries:   finalizeSummaries(summaries, cfg.TopN),
		Flows:       finalizeFlows(flows),
		GeneratedAt: time.Now().UTC(),
	}
	if cfg.IncludeMovements {
		sort.Slice(movements, func(i, j int) bool {
			if movements[i].EntityID != movements[j].EntityID {
				return movements[i].EntityID < movements[j].EntityID
			}
			return movements[i].CustomerID < movements[j].CustomerID
		})
		result.Movements = movements
	}
	return result, nil
}

// collapse sums duplicate (entity, customer) rows within one period and
// indexes the result per customer.
func collapse(records []model.PeriodRecord) map[string]basket {
	baskets := make(map[string]basket)
	for _, r := range records {
		bk, ok := baskets[r.CustomerID]
		if !ok {
			bk = make(basket)
			baskets[r.CustomerID] = bk
		}
		h := bk[r.EntityID]
		h.amount = h.amount.Add(r.PurchaseAmount)
		h.count += r.PurchaseCount
		bk[r.EntityID] = h
	}
	return baskets
}

// reduceToDominant collapses each customer's basket to their dominant entity
// when one entity holds at least threshold percent of the customer's period
// spend. Customers below threshold for every entity keep their full basket
// and fall under the multi-entity rule.
func reduceToDominant(baskets map[string]basket, threshold float64) {
	th := decimal.NewFromFloat(threshold)
	for cust, bk := range baskets {
		if len(bk) < 2 {
			continue
		}
		total := decimal.Zero
		for _, h := range bk {
			total = total.Add(h.amount)
		}
		if total.IsZero() {
			continue
		}
		dom, ok := dominantEntity(bk, total, th)
		if !ok {
			continue
		}
		baskets[cust] = basket{dom: bk[dom]}
	}
}

// dominantEntity picks the entity whose share of total meets the threshold.
// Ties resolve by highest spend, then ascending entity id.
func dominantEntity(bk basket, total decimal.Decimal, threshold decimal.Decimal) (string, bool) {
	hundred := decimal.NewFromInt(100)
	best := ""
	for ent, h := range bk {
		// share*100 >= threshold, kept in decimal to avoid float drift.
		if h.amount.Mul(hundred).Cmp(total.Mul(threshold)) < 0 {
			continue
		}
		if best == "" {
			best = ent
			continue
		}
		switch bk[best].amount.Cmp(h.amount) {
		case -1:
			best = ent
		case 0:
			if ent < best {
				best = ent
			}
		}
	}
	return best, best != ""
}

// checkPeriodOverlap rejects inputs whose periods share no entity at all
// while a whole customer base appears in both periods. That shape cannot
// come from real purchase data and signals an upstream filter
// misconfiguration. A single customer moving between entities is a plain
// switch and classifies normally.
func checkPeriodOverlap(before, after map[string]basket) error {
	beforeEnts := entitySet(before)
	afterEnts := entitySet(after)
	if len(beforeEnts) == 0 || len(afterEnts) == 0 {
		return nil
	}
	for ent := range beforeEnts {
		if _, ok := afterEnts[ent]; ok {
			return nil
		}
	}
	if len(unionCustomers(before, after)) < 2 {
		return nil
	}
	for cust := range before {
		if _, ok := after[cust]; !ok {
			return nil // a lost candidate exists
		}
	}
	for cust := range after {
		if _, ok := before[cust]; !ok {
			return nil // a new candidate exists
		}
	}
	return fmt.Errorf("%w: periods share no entities and no new or lost customers; check upstream filters", ErrInvalidInput)
}

func entitySet(baskets map[string]basket) map[string]struct{} {
	ents := make(map[string]struct{})
	for _, bk := range baskets {
		for ent := range bk {
			ents[ent] = struct{}{}
		}
	}
	return ents
}

func unionCustomers(before, after map[string]basket) []string {
	seen := make(map[string]struct{}, len(before)+len(after))
	for cust := range before {
		seen[cust] = struct{}{}
	}
	for cust := range after {
		seen[cust] = struct{}{}
	}
	customers := make([]string, 0, len(seen))
	for cust := range seen {
		customers = append(customers, cust)
	}
	sort.Strings(customers)
	return customers
}

func summaryFor(summaries map[string]*model.SwitchSummary, ent string) *model.SwitchSummary {
	s, ok := summaries[ent]
	if !ok {
		s = &model.SwitchSummary{EntityID: ent}
		summaries[ent] = s
	}
	return s
}

func topSpendEntity(bk basket) string {
	best := ""
	for ent, h := range bk {
		if best == "" {
			best = ent
			continue
		}
		switch bk[best].amount.Cmp(h.amount) {
		case -1:
			best = ent
		case 0:
			if ent < best {
				best = ent
			}
		}
	}
	return best
}

func topSpendAmong(bk basket, candidates []string) string {
	best := ""
	for _, ent := range candidates {
		if best == "" {
			best = ent
			continue
		}
		switch bk[best].amount.Cmp(bk[ent].amount) {
		case -1:
			best = ent
		case 0:
			if ent < best {
				best = ent
			}
		}
	}
	return best
}

// finalizeSummaries computes derived fields, orders the list and applies the
// optional Top-N truncation.
func finalizeSummaries(summaries map[string]*model.SwitchSummary, topN int) []model.SwitchSummary {
	out := make([]model.SwitchSummary, 0, len(summaries))
	for _, s := range summaries {
		s.NetChange = s.AfterValue.Sub(s.BeforeValue)
		if total := s.TotalRelevantCustomers(); total > 0 {
			s.StayedPct = pct(s.StayedCount, total)
			s.SwitchedPct = pct(s.SwitchedInCount, total)
			s.NewPct = pct(s.NewCount, total)
			s.LostPct = pct(s.LostCount, total)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })

	if topN > 0 && topN < len(out) {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := out[i].MovementValue().Cmp(out[j].MovementValue())
			if cmp != 0 {
				return cmp > 0
			}
			return out[i].EntityID < out[j].EntityID
		})
		out = out[:topN]
	}
	return out
}

func finalizeFlows(flows map[[2]string]*model.FlowCell) []model.FlowCell {
	out := make([]model.FlowCell, 0, len(flows))
	for _, cell := range flows {
		out = append(out, *cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromEntity != out[j].FromEntity {
			return out[i].FromEntity < out[j].FromEntity
		}
		return out[i].ToEntity < out[j].ToEntity
	})
	return out
}

// pct rounds to one decimal place, matching the dashboard's display grain.
func pct(count, total int) float64 {
	return math.Round(float64(count)/float64(total)*1000) / 10
}
