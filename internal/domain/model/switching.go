package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period identifies which comparison window a purchase record belongs to.
type Period string

const (
	PeriodBefore Period = "before"
	PeriodAfter  Period = "after"
)

// GroupingDimension selects the entity level the analysis runs on.
type GroupingDimension string

const (
	GroupProduct  GroupingDimension = "product"
	GroupBrand    GroupingDimension = "brand"
	GroupCategory GroupingDimension = "category"
	GroupCustom   GroupingDimension = "custom"
)

// Valid reports whether the dimension is one of the known analysis modes.
func (d GroupingDimension) Valid() bool {
	switch d {
	case GroupProduct, GroupBrand, GroupCategory, GroupCustom:
		return true
	}
	return false
}

// MoveCategory is the movement bucket a customer lands in for one entity.
type MoveCategory string

const (
	MoveStayed   MoveCategory = "stayed"
	MoveSwitched MoveCategory = "switched"
	MoveNew      MoveCategory = "new"
	MoveLost     MoveCategory = "lost"
)

// PeriodRecord is one (entity, customer) purchase aggregate for one period.
// A customer that bought nothing of an entity in a period has no record for
// it; absence is meaningful, a zero-amount row is not emitted.
type PeriodRecord struct {
	EntityID       string          `json:"entity_id"`
	CustomerID     string          `json:"customer_id"`
	Period         Period          `json:"period"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	PurchaseCount  int             `json:"purchase_count"`
}

// CustomerMovement is the drill-down row derived per (entity, customer) pair.
// BeforeEntity is set only for switched customers and names the entity the
// customer came from.
type CustomerMovement struct {
	EntityID     string          `json:"entity_id"`
	CustomerID   string          `json:"customer_id"`
	Category     MoveCategory    `json:"category"`
	BeforeAmount decimal.Decimal `json:"before_amount"`
	AfterAmount  decimal.Decimal `json:"after_amount"`
	BeforeEntity string          `json:"before_entity,omitempty"`
}

// SwitchSummary is the per-entity rollup of the classification.
//
// The four-bucket view (stayed, switched-in, new, lost) covers every customer
// relevant to the entity exactly once. Switched-out customers are attributed
// to the entity they moved to and appear here only through SwitchedOutCount /
// SwitchedOutValue, which exist to balance the before-period ledger:
//
//	StayedCount + SwitchedInCount + NewCount  == AfterCount
//	StayedCount + SwitchedOutCount + LostCount == BeforeCount
type SwitchSummary struct {
	EntityID string `json:"entity_id"`

	StayedCount      int `json:"stayed_count"`
	SwitchedInCount  int `json:"switched_in_count"`
	SwitchedOutCount int `json:"switched_out_count"`
	NewCount         int `json:"new_count"`
	LostCount        int `json:"lost_count"`

	StayedValue      decimal.Decimal `json:"stayed_value"`
	SwitchedInValue  decimal.Decimal `json:"switched_in_value"`
	SwitchedOutValue decimal.Decimal `json:"switched_out_value"`
	NewValue         decimal.Decimal `json:"new_value"`
	LostValue        decimal.Decimal `json:"lost_value"`

	BeforeCount int             `json:"before_count"`
	AfterCount  int             `json:"after_count"`
	BeforeValue decimal.Decimal `json:"before_value"`
	AfterValue  decimal.Decimal `json:"after_value"`
	NetChange   decimal.Decimal `json:"net_change"`

	StayedPct   float64 `json:"stayed_pct"`
	SwitchedPct float64 `json:"switched_pct"`
	NewPct      float64 `json:"new_pct"`
	LostPct     float64 `json:"lost_pct"`
}

// TotalRelevantCustomers is the customer universe behind the percentage
// columns: everyone the four-bucket view classified for this entity.
func (s *SwitchSummary) TotalRelevantCustomers() int {
	return s.StayedCount + s.SwitchedInCount + s.NewCount + s.LostCount
}

// MovementValue is the absolute monetary movement used for Top-N ordering.
func (s *SwitchSummary) MovementValue() decimal.Decimal {
	return s.StayedValue.Add(s.SwitchedInValue).Add(s.NewValue).Add(s.LostValue)
}

// FlowCell is one from-entity to to-entity edge of the switching flow matrix,
// feeding Sankey and heatmap style reporting.
type FlowCell struct {
	FromEntity    string          `json:"from_entity"`
	ToEntity      string          `json:"to_entity"`
	CustomerCount int             `json:"customer_count"`
	Value         decimal.Decimal `json:"value"`
}

// AnalysisResult is the full classifier output for one run.
type AnalysisResult struct {
	Dimension   GroupingDimension  `json:"dimension"`
	Summaries   []SwitchSummary    `json:"summaries"`
	Flows       []FlowCell         `json:"flows"`
	Movements   []CustomerMovement `json:"movements,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// WaterfallStep is one bar of the per-entity waterfall decomposition
// (before total, inflows, outflows, after total).
type WaterfallStep struct {
	Label   string          `json:"label"`
	Value   decimal.Decimal `json:"value"`
	Measure string          `json:"measure"` // absolute, relative or total
}
