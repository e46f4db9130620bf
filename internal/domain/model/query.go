package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// StoreFilter selects which branches participate in the analysis.
type StoreFilter string

const (
	AllStores  StoreFilter = "all"
	SameStores StoreFilter = "same" // only branches open before the cutoff
)

// BarcodeLabel maps one barcode to a custom grouping label for the custom
// analysis mode.
type BarcodeLabel struct {
	Barcode string `json:"barcode"`
	Label   string `json:"label"`
}

// QuerySpec is the typed description of one warehouse query: grouping
// dimension, filters and the two date windows. A warehouse adapter translates
// it to its own query language; the classifier never sees SQL.
type QuerySpec struct {
	Dimension GroupingDimension `json:"dimension"`

	// Date windows, YYYY-MM-DD inclusive.
	BeforeStart string `json:"before_start"`
	BeforeEnd   string `json:"before_end"`
	AfterStart  string `json:"after_start"`
	AfterEnd    string `json:"after_end"`

	Category string   `json:"category"`
	Brands   []string `json:"brands,omitempty"`

	// ProductNameContains keeps only products whose name matches any of the
	// keywords.
	ProductNameContains []string `json:"product_name_contains,omitempty"`

	// BarcodeMapping defines the entity labels for the custom dimension.
	// Barcodes outside the mapping group under "Other".
	BarcodeMapping []BarcodeLabel `json:"barcode_mapping,omitempty"`

	StoreFilter        StoreFilter `json:"store_filter,omitempty"`
	StoreOpeningCutoff string      `json:"store_opening_cutoff,omitempty"`
}

// AnalysisRequest bundles the warehouse query with the classifier knobs for
// one analysis run. It is request-scoped; nothing about it is ambient state.
type AnalysisRequest struct {
	Query QuerySpec `json:"query"`

	// PrimaryThreshold is the dominant-entity threshold in percent (0-100).
	PrimaryThreshold float64 `json:"primary_threshold"`

	// TopN truncates the summary to the N biggest movers; zero reports all.
	TopN int `json:"top_n,omitempty"`

	IncludeMovements bool `json:"include_movements,omitempty"`
}

// Fingerprint returns a stable key for the request, used to cache results of
// identical analysis runs.
func (r AnalysisRequest) Fingerprint() string {
	raw, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
