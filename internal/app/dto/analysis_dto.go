package dto

import (
	"fmt"
	"strings"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// MaxBarcodeMappings caps the custom grouping size a request may carry.
const MaxBarcodeMappings = 1000

// AnalysisRequestDTO is the wire form of an analysis request. The barcode
// mapping arrives as the dashboard's pasted text, one "barcode,label" line
// per entry (tabs accepted as separators).
type AnalysisRequestDTO struct {
	Dimension string `json:"dimension"`

	BeforeStart string `json:"before_start"`
	BeforeEnd   string `json:"before_end"`
	AfterStart  string `json:"after_start"`
	AfterEnd    string `json:"after_end"`

	Category            string   `json:"category"`
	Brands              []string `json:"brands,omitempty"`
	ProductNameContains string   `json:"product_name_contains,omitempty"`
	BarcodeMapping      string   `json:"barcode_mapping,omitempty"`

	StoreFilter        string `json:"store_filter,omitempty"`
	StoreOpeningCutoff string `json:"store_opening_cutoff,omitempty"`

	PrimaryThreshold *float64 `json:"primary_threshold,omitempty"`
	TopN             int      `json:"top_n,omitempty"`
	IncludeMovements bool     `json:"include_movements,omitempty"`

	SessionID string `json:"session_id,omitempty"`
}

// ToModel converts the DTO into the domain request, applying the configured
// default threshold when the request does not carry one.
func (d *AnalysisRequestDTO) ToModel(defaultThreshold float64) (model.AnalysisRequest, error) {
	mapping, err := ParseBarcodeMapping(d.BarcodeMapping)
	if err != nil {
		return model.AnalysisRequest{}, err
	}

	threshold := defaultThreshold
	if d.PrimaryThreshold != nil {
		threshold = *d.PrimaryThreshold
	}

	storeFilter := model.AllStores
	if strings.EqualFold(d.StoreFilter, string(model.SameStores)) {
		storeFilter = model.SameStores
	}

	return model.AnalysisRequest{
		Query: model.QuerySpec{
			Dimension:           model.GroupingDimension(strings.ToLower(d.Dimension)),
			BeforeStart:         d.BeforeStart,
			BeforeEnd:           d.BeforeEnd,
			AfterStart:          d.AfterStart,
			AfterEnd:            d.AfterEnd,
			Category:            d.Category,
			Brands:              d.Brands,
			ProductNameContains: splitKeywords(d.ProductNameContains),
			BarcodeMapping:      mapping,
			StoreFilter:         storeFilter,
			StoreOpeningCutoff:  d.StoreOpeningCutoff,
		},
		PrimaryThreshold: threshold,
		TopN:             d.TopN,
		IncludeMovements: d.IncludeMovements,
	}, nil
}

// ParseBarcodeMapping parses the pasted "barcode,label" lines of the custom
// analysis mode. Blank lines are skipped; a non-blank line that does not
// split into two fields is an error.
func ParseBarcodeMapping(text string) ([]model.BarcodeLabel, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var mapping []model.BarcodeLabel
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(strings.ReplaceAll(line, "\t", ","), ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("barcode mapping line %d: expected \"barcode,label\"", i+1)
		}
		barcode := strings.TrimSpace(parts[0])
		label := strings.TrimSpace(parts[1])
		if barcode == "" || label == "" {
			return nil, fmt.Errorf("barcode mapping line %d: empty barcode or label", i+1)
		}
		mapping = append(mapping, model.BarcodeLabel{Barcode: barcode, Label: label})
	}
	if len(mapping) > MaxBarcodeMappings {
		return nil, fmt.Errorf("too many barcode mappings (%d), maximum is %d", len(mapping), MaxBarcodeMappings)
	}
	return mapping, nil
}

func splitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var keywords []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
