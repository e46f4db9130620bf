package dto_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/YodaWagyu/everything-switching/internal/app/dto"
	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

func TestParseBarcodeMapping(t *testing.T) {
	text := "8850001,Hero SKU\n\n8850002\tChallenger\n  8850003 , Spaced  \n"

	mapping, err := dto.ParseBarcodeMapping(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(mapping) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(mapping))
	}
	want := []model.BarcodeLabel{
		{Barcode: "8850001", Label: "Hero SKU"},
		{Barcode: "8850002", Label: "Challenger"},
		{Barcode: "8850003", Label: "Spaced"},
	}
	for i, m := range mapping {
		if m != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, m, want[i])
		}
	}
}

func TestParseBarcodeMappingErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"missing separator", "8850001 Hero SKU"},
		{"empty label", "8850001,"},
		{"empty barcode", ",Hero SKU"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := dto.ParseBarcodeMapping(tc.text); err == nil {
				t.Fatalf("expected error for %q", tc.text)
			}
		})
	}

	if mapping, err := dto.ParseBarcodeMapping("   \n  "); err != nil || mapping != nil {
		t.Errorf("blank text should parse to nil, got %v, %v", mapping, err)
	}
}

func TestParseBarcodeMappingEnforcesLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i <= dto.MaxBarcodeMappings; i++ {
		fmt.Fprintf(&sb, "%07d,Group %d\n", i, i%5)
	}

	if _, err := dto.ParseBarcodeMapping(sb.String()); err == nil {
		t.Fatal("expected error above the mapping limit")
	}
}

func TestToModelDefaultsAndNormalization(t *testing.T) {
	d := &dto.AnalysisRequestDTO{
		Dimension:           "Brand",
		BeforeStart:         "2025-01-01",
		BeforeEnd:           "2025-03-31",
		AfterStart:          "2025-04-01",
		AfterEnd:            "2025-06-30",
		Category:            "DEO ROLL ON",
		ProductNameContains: "ROLL, SPRAY ,",
		StoreFilter:         "SAME",
	}

	req, err := d.ToModel(60)
	if err != nil {
		t.Fatalf("to model failed: %v", err)
	}
	if req.Query.Dimension != model.GroupBrand {
		t.Errorf("dimension not normalized: %s", req.Query.Dimension)
	}
	if req.PrimaryThreshold != 60 {
		t.Errorf("expected default threshold 60, got %f", req.PrimaryThreshold)
	}
	if req.Query.StoreFilter != model.SameStores {
		t.Errorf("store filter not normalized: %s", req.Query.StoreFilter)
	}
	if len(req.Query.ProductNameContains) != 2 {
		t.Errorf("keywords not split: %v", req.Query.ProductNameContains)
	}

	zero := 0.0
	d.PrimaryThreshold = &zero
	req, err = d.ToModel(60)
	if err != nil {
		t.Fatalf("to model failed: %v", err)
	}
	if req.PrimaryThreshold != 0 {
		t.Errorf("explicit zero threshold must win over the default, got %f", req.PrimaryThreshold)
	}
}
