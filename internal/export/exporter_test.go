package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/export"
)

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		Dimension: model.GroupBrand,
		Summaries: []model.SwitchSummary{
			{
				EntityID:        "NIVEA",
				BeforeCount:     10,
				AfterCount:      12,
				StayedCount:     8,
				SwitchedInCount: 2,
				NewCount:        2,
				LostCount:       2,
				NetChange:       decimal.NewFromFloat(150.5),
				StayedPct:       57.1,
				SwitchedPct:     14.3,
				NewPct:          14.3,
				LostPct:         14.3,
			},
			{
				EntityID:    "VASELINE",
				BeforeCount: 5,
				AfterCount:  4,
				StayedCount: 4,
				LostCount:   1,
				NetChange:   decimal.NewFromFloat(-30),
				StayedPct:   80.0,
				LostPct:     20.0,
			},
		},
		Flows: []model.FlowCell{
			{FromEntity: "VASELINE", ToEntity: "NIVEA", CustomerCount: 2, Value: decimal.NewFromInt(95)},
		},
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteSummaryCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Entity" || records[0][8] != "Net_Movement" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "NIVEA" || records[1][1] != "10" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[1][9] != "57.1" {
		t.Errorf("percentages must render with one decimal, got %q", records[1][9])
	}
	if records[2][8] != "-30" {
		t.Errorf("unexpected net movement: %q", records[2][8])
	}
}

func TestWriteFlowsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteFlowsCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(records))
	}
	want := []string{"VASELINE", "NIVEA", "2", "95"}
	for i, cell := range want {
		if records[1][i] != cell {
			t.Errorf("column %d: got %q, want %q", i, records[1][i], cell)
		}
	}
}

func TestWriteExcelSheets(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Movement Summary", "Detailed Flow", "Movement Types"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	entity, err := f.GetCellValue("Movement Summary", "A2")
	if err != nil {
		t.Fatalf("read cell failed: %v", err)
	}
	if entity != "NIVEA" {
		t.Errorf("expected NIVEA in first data row, got %q", entity)
	}

	moveType, err := f.GetCellValue("Movement Types", "A2")
	if err != nil {
		t.Fatalf("read cell failed: %v", err)
	}
	if moveType != string(model.MoveStayed) {
		t.Errorf("expected stayed total first, got %q", moveType)
	}
}
