// Package export serializes analysis results into the tabular download
// formats offered by the dashboard. Column order and header names live here;
// they are a presentation concern, not part of the classifier contract.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

const (
	sheetSummary = "Movement Summary"
	sheetFlows   = "Detailed Flow"
	sheetTypes   = "Movement Types"
)

var summaryHeader = []string{
	"Entity", "Before_Total", "Stayed", "Switch_Out", "Gone",
	"Switch_In", "New_Customer", "After_Total", "Net_Movement",
	"Stayed_%", "Switch_%", "New_%", "Gone_%",
}

var flowHeader = []string{"From", "To", "Customers", "Value"}

// WriteExcel renders the result as a three-sheet workbook: the per-entity
// movement summary, the detailed switching flows and the movement-type
// totals.
func WriteExcel(w io.Writer, result *model.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	if err := writeRow(f, sheetSummary, 1, toAny(summaryHeader)); err != nil {
		return err
	}
	for i, s := range result.Summaries {
		row := []any{
			s.EntityID, s.BeforeCount, s.StayedCount, s.SwitchedOutCount, s.LostCount,
			s.SwitchedInCount, s.NewCount, s.AfterCount, s.NetChange.InexactFloat64(),
			s.StayedPct, s.SwitchedPct, s.NewPct, s.LostPct,
		}
		if err := writeRow(f, sheetSummary, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetFlows); err != nil {
		return err
	}
	if err := writeRow(f, sheetFlows, 1, toAny(flowHeader)); err != nil {
		return err
	}
	for i, c := range result.Flows {
		row := []any{c.FromEntity, c.ToEntity, c.CustomerCount, c.Value.InexactFloat64()}
		if err := writeRow(f, sheetFlows, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetTypes); err != nil {
		return err
	}
	if err := writeRow(f, sheetTypes, 1, []any{"Move_Type", "Customers"}); err != nil {
		return err
	}
	var stayed, switched, newCust, lost int
	for _, s := range result.Summaries {
		stayed += s.StayedCount
		switched += s.SwitchedInCount
		newCust += s.NewCount
		lost += s.LostCount
	}
	typeRows := [][]any{
		{string(model.MoveStayed), stayed},
		{string(model.MoveSwitched), switched},
		{string(model.MoveNew), newCust},
		{string(model.MoveLost), lost},
	}
	for i, row := range typeRows {
		if err := writeRow(f, sheetTypes, i+2, row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// WriteSummaryCSV renders the per-entity summary as CSV.
func WriteSummaryCSV(w io.Writer, result *model.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, s := range result.Summaries {
		rec := []string{
			s.EntityID,
			strconv.Itoa(s.BeforeCount),
			strconv.Itoa(s.StayedCount),
			strconv.Itoa(s.SwitchedOutCount),
			strconv.Itoa(s.LostCount),
			strconv.Itoa(s.SwitchedInCount),
			strconv.Itoa(s.NewCount),
			strconv.Itoa(s.AfterCount),
			s.NetChange.String(),
			formatPct(s.StayedPct),
			formatPct(s.SwitchedPct),
			formatPct(s.NewPct),
			formatPct(s.LostPct),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFlowsCSV renders the switching flow matrix as CSV.
func WriteFlowsCSV(w io.Writer, result *model.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(flowHeader); err != nil {
		return err
	}
	for _, c := range result.Flows {
		rec := []string{c.FromEntity, c.ToEntity, strconv.Itoa(c.CustomerCount), c.Value.String()}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
