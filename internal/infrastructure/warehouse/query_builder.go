// Package warehouse implements the period fetcher against ClickHouse and the
// typed query builder that translates an analysis QuerySpec into SQL. The
// classifier stays decoupled from any query string; this adapter owns the
// dialect.
package warehouse

import (
	"fmt"
	"strings"
	"time"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

const dateLayout = "2006-01-02"

// BuildSwitchingSQL renders the two-period purchase aggregation for a query
// spec. The result has one row per (period, customer, entity) with summed
// sales and distinct receipt counts; all classification happens in Go.
func BuildSwitchingSQL(spec model.QuerySpec) (string, error) {
	for _, d := range []string{spec.BeforeStart, spec.BeforeEnd, spec.AfterStart, spec.AfterEnd} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return "", fmt.Errorf("bad period date %q: %w", d, err)
		}
	}

	var filters []string
	filters = append(filters, fmt.Sprintf("pm.CategoryName = '%s'", escape(spec.Category)))

	if len(spec.Brands) > 0 {
		quoted := make([]string, len(spec.Brands))
		for i, b := range spec.Brands {
			quoted[i] = fmt.Sprintf("'%s'", escape(b))
		}
		filters = append(filters, fmt.Sprintf("pm.Brand IN (%s)", strings.Join(quoted, ", ")))
	}

	if keywords := nonEmpty(spec.ProductNameContains); len(keywords) > 0 {
		likes := make([]string, len(keywords))
		for i, kw := range keywords {
			likes[i] = fmt.Sprintf("pm.ProductName LIKE '%%%s%%'", escape(kw))
		}
		filters = append(filters, "("+strings.Join(likes, " OR ")+")")
	}

	if spec.StoreFilter == model.SameStores && spec.StoreOpeningCutoff != "" {
		if _, err := time.Parse(dateLayout, spec.StoreOpeningCutoff); err != nil {
			return "", fmt.Errorf("bad store opening cutoff %q: %w", spec.StoreOpeningCutoff, err)
		}
		filters = append(filters, fmt.Sprintf("br.OpeningDate <= toDate('%s')", spec.StoreOpeningCutoff))
	}

	// Walk-in pseudo customer code carries no identity and would dominate
	// every movement bucket.
	filters = append(filters, "a.CustomerCode != '0'")

	sql := fmt.Sprintf(`
SELECT
    period,
    customer_id,
    entity_id,
    SUM(total_sales) AS purchase_amount,
    uniqExact(doc_no) AS purchase_count
FROM (
    SELECT
        multiIf(
            a.Date BETWEEN toDate('%s') AND toDate('%s'), 'before',
            a.Date BETWEEN toDate('%s') AND toDate('%s'), 'after',
            '') AS period,
        a.CustomerCode AS customer_id,
        a.DocNo AS doc_no,
        coalesce(a.TotalSales, 0) AS total_sales,
        %s AS entity_id
    FROM sales a
    JOIN product_master pm ON a.Barcode = pm.Barcode
    JOIN branch br ON a.BranchCode = br.BranchCode
    WHERE %s
)
WHERE period != ''
GROUP BY period, customer_id, entity_id`,
		spec.BeforeStart, spec.BeforeEnd,
		spec.AfterStart, spec.AfterEnd,
		targetExpression(spec),
		strings.Join(filters, "\n      AND "),
	)
	return sql, nil
}

// targetExpression picks the column (or CASE mapping) that becomes the
// entity id for the requested grouping dimension.
func targetExpression(spec model.QuerySpec) string {
	switch spec.Dimension {
	case model.GroupProduct:
		return "pm.ProductName"
	case model.GroupCategory:
		return "pm.CategoryName"
	case model.GroupCustom:
		if expr := buildCaseExpression(spec.BarcodeMapping); expr != "" {
			return expr
		}
		return "pm.Brand"
	default:
		return "pm.Brand"
	}
}

// buildCaseExpression renders the custom barcode grouping as a CASE
// expression. Unmapped barcodes group under "Other". Returns "" when the
// mapping has no usable entries.
func buildCaseExpression(mapping []model.BarcodeLabel) string {
	var arms []string
	for _, m := range mapping {
		barcode := strings.TrimSpace(m.Barcode)
		label := strings.TrimSpace(m.Label)
		if barcode == "" || label == "" {
			continue
		}
		arms = append(arms, fmt.Sprintf("WHEN a.Barcode = '%s' THEN '%s'", escape(barcode), escape(label)))
	}
	if len(arms) == 0 {
		return ""
	}
	return "CASE " + strings.Join(arms, " ") + " ELSE 'Other' END"
}

// escape quotes a string literal for ClickHouse.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
