package tables

import (
	"strings"

	"github.com/tsawler/finsight/model"
)

// typeRule maps trigger keywords to a table type. Rules are evaluated in
// fixed priority order against the table text and its context; the first
// rule with any matching keyword wins.
type typeRule struct {
	Type     model.TableType
	Keywords []string
}

// typeRules is the classification dispatch table. Order matters: RATIOS
// outranks P&L so a coverage-ratio table mentioning "profit" still
// classifies as RATIOS.
var typeRules = []typeRule{
	{model.TableRatios, []string{"ratio", "coverage", "debt service", "icr"}},
	{model.TableNDCF, []string{"ndcf", "net distributable cash flow"}},
	{model.TableDistribution, []string{"distribution", "per unit", "dpu"}},
	{model.TableProfitLoss, []string{"profit", "loss", "revenue", "income", "expense"}},
	{model.TableBalanceSheet, []string{"assets", "liabilities", "equity"}},
}

// ClassifyGrid infers a table's type from its cell text and the context
// lines above it. Returns the empty type when no rule matches.
func ClassifyGrid(grid [][]string, contextAbove []string) model.TableType {
	var sb strings.Builder
	for _, line := range contextAbove {
		sb.WriteString(line)
		sb.WriteString(" ")
	}
	for _, row := range grid {
		sb.WriteString(strings.Join(row, " "))
		sb.WriteString(" ")
	}
	return ClassifyText(sb.String())
}

// ClassifyText runs the keyword rules against arbitrary text. It is also
// used by the financial answer pipeline to pick target table types from a
// question.
func ClassifyText(text string) model.TableType {
	lower := strings.ToLower(text)
	for _, rule := range typeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return ""
}

// ClassifyTextAll returns every table type whose keywords appear in the
// text, in rule priority order. Unlike ClassifyText it does not stop at the
// first match; a question can target several table types at once.
func ClassifyTextAll(text string) []model.TableType {
	lower := strings.ToLower(text)
	var types []model.TableType
	for _, rule := range typeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				types = append(types, rule.Type)
				break
			}
		}
	}
	return types
}

// unitRule maps marker substrings to a canonical unit label.
type unitRule struct {
	Unit    string
	Markers []string
}

// unitRules follow the disclosure conventions of the source corpus: scaled
// rupee units first so "₹ crore" wins over the bare currency fallback.
var unitRules = []unitRule{
	{"₹ millions", []string{"₹ million", "inr million", "rs. million"}},
	{"₹ lakhs", []string{"₹ lakh", "inr lakh", "rs. lakh"}},
	{"₹ crores", []string{"₹ crore", "inr crore", "rs. crore"}},
	{"%", []string{"%", "percent", "percentage"}},
	{"times", []string{"times", " x "}},
	{"INR", []string{"₹", "inr", "rs."}},
}

// DetectUnit scans grid and context text for a currency, percentage or
// multiplier marker and returns the first canonical unit found, or "".
func DetectUnit(grid [][]string, contextAbove []string) string {
	var sb strings.Builder
	for _, line := range contextAbove {
		sb.WriteString(line)
		sb.WriteString(" ")
	}
	for _, row := range grid {
		sb.WriteString(strings.Join(row, " "))
		sb.WriteString(" ")
	}
	lower := strings.ToLower(sb.String())

	for _, rule := range unitRules {
		for _, marker := range rule.Markers {
			if strings.Contains(lower, marker) {
				return rule.Unit
			}
		}
	}
	return ""
}

// periodKeywords flag header cells that look like reporting periods.
var periodKeywords = []string{"quarter", "year", "month", "fy", "ended", "202"}

// ExtractPeriods returns the header cells that look like reporting period
// labels, preserving column order.
func ExtractPeriods(headerRow []string) []string {
	var periods []string
	for _, cell := range headerRow {
		lower := strings.ToLower(cell)
		for _, kw := range periodKeywords {
			if strings.Contains(lower, kw) {
				periods = append(periods, cell)
				break
			}
		}
	}
	return periods
}
