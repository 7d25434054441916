// Package export writes a statement's postings and checks to an XLSX workbook.
package export

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/fatura/internal/model"
	"github.com/cleared-dev/fatura/internal/reconcile"
	"github.com/cleared-dev/fatura/internal/scanner"
)

// Sheet names.
const (
	SheetPostings = "Lançamentos"
	SheetChecks   = "Conferência"
	SheetSummary  = "Resumo"
)

// numFmtAmount is the built-in "#,##0.00" format.
const numFmtAmount = 4

// amountColumns are the schema columns rendered as numbers with two decimals.
var amountColumns = map[string]bool{
	"valor_brl":                 true,
	"valor_orig":                true,
	"valor_usd":                 true,
	"iof_brl":                   true,
	"pagamento_fatura_anterior": true,
}

// numericColumns are rendered as plain numbers.
var numericColumns = map[string]bool{
	"installment_seq": true,
	"installment_tot": true,
	"fx_rate":         true,
}

// Report is everything written for one statement.
type Report struct {
	Postings []model.Posting
	Verdicts []reconcile.Verdict
	Stats    scanner.Stats
	Summary  reconcile.Summary

	Generator string // workbook creator property
}

// WriteWorkbook saves r as an XLSX file at path.
func WriteWorkbook(path string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPostings); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if r.Generator != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Creator: r.Generator}); err != nil {
			return fmt.Errorf("setting document properties: %w", err)
		}
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return fmt.Errorf("creating amount style: %w", err)
	}

	if err := writePostings(f, r.Postings, amountStyle); err != nil {
		return err
	}
	if err := writeChecks(f, r.Verdicts); err != nil {
		return err
	}
	if err := writeSummary(f, r.Stats, r.Summary, amountStyle); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writePostings(f *excelize.File, postings []model.Posting, amountStyle int) error {
	if err := setRow(f, SheetPostings, 1, toRow(model.Schema)); err != nil {
		return err
	}
	for i, p := range postings {
		row := make([]any, len(model.Schema))
		for c, name := range model.Schema {
			row[c] = cellValue(name, p.Field(name))
		}
		if err := setRow(f, SheetPostings, i+2, row); err != nil {
			return err
		}
	}

	for c, name := range model.Schema {
		if !amountColumns[name] || len(postings) == 0 {
			continue
		}
		top, err := excelize.CoordinatesToCellName(c+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(c+1, len(postings)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetPostings, top, bottom, amountStyle); err != nil {
			return fmt.Errorf("styling %s: %w", name, err)
		}
	}
	return f.SetPanes(SheetPostings, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeChecks(f *excelize.File, verdicts []reconcile.Verdict) error {
	if _, err := f.NewSheet(SheetChecks); err != nil {
		return fmt.Errorf("creating sheet %s: %w", SheetChecks, err)
	}
	if err := setRow(f, SheetChecks, 1, []any{"metrica", "referencia", "calculado", "diferenca", "ok"}); err != nil {
		return err
	}
	for i, v := range verdicts {
		diff := ""
		if v.Numeric {
			diff = v.Diff.StringFixed(2)
		}
		computed := v.Computed.String()
		if !v.Found {
			computed = ""
		}
		ok := "não"
		if v.Match {
			ok = "sim"
		}
		row := []any{v.Name, v.Reference.String(), computed, diff, ok}
		if err := setRow(f, SheetChecks, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, st scanner.Stats, sum reconcile.Summary, amountStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("creating sheet %s: %w", SheetSummary, err)
	}
	rows := [][]any{
		{"linhas", st.Lines},
		{"lançamentos", st.Postings},
		{"fx", st.FX},
		{"pagamentos", st.Payments},
		{"domésticos", st.Domestic},
		{"iof", st.IOF},
		{"encargos", st.Charges},
		{"cabeçalhos", st.Headers},
		{"em branco", st.Blank},
		{"não reconhecidas", st.Misses},
		{"fx duplicados", st.FXDuplicates},
		{"parcelas rejeitadas", st.RejectedInstallments},
		{"descartados", st.Dropped},
		{"acurácia", st.Accuracy()},
	}
	cats := make([]string, 0, len(st.Categories))
	for c := range st.Categories {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		rows = append(rows, []any{"categoria " + c, st.Categories[model.Category(c)]})
	}

	amounts := [][]any{
		{"débitos", number(sum.Debits.StringFixed(2))},
		{"créditos", number(sum.Credits.StringFixed(2))},
		{"líquido", number(sum.Net.StringFixed(2))},
	}
	for i, r := range append(rows, amounts...) {
		if err := setRow(f, SheetSummary, i+1, r); err != nil {
			return err
		}
	}

	first, err := excelize.CoordinatesToCellName(2, len(rows)+1)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(2, len(rows)+len(amounts))
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetSummary, first, last, amountStyle)
}

// number is the exact decimal text of a numeric cell. It is stored as a
// number without going through float64.
type number string

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if n, ok := v.(number); ok {
			err = f.SetCellDefault(sheet, cell, string(n))
		} else {
			err = f.SetCellValue(sheet, cell, v)
		}
		if err != nil {
			return fmt.Errorf("writing %s %s: %w", sheet, cell, err)
		}
	}
	return nil
}

// cellValue turns a schema field into a cell: amounts and counts become
// numbers, everything else stays text.
func cellValue(name, s string) any {
	if s == "" || (!amountColumns[name] && !numericColumns[name]) {
		return s
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return s
	}
	return number(s)
}

func toRow(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
