package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/model"
)

// Header is the CSV header of a postings file.
var Header = strings.Join(model.Schema, ",")

const (
	numFields    = 15
	colCard      = 0
	colDate      = 1
	colDesc      = 2
	colBRL       = 3
	colInstSeq   = 4
	colInstTot   = 5
	colOrig      = 6
	colCurrency  = 7
	colUSD       = 8
	colRate      = 9
	colIOF       = 10
	colCategory  = 11
	colCity      = 12
	colHash      = 13
	colPriorPaid = 14
)

// ReadPostings reads all postings from a postings CSV reader.
func ReadPostings(r io.Reader) ([]model.Posting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading postings CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var postings []model.Posting
	for i, rec := range records[1:] {
		p, err := UnmarshalPosting(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// WritePostings writes postings to w, header first.
func WritePostings(w io.Writer, postings []model.Posting) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(model.Schema); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, p := range postings {
		if err := cw.Write(MarshalPosting(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalPosting converts a Posting to a CSV row in schema order.
func MarshalPosting(p model.Posting) []string {
	return p.Record()
}

// UnmarshalPosting converts a CSV row to a Posting.
func UnmarshalPosting(record []string) (model.Posting, error) {
	if len(record) != numFields {
		return model.Posting{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	p := model.Posting{
		CardLast4:    record[colCard],
		PostDate:     record[colDate],
		Description:  record[colDesc],
		OrigCurrency: record[colCurrency],
		Category:     model.Category(record[colCategory]),
		MerchantCity: record[colCity],
		LedgerHash:   record[colHash],
	}

	var err error
	amounts := []struct {
		col  int
		name string
		dst  *decimal.NullDecimal
	}{
		{colBRL, "valor_brl", &p.AmountBRL},
		{colOrig, "valor_orig", &p.OrigAmount},
		{colUSD, "valor_usd", &p.AmountUSD},
		{colRate, "fx_rate", &p.FXRate},
		{colIOF, "iof_brl", &p.IOFBRL},
		{colPriorPaid, "pagamento_fatura_anterior", &p.PriorCyclePayment},
	}
	for _, a := range amounts {
		if *a.dst, err = parseAmount(record[a.col]); err != nil {
			return model.Posting{}, fmt.Errorf("parsing %s %q: %w", a.name, record[a.col], err)
		}
	}

	if p.InstallmentSeq, err = parseOptInt(record[colInstSeq]); err != nil {
		return model.Posting{}, fmt.Errorf("parsing installment_seq %q: %w", record[colInstSeq], err)
	}
	if p.InstallmentTot, err = parseOptInt(record[colInstTot]); err != nil {
		return model.Posting{}, fmt.Errorf("parsing installment_tot %q: %w", record[colInstTot], err)
	}

	return p, nil
}

func parseAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return model.Amount(d), nil
}

func parseOptInt(s string) (model.OptInt, error) {
	if s == "" {
		return model.OptInt{}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return model.OptInt{}, err
	}
	return model.Int(n), nil
}
