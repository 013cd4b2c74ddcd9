package customers

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

// RowProblem is a rejected import row. Row is 1-based and excludes the header.
type RowProblem struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ImportReport summarises an import.
type ImportReport struct {
	Imported []Customer   `json:"imported"`
	Rejected []RowProblem `json:"rejected"`
}

// ReadCSV reads customer records from CSV with a header row. Header names are
// matched case-insensitively, with spaces treated as underscores.
func ReadCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "reading csv header")
	}
	for i, h := range header {
		header[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	}

	var records []map[string]any
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, apperrors.Wrapf(err, "reading csv row %d", len(records)+1)
		}
		rec := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(fields) {
				rec[name] = fields[i]
			}
		}
		records = append(records, rec)
	}
}

// InputFromRecord converts a validated record to an insertable customer.
func InputFromRecord(rec map[string]any, userID string) CustomerInput {
	return CustomerInput{
		UserID:    userID,
		FirstName: strings.TrimSpace(str(rec["first_name"])),
		LastName:  strings.TrimSpace(str(rec["last_name"])),
		Phone:     strings.TrimSpace(str(rec["phone"])),
		Address:   strings.TrimSpace(str(rec["address"])),
		Latitude:  coordinate(rec["latitude"]),
		Longitude: coordinate(rec["longitude"]),
	}
}

// ImportRecords validates every record and inserts the valid ones in a single
// batch. Invalid rows are reported, not fatal. The error is the batch insert
// failure, if any.
func ImportRecords(ctx context.Context, store *Store, userID string, records []map[string]any) (ImportReport, error) {
	report := ImportReport{Imported: []Customer{}, Rejected: []RowProblem{}}

	var valid []CustomerInput
	for i, rec := range records {
		res := ValidateCustomerData(rec)
		if !res.IsValid {
			report.Rejected = append(report.Rejected, RowProblem{Row: i + 1, Errors: res.Errors})
			continue
		}
		valid = append(valid, InputFromRecord(rec, userID))
	}
	if len(valid) == 0 {
		return report, nil
	}

	created, err := store.BulkCreateCustomers(ctx, valid)
	if err != nil {
		return report, err
	}
	report.Imported = created
	return report, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func coordinate(v any) *float64 {
	f, ok := number(v)
	if !ok {
		return nil
	}
	return &f
}
