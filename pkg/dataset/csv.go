package dataset

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"churn-rfm/pkg/models"
)

// Tokens read as missing values, same set pandas uses by default.
var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"-1.#IND": {}, "-1.#QNAN": {}, "1.#IND": {}, "1.#QNAN": {},
}

// IsMissing reports whether a raw CSV field is a missing-value token.
func IsMissing(field string) bool {
	_, ok := naValues[field]
	return ok
}

// ReadCSV decodes a comma-separated table with a header row. A record
// shorter than the header is padded with missing cells; a longer one is an
// error.
func ReadCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = append([]string(nil), header...)

	t, err := models.NewTable(header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		cells := make([]sql.NullString, len(header))
		for i, v := range rec {
			if !IsMissing(v) {
				cells[i] = models.Text(v)
			}
		}
		if err := t.AppendRow(cells); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return t, nil
}

// WriteCSV encodes the table with a header row; missing cells are empty fields.
func WriteCSV(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns()))
	for i := 0; i < t.Len(); i++ {
		for j, c := range t.Row(i) {
			rec[j] = c.String
			if !c.Valid {
				rec[j] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
