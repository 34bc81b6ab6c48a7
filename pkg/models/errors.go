package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchemaMissingColumns = errors.New("dataset is missing required columns")
	ErrBinningOutOfRange    = errors.New("value outside bin edges")
	ErrFeatureShortfall     = errors.New("some model features are missing and will be excluded from prediction")
	ErrNoUsableFeatures     = errors.New("no valid features available for prediction")
	ErrDataQualityNull      = errors.New("data contains missing values, clean it before prediction")
	ErrPredictorUnavailable = errors.New("model failed to load")
)

// MissingColumnsError names the columns absent from a table. Kind is the
// sentinel it matches with errors.Is.
type MissingColumnsError struct {
	Kind    error
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return e.Kind }

// BinningError is a single raw value that could not be placed in a bin.
// Row is 0-based.
type BinningError struct {
	Column string
	Row    int
	Value  string
	Null   bool
}

func (e *BinningError) Error() string {
	if e.Null {
		return fmt.Sprintf("%s row %d: missing value", e.Column, e.Row)
	}
	return fmt.Sprintf("%s row %d: %q %v", e.Column, e.Row, e.Value, ErrBinningOutOfRange)
}

func (e *BinningError) Unwrap() error { return ErrBinningOutOfRange }

// BinningErrors collects every failed cell of a scoring pass.
type BinningErrors []*BinningError

const maxListedBinningErrors = 5

func (es BinningErrors) Error() string {
	parts := make([]string, 0, maxListedBinningErrors+1)
	for i, e := range es {
		if i == maxListedBinningErrors {
			parts = append(parts, fmt.Sprintf("and %d more", len(es)-i))
			break
		}
		parts = append(parts, e.Error())
	}
	return fmt.Sprintf("%d value(s) cannot be scored: %s", len(es), strings.Join(parts, "; "))
}

func (es BinningErrors) Is(target error) bool { return target == ErrBinningOutOfRange }

// NullValuesError lists the columns holding missing values, in table order.
type NullValuesError struct {
	Columns []string
	Counts  map[string]int
}

func (e *NullValuesError) Error() string {
	parts := make([]string, len(e.Columns))
	total := 0
	for i, c := range e.Columns {
		parts[i] = fmt.Sprintf("%s=%d", c, e.Counts[c])
		total += e.Counts[c]
	}
	return fmt.Sprintf("%v (%d missing: %s)", ErrDataQualityNull, total, strings.Join(parts, ", "))
}

func (e *NullValuesError) Unwrap() error { return ErrDataQualityNull }
