// Package features aligns a table's columns with the feature contract of a
// predictor.
package features

import (
	"churn-rfm/pkg/models"
)

// Reconciliation is the outcome of intersecting declared features with the
// columns of a table. Both lists follow the declared order.
type Reconciliation struct {
	Available []string
	Missing   []string
}

// Shortfall returns a non-fatal warning naming the missing features, or nil.
func (r Reconciliation) Shortfall() error {
	if len(r.Missing) == 0 {
		return nil
	}
	return &models.MissingColumnsError{Kind: models.ErrFeatureShortfall, Columns: r.Missing}
}

// Reconcile computes the declared features present in schema. It returns
// models.ErrNoUsableFeatures when none are.
func Reconcile(schema models.ColumnSet, expected []string) (Reconciliation, error) {
	var rec Reconciliation
	seen := make(map[string]struct{}, len(expected))
	for _, f := range expected {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if schema.Contains(f) {
			rec.Available = append(rec.Available, f)
		} else {
			rec.Missing = append(rec.Missing, f)
		}
	}
	if len(rec.Available) == 0 {
		return rec, models.ErrNoUsableFeatures
	}
	return rec, nil
}
