// Package enricher runs the churn predictor over the reconciled features and
// merges the labels into the scored table.
package enricher

import (
	"database/sql"
	"fmt"

	"churn-rfm/pkg/models"
	"churn-rfm/pkg/predictor"
)

// CheckNulls fails with a *models.NullValuesError if any cell of the table is
// missing, including cells in columns the predictor never reads.
func CheckNulls(t *models.Table) error {
	cols, counts := t.NullCounts()
	if len(cols) == 0 {
		return nil
	}
	return &models.NullValuesError{Columns: cols, Counts: counts}
}

// Enrich predicts every row from the available feature columns, in the given
// order, and appends the labels as "Churn Prediction". On any error the
// table is left unmodified and the predictor may not have been called.
func Enrich(t *models.Table, p predictor.Predictor, available []string) error {
	if p == nil {
		return models.ErrPredictorUnavailable
	}
	if err := CheckNulls(t); err != nil {
		return err
	}
	if len(available) == 0 {
		return models.ErrNoUsableFeatures
	}
	frame, err := t.Select(available...)
	if err != nil {
		return err
	}
	labels, err := p.Predict(frame)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	if len(labels) != t.Len() {
		return fmt.Errorf("predict: got %d labels for %d rows", len(labels), t.Len())
	}
	col := make([]sql.NullString, len(labels))
	for i, l := range labels {
		col[i] = models.Text(l)
	}
	return t.SetColumn(models.ColChurnPrediction, col)
}

// Summary is the consumer view: Churn Prediction, RFM_Score and
// Customer_Segment, row-aligned with t.
func Summary(t *models.Table) (*models.Table, error) {
	return t.Select(models.SummaryColumns...)
}
