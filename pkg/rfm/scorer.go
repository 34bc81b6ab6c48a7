// Package rfm buckets recency, frequency and monetary columns into ordinal
// scores and derives the composite score and customer segment.
package rfm

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"churn-rfm/pkg/models"
)

// Bins maps a raw column onto labels. Intervals are right-closed and the
// lowest edge is inclusive: [e0,e1], (e1,e2], ... Labels[i] belongs to the
// i-th interval in ascending value order.
type Bins struct {
	Column string
	Edges  []float64
	Labels []int
}

// Labels are assigned positionally over ascending bins for all three
// components, so a higher OrderCount or CashbackAmount gets a lower score.
var scoreLabels = []int{4, 3, 2, 1}

var (
	Recency   = Bins{Column: models.ColDaySinceLastOrder, Edges: []float64{-1, 7, 14, 30, 31}, Labels: scoreLabels}
	Frequency = Bins{Column: models.ColOrderCount, Edges: []float64{0, 3, 7, 12, 16}, Labels: scoreLabels}
	Monetary  = Bins{Column: models.ColCashbackAmount, Edges: []float64{0, 50, 150, 250, 325}, Labels: scoreLabels}
)

const (
	MinScore = 3
	MaxScore = 12
)

func (b Bins) validate() error {
	if len(b.Edges) < 2 || len(b.Labels) != len(b.Edges)-1 {
		return fmt.Errorf("bins %s: %d edges for %d labels", b.Column, len(b.Edges), len(b.Labels))
	}
	for i := 1; i < len(b.Edges); i++ {
		if !(b.Edges[i] > b.Edges[i-1]) {
			return fmt.Errorf("bins %s: edges must increase", b.Column)
		}
	}
	return nil
}

// Assign returns the label of the interval holding v. ok is false when v
// falls outside every interval (or is NaN).
func (b Bins) Assign(v float64) (label int, ok bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	for i, lab := range b.Labels {
		lo, hi := b.Edges[i], b.Edges[i+1]
		if (v > lo || (i == 0 && v == lo)) && v <= hi {
			return lab, true
		}
	}
	return 0, false
}

// Segment maps a composite score onto its label, top-down, first match wins.
func Segment(score int) models.Segment {
	switch {
	case score >= 10:
		return models.SegmentBest
	case score >= 8:
		return models.SegmentLoyal
	case score >= 6:
		return models.SegmentPotentialLoyalist
	case score >= 4:
		return models.SegmentAtRisk
	default:
		return models.SegmentChurned
	}
}

// Scorer holds the bins used for the three components.
type Scorer struct {
	Recency, Frequency, Monetary Bins
}

// Default uses the production bin edges.
func Default() Scorer {
	return Scorer{Recency: Recency, Frequency: Frequency, Monetary: Monetary}
}

// Score adds R_Score, F_Score, M_Score, RFM_Score and Customer_Segment.
//
// It is all-or-nothing: when a required column is absent it returns a
// *models.MissingColumnsError, when any value cannot be binned it returns
// models.BinningErrors; in both cases t is left unmodified.
func Score(t *models.Table) error { return Default().Score(t) }

func (s Scorer) Score(t *models.Table) error {
	comps := []Bins{s.Recency, s.Frequency, s.Monetary}
	required := make([]string, len(comps))
	for i, b := range comps {
		if err := b.validate(); err != nil {
			return err
		}
		required[i] = b.Column
	}
	if missing := t.Missing(required...); len(missing) > 0 {
		return &models.MissingColumnsError{Kind: models.ErrSchemaMissingColumns, Columns: missing}
	}

	n := t.Len()
	scores := make([][]int, len(comps))
	var failed models.BinningErrors
	for k, b := range comps {
		raw, _ := t.Column(b.Column)
		scores[k] = make([]int, n)
		for i, cell := range raw {
			lab, err := assignCell(b, i, cell)
			if err != nil {
				failed = append(failed, err)
				continue
			}
			scores[k][i] = lab
		}
	}
	if len(failed) > 0 {
		return failed
	}

	out := map[string][]sql.NullString{
		models.ColRScore:          make([]sql.NullString, n),
		models.ColFScore:          make([]sql.NullString, n),
		models.ColMScore:          make([]sql.NullString, n),
		models.ColRFMScore:        make([]sql.NullString, n),
		models.ColCustomerSegment: make([]sql.NullString, n),
	}
	for i := 0; i < n; i++ {
		r, f, m := scores[0][i], scores[1][i], scores[2][i]
		total := r + f + m
		out[models.ColRScore][i] = models.Text(strconv.Itoa(r))
		out[models.ColFScore][i] = models.Text(strconv.Itoa(f))
		out[models.ColMScore][i] = models.Text(strconv.Itoa(m))
		out[models.ColRFMScore][i] = models.Text(strconv.Itoa(total))
		out[models.ColCustomerSegment][i] = models.Text(string(Segment(total)))
	}
	for _, col := range []string{models.ColRScore, models.ColFScore, models.ColMScore, models.ColRFMScore, models.ColCustomerSegment} {
		if err := t.SetColumn(col, out[col]); err != nil {
			return err
		}
	}
	return nil
}

func assignCell(b Bins, row int, cell sql.NullString) (int, *models.BinningError) {
	if !cell.Valid {
		return 0, &models.BinningError{Column: b.Column, Row: row, Null: true}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell.String), 64)
	if err != nil {
		return 0, &models.BinningError{Column: b.Column, Row: row, Value: cell.String}
	}
	lab, ok := b.Assign(v)
	if !ok {
		return 0, &models.BinningError{Column: b.Column, Row: row, Value: cell.String}
	}
	return lab, nil
}
