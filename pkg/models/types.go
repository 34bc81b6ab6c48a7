package models

import (
	"errors"

	"github.com/google/uuid"
)

/*
COLONNES → noms lus et écrits par le pipeline.
*/

const (
	ColDaySinceLastOrder    = "DaySinceLastOrder"
	ColOrderCount           = "OrderCount"
	ColCashbackAmount       = "CashbackAmount"
	ColPreferredLoginDevice = "PreferredLoginDevice"
	ColPreferredPaymentMode = "PreferredPaymentMode"

	ColRScore          = "R_Score"
	ColFScore          = "F_Score"
	ColMScore          = "M_Score"
	ColRFMScore        = "RFM_Score"
	ColCustomerSegment = "Customer_Segment"
	ColChurnPrediction = "Churn Prediction"
)

// RFMInputColumns are required by the scorer.
var RFMInputColumns = []string{ColDaySinceLastOrder, ColOrderCount, ColCashbackAmount}

// SummaryColumns is the combined view handed to consumers after prediction.
var SummaryColumns = []string{ColChurnPrediction, ColRFMScore, ColCustomerSegment}

/*
SEGMENTS → libellés ordonnés, dérivés de RFM_Score.
*/

// Segment is a coarse label summarizing a customer's RFM standing.
type Segment string

const (
	SegmentBest              Segment = "Best Customers"
	SegmentLoyal             Segment = "Loyal Customers"
	SegmentPotentialLoyalist Segment = "Potential Loyalists"
	SegmentAtRisk            Segment = "At Risk"
	SegmentChurned           Segment = "Churned Customers"
)

// Segments lists every segment from best to worst.
var Segments = []Segment{SegmentBest, SegmentLoyal, SegmentPotentialLoyalist, SegmentAtRisk, SegmentChurned}

/*
RUN → paramètres et résultats d'une exécution du pipeline.
*/

// Config contains the parameters passed to pipeline.Run.
type Config struct {
	Predict bool // false runs RFM-only analysis
	Verbose bool // enables [INFO]/[DEBUG] logs and the progress bar
}

// Stage identifies the pipeline step a diagnostic was raised in.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageScore     Stage = "score"
	StageLoad      Stage = "load"
	StageReconcile Stage = "reconcile"
	StagePredict   Stage = "predict"
)

// Severity of a diagnostic. Neither level aborts the process.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one user-visible condition raised during a run.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Err      error
}

func (d Diagnostic) String() string {
	return string(d.Severity) + " [" + string(d.Stage) + "] " + d.Err.Error()
}

// SegmentStat counts the customers of a segment for one run.
type SegmentStat struct {
	Segment   Segment
	Customers int
	Churners  int // rows predicted with the positive label; 0 when not predicted
}

// Report is what a pipeline invocation hands back to its caller.
type Report struct {
	RunID       uuid.UUID
	Table       *Table // full enriched table, all original + derived columns
	Summary     *Table // SummaryColumns view, nil unless Predicted
	Available   []string
	Missing     []string
	Scored      bool
	Predicted   bool
	Segments    []SegmentStat
	Diagnostics []Diagnostic
}

// Has reports whether any diagnostic matches target (errors.Is).
func (r *Report) Has(target error) bool {
	for _, d := range r.Diagnostics {
		if errors.Is(d.Err, target) {
			return true
		}
	}
	return false
}

func (r *Report) add(stage Stage, sev Severity, err error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Stage: stage, Severity: sev, Err: err})
}

// Warn records a non-fatal condition.
func (r *Report) Warn(stage Stage, err error) { r.add(stage, SeverityWarning, err) }

// Fail records a condition that stopped a stage.
func (r *Report) Fail(stage Stage, err error) { r.add(stage, SeverityError, err) }
