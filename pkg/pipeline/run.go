package pipeline

import (
	"io"
	"log"

	"churn-rfm/pkg/enricher"
	"churn-rfm/pkg/features"
	"churn-rfm/pkg/models"
	"churn-rfm/pkg/normalizer"
	"churn-rfm/pkg/predictor"
	"churn-rfm/pkg/rfm"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

const stageCount = 4 // normalize, score, reconcile, predict

// Run normalizes, scores, reconciles and enriches t in place and reports
// what happened. No condition is fatal to the caller: each one becomes a
// diagnostic and the stages that can still run do.
//
// t must not be shared with another concurrent Run; model may be.
func Run(t *models.Table, model predictor.LoadResult, cfg models.Config) *models.Report {
	rep := &models.Report{RunID: uuid.New(), Table: t}
	bar := newBar(cfg.Verbose)
	defer func() { _ = bar.Finish() }()

	warn := func(stage models.Stage, err error) {
		rep.Warn(stage, err)
		log.Printf("[WARN] run=%s %s: %v", rep.RunID, stage, err)
	}
	fail := func(stage models.Stage, err error) {
		rep.Fail(stage, err)
		log.Printf("[ERROR] run=%s %s: %v", rep.RunID, stage, err)
	}

	if cfg.Verbose {
		log.Printf("[INFO] run=%s rows=%d columns=%d", rep.RunID, t.Len(), len(t.Columns()))
	}

	// 1) Normalisation des catégories
	norm, err := normalizer.Normalize(t)
	if err != nil {
		fail(models.StageNormalize, err)
	}
	if cfg.Verbose {
		log.Printf("[DEBUG] run=%s normalized device=%d payment=%d",
			rep.RunID, norm.Changed[models.ColPreferredLoginDevice], norm.Changed[models.ColPreferredPaymentMode])
	}
	if norm.UnknownPayment > 0 {
		log.Printf("[WARN] run=%s %d payment mode(s) outside the known vocabulary kept as-is", rep.RunID, norm.UnknownPayment)
	}
	_ = bar.Add(1)

	// 2) Scoring RFM
	if err := rfm.Score(t); err != nil {
		fail(models.StageScore, err)
	} else {
		rep.Scored = true
	}
	_ = bar.Add(1)

	defer func() {
		if rep.Scored {
			rep.Segments = segmentStats(t, rep.Predicted, positiveLabel(model.Predictor))
		}
	}()

	if !cfg.Predict {
		return rep
	}
	if !model.OK() {
		cause := model.Err
		if cause == nil {
			cause = models.ErrPredictorUnavailable
		}
		fail(models.StageLoad, cause)
		return rep
	}

	// 3) Contrôle des valeurs manquantes sur toute la table, puis réconciliation des features
	if err := enricher.CheckNulls(t); err != nil {
		warn(models.StagePredict, err)
		return rep
	}
	rec, err := features.Reconcile(t.Schema(), model.Predictor.ExpectedFeatures())
	rep.Available, rep.Missing = rec.Available, rec.Missing
	if w := rec.Shortfall(); w != nil {
		warn(models.StageReconcile, w)
	}
	if err != nil {
		fail(models.StageReconcile, err)
		return rep
	}
	_ = bar.Add(1)

	// 4) Prédiction
	if err := enricher.Enrich(t, model.Predictor, rec.Available); err != nil {
		fail(models.StagePredict, err)
		return rep
	}
	rep.Predicted = true
	_ = bar.Add(1)

	summary, err := enricher.Summary(t)
	if err != nil {
		warn(models.StagePredict, err)
	} else {
		rep.Summary = summary
	}
	if cfg.Verbose {
		log.Printf("[INFO] run=%s predicted rows=%d features=%d/%d",
			rep.RunID, t.Len(), len(rec.Available), len(rec.Available)+len(rec.Missing))
	}
	return rep
}

func newBar(verbose bool) *progressbar.ProgressBar {
	if verbose {
		return progressbar.Default(stageCount, "churn-rfm")
	}
	return progressbar.NewOptions(stageCount, progressbar.OptionSetWriter(io.Discard))
}

// positiveLabel is the churn label of p, "1" unless p says otherwise.
func positiveLabel(p predictor.Predictor) string {
	if pl, ok := p.(interface{ PositiveLabel() string }); ok {
		return pl.PositiveLabel()
	}
	return "1"
}

// segmentStats counts customers, and predicted churners when available, per
// segment in the fixed segment order.
func segmentStats(t *models.Table, predicted bool, positive string) []models.SegmentStat {
	segs, ok := t.Column(models.ColCustomerSegment)
	if !ok {
		return nil
	}
	preds, _ := t.Column(models.ColChurnPrediction)

	idx := make(map[models.Segment]int, len(models.Segments))
	out := make([]models.SegmentStat, len(models.Segments))
	for i, s := range models.Segments {
		idx[s] = i
		out[i].Segment = s
	}
	for i, c := range segs {
		k, ok := idx[models.Segment(c.String)]
		if !ok {
			continue
		}
		out[k].Customers++
		if predicted && preds[i].Valid && preds[i].String == positive {
			out[k].Churners++
		}
	}
	return out
}
