// Package predictor loads the churn classifier artifact and exposes it as a
// read-only Predictor.
package predictor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"churn-rfm/pkg/models"
)

// Predictor is a loaded classification model. Implementations are immutable
// after load and safe for concurrent use.
type Predictor interface {
	Name() string
	// ExpectedFeatures returns the ordered feature names the model was trained on.
	ExpectedFeatures() []string
	// Predict returns one label per row of frame, in row order.
	Predict(frame *models.Table) ([]string, error)
}

const KindLogistic = "logistic"

// Artifact is the on-disk form of a logistic churn model.
type Artifact struct {
	Name         string                        `json:"name" yaml:"name"`
	Kind         string                        `json:"kind" yaml:"kind"`
	FeatureNames []string                      `json:"feature_names" yaml:"feature_names"`
	Intercept    float64                       `json:"intercept" yaml:"intercept"`
	Coefficients map[string]float64            `json:"coefficients" yaml:"coefficients"`
	Categories   map[string]map[string]float64 `json:"categories" yaml:"categories"`
	Threshold    float64                       `json:"threshold" yaml:"threshold"`
	Labels       []string                      `json:"labels" yaml:"labels"`
}

// Logistic scores rows with sigmoid(intercept + sum of contributions).
type Logistic struct {
	name       string
	features   []string
	declared   map[string]struct{}
	intercept  float64
	weights    map[string]float64
	categories map[string]map[string]float64
	threshold  float64
	labels     [2]string
}

// NewLogistic validates a and copies it into an immutable model.
func NewLogistic(a Artifact) (*Logistic, error) {
	if a.Kind != "" && a.Kind != KindLogistic {
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
	if len(a.FeatureNames) == 0 {
		return nil, fmt.Errorf("artifact declares no feature_names")
	}
	m := &Logistic{
		name:       a.Name,
		features:   append([]string(nil), a.FeatureNames...),
		declared:   make(map[string]struct{}, len(a.FeatureNames)),
		intercept:  a.Intercept,
		weights:    make(map[string]float64, len(a.Coefficients)),
		categories: make(map[string]map[string]float64, len(a.Categories)),
		threshold:  a.Threshold,
		labels:     [2]string{"0", "1"},
	}
	for _, f := range a.FeatureNames {
		if _, dup := m.declared[f]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f)
		}
		m.declared[f] = struct{}{}
	}
	for f, w := range a.Coefficients {
		if _, ok := m.declared[f]; !ok {
			return nil, fmt.Errorf("coefficient for undeclared feature %q", f)
		}
		m.weights[f] = w
	}
	for f, levels := range a.Categories {
		if _, ok := m.declared[f]; !ok {
			return nil, fmt.Errorf("categories for undeclared feature %q", f)
		}
		if _, ok := m.weights[f]; ok {
			return nil, fmt.Errorf("feature %q is both numeric and categorical", f)
		}
		cp := make(map[string]float64, len(levels))
		for v, c := range levels {
			cp[v] = c
		}
		m.categories[f] = cp
	}
	if m.threshold == 0 {
		m.threshold = 0.5
	}
	if m.threshold <= 0 || m.threshold >= 1 {
		return nil, fmt.Errorf("threshold %v outside (0,1)", a.Threshold)
	}
	switch len(a.Labels) {
	case 0:
	case 2:
		m.labels = [2]string{a.Labels[0], a.Labels[1]}
	default:
		return nil, fmt.Errorf("want 2 labels, got %d", len(a.Labels))
	}
	return m, nil
}

func (m *Logistic) Name() string { return m.name }

func (m *Logistic) ExpectedFeatures() []string {
	return append([]string(nil), m.features...)
}

// PositiveLabel is the label emitted for predicted churners.
func (m *Logistic) PositiveLabel() string { return m.labels[1] }

// PredictProba returns p(churn) per row.
func (m *Logistic) PredictProba(frame *models.Table) ([]float64, error) {
	cols := frame.Columns()
	for _, c := range cols {
		if _, ok := m.declared[c]; !ok {
			return nil, fmt.Errorf("feature %q was not seen at fit time", c)
		}
	}
	out := make([]float64, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		z := m.intercept
		for j, cell := range frame.Row(i) {
			f := cols[j]
			if levels, ok := m.categories[f]; ok {
				if cell.Valid {
					z += levels[cell.String]
				}
				continue
			}
			w, ok := m.weights[f]
			if !ok {
				continue
			}
			if !cell.Valid {
				return nil, fmt.Errorf("row %d: %s is missing", i, f)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell.String), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s=%q is not numeric", i, f, cell.String)
			}
			z += w * v
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// Predict applies the threshold to PredictProba.
func (m *Logistic) Predict(frame *models.Table) ([]string, error) {
	proba, err := m.PredictProba(frame)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(proba))
	for i, p := range proba {
		if p >= m.threshold {
			out[i] = m.labels[1]
		} else {
			out[i] = m.labels[0]
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
