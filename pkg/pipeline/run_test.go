package pipeline

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"churn-rfm/pkg/dataset"
	"churn-rfm/pkg/models"
	"churn-rfm/pkg/predictor"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customers = `CustomerID,Tenure,PreferredLoginDevice,PreferredPaymentMode,Complain,DaySinceLastOrder,OrderCount,CashbackAmount
50001,0,Phone,CC,1,3,10,200
50002,20,Laptop,UPI,0,31,1,40
50003,5,Fax,Fax,0,20,5,120
`

func readTable(t *testing.T, csv string) *models.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

func testModel(t *testing.T, features ...string) predictor.LoadResult {
	t.Helper()
	if len(features) == 0 {
		features = []string{"Tenure", "PreferredLoginDevice", "Complain", "DaySinceLastOrder", "CashbackAmount"}
	}
	coef := map[string]float64{}
	cats := map[string]map[string]float64{}
	for _, f := range features {
		switch f {
		case "PreferredLoginDevice":
			cats[f] = map[string]float64{"Mobile Phone": 0.5}
		case "Complain":
			coef[f] = 4
		default:
			coef[f] = 0
		}
	}
	m, err := predictor.NewLogistic(predictor.Artifact{
		Kind:         predictor.KindLogistic,
		FeatureNames: features,
		Intercept:    -2,
		Coefficients: coef,
		Categories:   cats,
		Labels:       []string{"0", "1"},
	})
	require.NoError(t, err)
	return predictor.LoadResult{Predictor: m}
}

func TestRun_FullPipeline(t *testing.T) {
	tbl := readTable(t, customers)
	rep := Run(tbl, testModel(t), models.Config{Predict: true})

	require.Empty(t, rep.Diagnostics)
	assert.True(t, rep.Scored)
	assert.True(t, rep.Predicted)
	assert.NotEqual(t, uuid.Nil, rep.RunID)

	dev, _ := tbl.Column(models.ColPreferredLoginDevice)
	assert.Equal(t, []string{"Mobile Phone", "Computer", "Other"}, strs(dev))
	pay, _ := tbl.Column(models.ColPreferredPaymentMode)
	assert.Equal(t, []string{"Credit Card", "UPI", "Fax"}, strs(pay))

	seg, _ := tbl.Column(models.ColCustomerSegment)
	// 50001: 4+2+2=8, 50002: 1+4+4=9, 50003: 2+3+3=8
	assert.Equal(t, []string{"Loyal Customers", "Loyal Customers", "Loyal Customers"}, strs(seg))

	require.NotNil(t, rep.Summary)
	assert.Equal(t, models.SummaryColumns, rep.Summary.Columns())
	preds, _ := rep.Summary.Column(models.ColChurnPrediction)
	assert.Equal(t, []string{"1", "0", "0"}, strs(preds))

	assert.Equal(t, "CustomerID", tbl.Columns()[0])
	assert.Len(t, tbl.Columns(), 8+5+1)

	require.Len(t, rep.Segments, len(models.Segments))
	assert.Equal(t, models.SegmentStat{Segment: models.SegmentLoyal, Customers: 3, Churners: 1}, rep.Segments[1])
}

func TestRun_RFMOnly(t *testing.T) {
	tbl := readTable(t, customers)
	rep := Run(tbl, predictor.LoadResult{}, models.Config{Predict: false})
	assert.Empty(t, rep.Diagnostics)
	assert.True(t, rep.Scored)
	assert.False(t, rep.Predicted)
	assert.Nil(t, rep.Summary)
	assert.False(t, tbl.Has(models.ColChurnPrediction))
}

func TestRun_PredictorLoadFailureDegrades(t *testing.T) {
	tbl := readTable(t, customers)
	failed := predictor.LoadResult{Err: fmt.Errorf("%w: xgb_for_churn.sav: no such file", models.ErrPredictorUnavailable)}

	rep := Run(tbl, failed, models.Config{Predict: true})
	assert.True(t, rep.Scored)
	assert.False(t, rep.Predicted)
	assert.True(t, rep.Has(models.ErrPredictorUnavailable))
	assert.Equal(t, models.StageLoad, rep.Diagnostics[0].Stage)
	assert.Contains(t, rep.Diagnostics[0].Err.Error(), "xgb_for_churn.sav")
	assert.Equal(t, 3, rep.Segments[1].Customers)
}

func TestRun_MissingRFMColumnsStillPredicts(t *testing.T) {
	tbl := readTable(t, "CustomerID,Tenure,Complain\n1,3,1\n2,8,0\n")
	rep := Run(tbl, testModel(t), models.Config{Predict: true})

	assert.False(t, rep.Scored)
	assert.True(t, rep.Has(models.ErrSchemaMissingColumns))
	assert.True(t, rep.Has(models.ErrFeatureShortfall))
	assert.True(t, rep.Predicted)
	assert.Nil(t, rep.Segments)
	assert.Equal(t, []string{"Tenure", "Complain"}, rep.Available)
	assert.Equal(t, []string{"CustomerID", "Tenure", "Complain", models.ColChurnPrediction}, tbl.Columns())
	// Summary needs the RFM columns.
	assert.Nil(t, rep.Summary)
}

func TestRun_NullAnywhereRefusesPrediction(t *testing.T) {
	tbl := readTable(t, customers+"50004,3,Phone,,0,2,2,20\n")
	rep := Run(tbl, testModel(t), models.Config{Predict: true})

	assert.True(t, rep.Scored)
	assert.False(t, rep.Predicted)
	assert.True(t, rep.Has(models.ErrDataQualityNull))

	var nv *models.NullValuesError
	require.True(t, errors.As(rep.Diagnostics[0].Err, &nv))
	assert.Equal(t, []string{models.ColPreferredPaymentMode}, nv.Columns)
	assert.Equal(t, models.SeverityWarning, rep.Diagnostics[0].Severity)
}

func TestRun_NoUsableFeatures(t *testing.T) {
	tbl := readTable(t, customers)
	rep := Run(tbl, testModel(t, "SatisfactionScore", "NumberOfAddress"), models.Config{Predict: true})

	assert.True(t, rep.Has(models.ErrNoUsableFeatures))
	assert.False(t, rep.Predicted)
	assert.False(t, tbl.Has(models.ColChurnPrediction))
}

func TestRun_BinningFailureReported(t *testing.T) {
	tbl := readTable(t, customers+"50004,3,Phone,CC,0,90,2,20\n")
	rep := Run(tbl, testModel(t), models.Config{Predict: true})

	assert.False(t, rep.Scored)
	assert.True(t, rep.Has(models.ErrBinningOutOfRange))
	assert.Contains(t, rep.Diagnostics[0].Err.Error(), "DaySinceLastOrder row 3")
	assert.False(t, tbl.Has(models.ColRFMScore))
	// Prediction does not depend on the RFM columns.
	assert.True(t, rep.Predicted)
}

func TestRun_ShortRowWarnsNullAndStillScores(t *testing.T) {
	in := "CustomerID,Tenure,PreferredLoginDevice,PreferredPaymentMode,Complain,DaySinceLastOrder,OrderCount,CashbackAmount,CouponUsed\n" +
		"50001,0,Phone,CC,1,3,10,200,1\n" +
		"50002,20,Laptop,UPI,0,31,1,40\n"
	tbl := readTable(t, in)
	rep := Run(tbl, testModel(t), models.Config{Predict: true})

	assert.True(t, rep.Scored)
	assert.True(t, rep.Has(models.ErrDataQualityNull))
	assert.False(t, rep.Predicted)
	assert.Nil(t, rep.Summary)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, models.SeverityWarning, rep.Diagnostics[0].Severity)
	assert.Contains(t, rep.Diagnostics[0].Err.Error(), "CouponUsed")
}

func strs(cells []sql.NullString) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String
	}
	return out
}
