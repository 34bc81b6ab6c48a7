package models

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable([]string{"CustomerID", "Tenure", "Complain"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]sql.NullString{Text("50001"), Text("4"), Text("1")}))
	require.NoError(t, tbl.AppendRow([]sql.NullString{Text("50002"), Null, Text("0")}))
	return tbl
}

func TestNewTable_DuplicateColumn(t *testing.T) {
	_, err := NewTable([]string{"a", "b", "a"})
	require.Error(t, err)
}

func TestTable_AppendRowWidth(t *testing.T) {
	tbl := sampleTable(t)
	err := tbl.AppendRow([]sql.NullString{Text("x")})
	require.Error(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_SetColumnAppendsAndReplaces(t *testing.T) {
	tbl := sampleTable(t)

	require.NoError(t, tbl.SetColumn("Score", []sql.NullString{Text("1"), Text("2")}))
	assert.Equal(t, []string{"CustomerID", "Tenure", "Complain", "Score"}, tbl.Columns())

	require.NoError(t, tbl.SetColumn("Tenure", []sql.NullString{Text("9"), Text("10")}))
	assert.Equal(t, []string{"CustomerID", "Tenure", "Complain", "Score"}, tbl.Columns())
	c, ok := tbl.Cell(1, "Tenure")
	require.True(t, ok)
	assert.Equal(t, Text("10"), c)

	require.Error(t, tbl.SetColumn("Short", []sql.NullString{Text("1")}))
	assert.False(t, tbl.Has("Short"))
}

func TestTable_SelectKeepsRequestedOrder(t *testing.T) {
	tbl := sampleTable(t)
	sel, err := tbl.Select("Complain", "CustomerID")
	require.NoError(t, err)
	assert.Equal(t, []string{"Complain", "CustomerID"}, sel.Columns())
	assert.Equal(t, []sql.NullString{Text("0"), Text("50002")}, sel.Row(1))

	_, err = tbl.Select("Complain", "Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMissingColumns))
}

func TestTable_NullCountsAndMissing(t *testing.T) {
	tbl := sampleTable(t)
	cols, counts := tbl.NullCounts()
	assert.Equal(t, []string{"Tenure"}, cols)
	assert.Equal(t, 1, counts["Tenure"])

	assert.Equal(t, []string{"OrderCount"}, tbl.Missing("Tenure", "OrderCount"))
	assert.True(t, tbl.Schema().Contains("Complain"))
}

func TestReport_Has(t *testing.T) {
	r := &Report{}
	r.Warn(StageReconcile, &MissingColumnsError{Kind: ErrFeatureShortfall, Columns: []string{"Tenure"}})
	assert.True(t, r.Has(ErrFeatureShortfall))
	assert.False(t, r.Has(ErrNoUsableFeatures))
	assert.Equal(t, SeverityWarning, r.Diagnostics[0].Severity)
}

func TestBinningErrors_Message(t *testing.T) {
	var es BinningErrors
	for i := 0; i < 7; i++ {
		es = append(es, &BinningError{Column: ColOrderCount, Row: i, Value: "40"})
	}
	var err error = es
	assert.True(t, errors.Is(err, ErrBinningOutOfRange))
	assert.Contains(t, err.Error(), "7 value(s)")
	assert.Contains(t, err.Error(), "and 2 more")
}
