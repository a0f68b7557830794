package frame

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendRowLengthMismatch(t *testing.T) {
	f := New([]string{"a", "b"})
	err := f.AppendRow([]float64{1})
	assert.Error(t, err)
}

func TestAppendRecordMissingColumnIsNaN(t *testing.T) {
	f := New([]string{"a", "b"})
	f.AppendRecord(map[string]float64{"a": 1})
	v, err := f.Value(0, "b")
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestSelectReordersAndDrops(t *testing.T) {
	f := New([]string{"a", "b", "c"})
	assert.NoError(t, f.AppendRow([]float64{1, 2, 3}))
	ans, err := f.Select([]string{"c", "a"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ans.Columns())
	assert.Equal(t, []float64{3, 1}, ans.Row(0))
}

func TestSelectUnknownColumn(t *testing.T) {
	f := New([]string{"a"})
	_, err := f.Select([]string{"a", "x"})
	assert.Error(t, err)
}

func TestReplaceInf(t *testing.T) {
	f := New([]string{"a"})
	assert.NoError(t, f.AppendRow([]float64{math.Inf(1)}))
	assert.NoError(t, f.AppendRow([]float64{math.Inf(-1)}))
	assert.NoError(t, f.AppendRow([]float64{2}))
	f.ReplaceInf()
	assert.True(t, math.IsNaN(f.Row(0)[0]))
	assert.True(t, math.IsNaN(f.Row(1)[0]))
	assert.Equal(t, 2.0, f.Row(2)[0])
}

func TestFillMedian(t *testing.T) {
	f := New([]string{"a"})
	assert.NoError(t, f.AppendRow([]float64{1}))
	assert.NoError(t, f.AppendRow([]float64{math.NaN()}))
	assert.NoError(t, f.AppendRow([]float64{3}))
	f.FillMedian()
	assert.Equal(t, 2.0, f.Row(1)[0])
}

func TestFillMedianAllMissingFillsZero(t *testing.T) {
	f := New([]string{"a"})
	assert.NoError(t, f.AppendRow([]float64{math.NaN()}))
	assert.NoError(t, f.AppendRow([]float64{math.NaN()}))
	f.FillMedian()
	assert.Equal(t, 0.0, f.Row(0)[0])
	assert.Equal(t, 0.0, f.Row(1)[0])
}

func TestColumnMedianIgnoresNaN(t *testing.T) {
	f := New([]string{"a"})
	assert.NoError(t, f.AppendRow([]float64{5}))
	assert.NoError(t, f.AppendRow([]float64{math.NaN()}))
	assert.NoError(t, f.AppendRow([]float64{1}))
	med, err := f.ColumnMedian("a")
	assert.NoError(t, err)
	assert.InDelta(t, 3.0, med, 0.0001)
}

func TestQuantileInterpolates(t *testing.T) {
	f := New([]string{"a"})
	for _, v := range []float64{0, 10, 20, 30} {
		assert.NoError(t, f.AppendRow([]float64{v}))
	}
	q, err := f.Quantile("a", 0.5)
	assert.NoError(t, err)
	assert.InDelta(t, 15.0, q, 0.0001)
	q, err = f.Quantile("a", 0.25)
	assert.NoError(t, err)
	assert.InDelta(t, 7.5, q, 0.0001)
}

func TestMissingColumnsKeepsRequiredOrder(t *testing.T) {
	f := New([]string{"b"})
	missing := f.MissingColumns([]string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "c"}, missing)
}

func TestReadCSVUnparseableCellIsNaN(t *testing.T) {
	src := "a,b\n1.5,x\n,2\n"
	f, err := ReadCSV(strings.NewReader(src))
	assert.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, 1.5, f.Row(0)[0])
	assert.True(t, math.IsNaN(f.Row(0)[1]))
	assert.True(t, math.IsNaN(f.Row(1)[0]))
	assert.Equal(t, 2.0, f.Row(1)[1])
}

func TestReadCSVRaggedRows(t *testing.T) {
	src := "a,b,c\n1,2\n3,4,5,6\n"
	f, err := ReadCSV(strings.NewReader(src))
	assert.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, []float64{1, 2}, f.Row(0)[:2])
	assert.True(t, math.IsNaN(f.Row(0)[2]))
	assert.Equal(t, []float64{3, 4, 5}, f.Row(1))
}

func TestCloneIsDeep(t *testing.T) {
	f := New([]string{"a"})
	assert.NoError(t, f.AppendRow([]float64{1}))
	cp := f.Clone()
	assert.NoError(t, cp.SetValue(0, "a", 99))
	assert.Equal(t, 1.0, f.Row(0)[0])
}
