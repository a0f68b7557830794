// Copyright 2025 MachSight Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package frame

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Frame is a small column-ordered table of float64 values.
// Missing values are represented as NaN. Row order is significant
// and preserved by all operations.
type Frame struct {
	columns []string
	colIdx  map[string]int
	rows    [][]float64
}

func New(columns []string) *Frame {
	colIdx := make(map[string]int, len(columns))
	for i, c := range columns {
		colIdx[c] = i
	}
	return &Frame{
		columns: slices.Clone(columns),
		colIdx:  colIdx,
		rows:    make([][]float64, 0, 100),
	}
}

func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

func (f *Frame) NumRows() int {
	return len(f.rows)
}

func (f *Frame) NumColumns() int {
	return len(f.columns)
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.colIdx[name]
	return ok
}

// AppendRow adds a row to the frame. The number of values
// must match the number of columns.
func (f *Frame) AppendRow(values []float64) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf(
			"failed to append row: expected %d values, got %d", len(f.columns), len(values))
	}
	f.rows = append(f.rows, slices.Clone(values))
	return nil
}

// AppendRecord adds a row provided as a column name -> value mapping.
// Columns absent from the record are filled with NaN.
func (f *Frame) AppendRecord(rec map[string]float64) {
	row := make([]float64, len(f.columns))
	for i, c := range f.columns {
		v, ok := rec[c]
		if !ok {
			v = math.NaN()
		}
		row[i] = v
	}
	f.rows = append(f.rows, row)
}

// Row returns the i-th row. The returned slice is the internal
// storage - callers must not modify it.
func (f *Frame) Row(i int) []float64 {
	return f.rows[i]
}

// Record returns the i-th row as a column name -> value mapping.
func (f *Frame) Record(i int) map[string]float64 {
	ans := make(map[string]float64, len(f.columns))
	for j, c := range f.columns {
		ans[c] = f.rows[i][j]
	}
	return ans
}

// Value returns a single cell.
func (f *Frame) Value(row int, column string) (float64, error) {
	j, ok := f.colIdx[column]
	if !ok {
		return 0, fmt.Errorf("failed to get value: unknown column %s", column)
	}
	return f.rows[row][j], nil
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	j, ok := f.colIdx[name]
	if !ok {
		return nil, fmt.Errorf("failed to get column: unknown column %s", name)
	}
	ans := make([]float64, len(f.rows))
	for i, row := range f.rows {
		ans[i] = row[j]
	}
	return ans, nil
}

// SetValue overwrites a single cell.
func (f *Frame) SetValue(row int, column string, v float64) error {
	j, ok := f.colIdx[column]
	if !ok {
		return fmt.Errorf("failed to set value: unknown column %s", column)
	}
	f.rows[row][j] = v
	return nil
}

// MissingColumns returns the subset of `required` not present
// in the frame, in the order of `required`.
func (f *Frame) MissingColumns(required []string) []string {
	var missing []string
	for _, c := range required {
		if !f.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Select produces a new frame containing exactly the provided columns
// in the provided order. Columns of the source frame not listed are
// dropped. Listing a column the frame does not have is an error.
func (f *Frame) Select(columns []string) (*Frame, error) {
	srcIdx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := f.colIdx[c]
		if !ok {
			return nil, fmt.Errorf("failed to select columns: unknown column %s", c)
		}
		srcIdx[i] = j
	}
	ans := New(columns)
	for _, row := range f.rows {
		newRow := make([]float64, len(columns))
		for i, j := range srcIdx {
			newRow[i] = row[j]
		}
		ans.rows = append(ans.rows, newRow)
	}
	return ans, nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	ans := New(f.columns)
	for _, row := range f.rows {
		ans.rows = append(ans.rows, slices.Clone(row))
	}
	return ans
}

// ReplaceInf replaces positive and negative infinities with NaN
// so they take part in the missing-value imputation.
func (f *Frame) ReplaceInf() {
	for _, row := range f.rows {
		for j, v := range row {
			if math.IsInf(v, 0) {
				row[j] = math.NaN()
			}
		}
	}
}

// ColumnMedian computes the median of a column ignoring NaN entries.
// For a column with no valid entries, NaN is returned.
func (f *Frame) ColumnMedian(name string) (float64, error) {
	j, ok := f.colIdx[name]
	if !ok {
		return 0, fmt.Errorf("failed to compute median: unknown column %s", name)
	}
	vals := make([]float64, 0, len(f.rows))
	for _, row := range f.rows {
		if !math.IsNaN(row[j]) {
			vals = append(vals, row[j])
		}
	}
	return median(vals), nil
}

// FillMedian replaces NaN entries of each column with the column
// median computed over this frame's rows. Columns whose median is
// itself NaN (i.e. all values missing) are filled with zero.
// Note that the imputation statistic is local to the frame - two
// distinct batches may impute an equivalent row differently.
func (f *Frame) FillMedian() {
	for j, c := range f.columns {
		med, _ := f.ColumnMedian(c)
		if math.IsNaN(med) {
			med = 0
		}
		for _, row := range f.rows {
			if math.IsNaN(row[j]) {
				row[j] = med
			}
		}
	}
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Quantile returns the q-th (0..1) quantile of a column using linear
// interpolation between closest ranks. NaN entries are ignored.
func (f *Frame) Quantile(name string, q float64) (float64, error) {
	j, ok := f.colIdx[name]
	if !ok {
		return 0, fmt.Errorf("failed to compute quantile: unknown column %s", name)
	}
	vals := make([]float64, 0, len(f.rows))
	for _, row := range f.rows {
		if !math.IsNaN(row[j]) {
			vals = append(vals, row[j])
		}
	}
	if len(vals) == 0 {
		return math.NaN(), nil
	}
	sort.Float64s(vals)
	pos := q * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo], nil
	}
	frac := pos - float64(lo)
	return vals[lo]*(1-frac) + vals[hi]*frac, nil
}
