// Package telemetry shapes the time series returned by the remote
// simulation service and renders them as plots.
package telemetry

import (
	"fmt"
	"math"
	"sort"
)

// TimeColumn is the name of the simulation-time column present in every
// frame returned by the service.
const TimeColumn = "Time"

// WireFrame is the JSON shape of a telemetry query response.
type WireFrame struct {
	Columns []string             `json:"columns"`
	Records []map[string]float64 `json:"records"`
}

// DataFrame is an ordered set of named float columns sharing one length.
// The Time column is always first.
type DataFrame struct {
	columns []string
	data    map[string][]float64
}

// FromWire builds a DataFrame from the wire response, preserving column
// order. Missing record fields become NaN so column lengths stay equal.
func FromWire(w WireFrame) (*DataFrame, error) {
	cols := w.Columns
	if len(cols) == 0 && len(w.Records) > 0 {
		// Older service builds omit the column list; recover a stable order.
		seen := map[string]bool{}
		for _, rec := range w.Records {
			for k := range rec {
				seen[k] = true
			}
		}
		for k := range seen {
			if k != TimeColumn {
				cols = append(cols, k)
			}
		}
		sort.Strings(cols)
		cols = append([]string{TimeColumn}, cols...)
	}

	df := &DataFrame{
		columns: cols,
		data:    make(map[string][]float64, len(cols)),
	}
	for _, c := range cols {
		series := make([]float64, len(w.Records))
		for i, rec := range w.Records {
			if v, ok := rec[c]; ok {
				series[i] = v
			} else {
				series[i] = math.NaN()
			}
		}
		df.data[c] = series
	}
	return df, nil
}

// NewDataFrame builds a frame from explicit columns. All series must share
// the same length and one of them must be Time.
func NewDataFrame(columns []string, data map[string][]float64) (*DataFrame, error) {
	n := -1
	for _, c := range columns {
		series, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("telemetry: missing series %q", c)
		}
		if n == -1 {
			n = len(series)
		} else if len(series) != n {
			return nil, fmt.Errorf("telemetry: series %q has length %d, want %d", c, len(series), n)
		}
	}
	return &DataFrame{columns: columns, data: data}, nil
}

// Len returns the number of rows.
func (df *DataFrame) Len() int {
	if df == nil {
		return 0
	}
	return len(df.data[TimeColumn])
}

// Columns returns the column names in order.
func (df *DataFrame) Columns() []string { return df.columns }

// HasColumn reports whether the named column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.data[name]
	return ok
}

// Times returns the Time column.
func (df *DataFrame) Times() []float64 { return df.data[TimeColumn] }

// Column returns the named series, or nil when absent.
func (df *DataFrame) Column(name string) []float64 { return df.data[name] }

// Filter returns the rows for which pred is true.
func (df *DataFrame) Filter(pred func(row map[string]float64) bool) *DataFrame {
	out := &DataFrame{
		columns: df.columns,
		data:    make(map[string][]float64, len(df.columns)),
	}
	row := make(map[string]float64, len(df.columns))
	for i := 0; i < df.Len(); i++ {
		for _, c := range df.columns {
			row[c] = df.data[c][i]
		}
		if !pred(row) {
			continue
		}
		for _, c := range df.columns {
			out.data[c] = append(out.data[c], df.data[c][i])
		}
	}
	return out
}

// SeriesKeyColumn names the column Concat adds to distinguish the source
// frames.
const SeriesKeyColumn = "SeriesKey"

// Concat stacks frames vertically, tagging each row with the index of its
// source frame in a SeriesKey column. Frames must share columns.
func Concat(frames []*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("telemetry: nothing to concat")
	}
	base := frames[0].columns
	out := &DataFrame{
		columns: append(append([]string{}, base...), SeriesKeyColumn),
		data:    make(map[string][]float64, len(base)+1),
	}
	for k, df := range frames {
		if len(df.columns) != len(base) {
			return nil, fmt.Errorf("telemetry: frame %d has %d columns, want %d", k, len(df.columns), len(base))
		}
		for _, c := range base {
			series := df.data[c]
			if series == nil {
				return nil, fmt.Errorf("telemetry: frame %d is missing column %q", k, c)
			}
			out.data[c] = append(out.data[c], series...)
		}
		for i := 0; i < df.Len(); i++ {
			out.data[SeriesKeyColumn] = append(out.data[SeriesKeyColumn], float64(k))
		}
	}
	return out, nil
}

// Norm returns the row-wise Euclidean norm across the named columns.
func (df *DataFrame) Norm(names ...string) []float64 {
	out := make([]float64, df.Len())
	for i := range out {
		var sum float64
		for _, n := range names {
			v := df.data[n][i]
			sum += v * v
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}
