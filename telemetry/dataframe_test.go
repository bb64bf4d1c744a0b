package telemetry

import (
	"math"
	"testing"
)

func TestFromWirePreservesColumnOrder(t *testing.T) {
	df, err := FromWire(WireFrame{
		Columns: []string{"Time", "B", "A"},
		Records: []map[string]float64{
			{"Time": 0, "B": 1, "A": 2},
			{"Time": 10, "B": 3, "A": 4},
		},
	})
	if err != nil {
		t.Fatalf("FromWire error: %v", err)
	}
	want := []string{"Time", "B", "A"}
	got := df.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Columns = %v, want %v", got, want)
		}
	}
	if df.Len() != 2 {
		t.Fatalf("Len = %d, want 2", df.Len())
	}
	if df.Column("A")[1] != 4 {
		t.Fatalf("A[1] = %g, want 4", df.Column("A")[1])
	}
}

func TestFromWireMissingFieldBecomesNaN(t *testing.T) {
	df, err := FromWire(WireFrame{
		Columns: []string{"Time", "Signal"},
		Records: []map[string]float64{
			{"Time": 0, "Signal": 7},
			{"Time": 10},
		},
	})
	if err != nil {
		t.Fatalf("FromWire error: %v", err)
	}
	if !math.IsNaN(df.Column("Signal")[1]) {
		t.Fatalf("Signal[1] = %g, want NaN", df.Column("Signal")[1])
	}
}

func TestFromWireRecoversColumnsWhenOmitted(t *testing.T) {
	df, err := FromWire(WireFrame{
		Records: []map[string]float64{
			{"Time": 0, "Z": 1, "A": 2},
		},
	})
	if err != nil {
		t.Fatalf("FromWire error: %v", err)
	}
	cols := df.Columns()
	if cols[0] != TimeColumn {
		t.Fatalf("first column = %q, want %q", cols[0], TimeColumn)
	}
	if cols[1] != "A" || cols[2] != "Z" {
		t.Fatalf("recovered columns = %v, want sorted A then Z", cols)
	}
}

func TestNewDataFrameLengthValidation(t *testing.T) {
	_, err := NewDataFrame(
		[]string{"Time", "V"},
		map[string][]float64{"Time": {0, 1}, "V": {0}},
	)
	if err == nil {
		t.Fatalf("expected mismatched length error")
	}
	_, err = NewDataFrame([]string{"Time", "V"}, map[string][]float64{"Time": {0}})
	if err == nil {
		t.Fatalf("expected missing series error")
	}
}

func TestFilter(t *testing.T) {
	df, err := NewDataFrame(
		[]string{"Time", "SNR"},
		map[string][]float64{
			"Time": {0, 10, 20, 30},
			"SNR":  {-1000, 12, -1000, 20},
		},
	)
	if err != nil {
		t.Fatalf("NewDataFrame error: %v", err)
	}
	got := df.Filter(func(row map[string]float64) bool { return row["SNR"] != -1000 })
	if got.Len() != 2 {
		t.Fatalf("filtered Len = %d, want 2", got.Len())
	}
	if got.Times()[1] != 30 {
		t.Fatalf("filtered Times[1] = %g, want 30", got.Times()[1])
	}
}

func TestConcatTagsSourceFrames(t *testing.T) {
	a, _ := NewDataFrame([]string{"Time", "V"}, map[string][]float64{"Time": {0, 1}, "V": {5, 6}})
	b, _ := NewDataFrame([]string{"Time", "V"}, map[string][]float64{"Time": {0}, "V": {7}})

	df, err := Concat([]*DataFrame{a, b})
	if err != nil {
		t.Fatalf("Concat error: %v", err)
	}
	if df.Len() != 3 {
		t.Fatalf("Len = %d, want 3", df.Len())
	}
	keys := df.Column(SeriesKeyColumn)
	want := []float64{0, 0, 1}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("SeriesKey = %v, want %v", keys, want)
		}
	}

	if _, err := Concat(nil); err == nil {
		t.Fatalf("expected error on empty concat")
	}
}

func TestNorm(t *testing.T) {
	df, _ := NewDataFrame(
		[]string{"Time", "P_0", "P_1", "P_2"},
		map[string][]float64{
			"Time": {0, 1},
			"P_0":  {3, 0},
			"P_1":  {4, 0},
			"P_2":  {0, 2},
		},
	)
	got := df.Norm("P_0", "P_1", "P_2")
	if got[0] != 5 || got[1] != 2 {
		t.Fatalf("Norm = %v, want [5 2]", got)
	}
}
