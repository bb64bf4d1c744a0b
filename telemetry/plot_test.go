package telemetry

import (
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		[]string{"Time", "Sigma_BR_0", "Sigma_BR_1", "Sigma_BR_2"},
		map[string][]float64{
			"Time":       {0, 10, 20, 30},
			"Sigma_BR_0": {0.3, 0.2, 0.1, 0.05},
			"Sigma_BR_1": {-0.1, -0.05, 0, 0.01},
			"Sigma_BR_2": {0.2, math.NaN(), 0.05, 0.02},
		},
	)
	if err != nil {
		t.Fatalf("NewDataFrame error: %v", err)
	}
	return df
}

func decodePNG(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open plot: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode plot: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestSavePanelWritesPNG(t *testing.T) {
	df := testFrame(t)
	path := filepath.Join(t.TempDir(), "plots", "error.png")

	err := SavePanel(path, Panel{
		Title:  "Attitude Error",
		XLabel: "Time [s]",
		YLabel: "Sigma [MRP]",
		Series: VectorSeries(df, "Sigma_BR"),
		Spans:  []Span{{From: 10, To: 20, Color: color.NRGBA{R: 255, A: 60}}},
	})
	if err != nil {
		t.Fatalf("SavePanel error: %v", err)
	}
	w, h := decodePNG(t, path)
	if w == 0 || h == 0 {
		t.Fatalf("plot has zero size %dx%d", w, h)
	}
}

func TestSaveGridDimensions(t *testing.T) {
	df := testFrame(t)
	panel := Panel{Title: "p", Series: VectorSeries(df, "Sigma_BR")}
	path := filepath.Join(t.TempDir(), "grid.png")

	if err := SaveGrid(path, 2, 2, []Panel{panel, panel, panel}); err != nil {
		t.Fatalf("SaveGrid error: %v", err)
	}
	w, h := decodePNG(t, path)
	// 6x4.5 inch tiles at 96 DPI.
	if w != 2*6*96 || h != 2*45*96/10 {
		t.Fatalf("grid size = %dx%d, want %dx%d", w, h, 2*6*96, 2*45*96/10)
	}
}

func TestSaveGridRejectsOverflow(t *testing.T) {
	panel := Panel{Title: "p"}
	if err := SaveGrid(filepath.Join(t.TempDir(), "x.png"), 1, 1, []Panel{panel, panel}); err == nil {
		t.Fatalf("expected error for more panels than cells")
	}
}

func TestSaveGridRejectsRaggedSeries(t *testing.T) {
	panel := Panel{
		Series: []Series{{Name: "bad", X: []float64{0, 1}, Y: []float64{1}}},
	}
	if err := SaveGrid(filepath.Join(t.TempDir(), "x.png"), 1, 1, []Panel{panel}); err == nil {
		t.Fatalf("expected error for mismatched series lengths")
	}
}

func TestVectorSeriesSkipsMissingColumns(t *testing.T) {
	df, _ := NewDataFrame(
		[]string{"Time", "V_0", "V_2"},
		map[string][]float64{"Time": {0}, "V_0": {1}, "V_2": {3}},
	)
	series := VectorSeries(df, "V")
	if len(series) != 2 {
		t.Fatalf("VectorSeries returned %d series, want 2", len(series))
	}
	if series[0].Name != "X" || series[1].Name != "Z" {
		t.Fatalf("series labels = %q, %q, want X and Z", series[0].Name, series[1].Name)
	}
}
