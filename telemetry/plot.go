package telemetry

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Series is one plotted line (or scatter) with an optional legend name.
type Series struct {
	Name    string
	X, Y    []float64
	Scatter bool
	Dashed  bool
}

// Span shades a time interval on a panel, e.g. a sensor fault window or a
// pointing-mode region.
type Span struct {
	From, To float64
	Color    color.Color
}

// Panel describes a single plot.
type Panel struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
	Spans  []Span
}

// SeriesFromFrame builds a series from two columns of a frame.
func SeriesFromFrame(df *DataFrame, yColumn, name string) Series {
	return Series{Name: name, X: df.Times(), Y: df.Column(yColumn)}
}

// VectorSeries builds X/Y/Z series from a triplet of columns named
// prefix_0, prefix_1, prefix_2, labeled X, Y, Z.
func VectorSeries(df *DataFrame, prefix string) []Series {
	labels := []string{"X", "Y", "Z"}
	out := make([]Series, 0, 3)
	for i, label := range labels {
		col := fmt.Sprintf("%s_%d", prefix, i)
		if !df.HasColumn(col) {
			continue
		}
		out = append(out, SeriesFromFrame(df, col, label))
	}
	return out
}

// SavePanel renders one panel to a PNG file.
func SavePanel(path string, panel Panel) error {
	return SaveGrid(path, 1, 1, []Panel{panel})
}

// SaveGrid renders panels onto a rows x cols tile layout and writes a
// single PNG. Empty cells are allowed when len(panels) < rows*cols.
func SaveGrid(path string, rows, cols int, panels []Panel) error {
	if rows*cols < len(panels) {
		return fmt.Errorf("telemetry: %d panels do not fit a %dx%d grid", len(panels), rows, cols)
	}

	plots := make([][]*plot.Plot, rows)
	idx := 0
	for r := 0; r < rows; r++ {
		plots[r] = make([]*plot.Plot, cols)
		for c := 0; c < cols; c++ {
			if idx >= len(panels) {
				continue
			}
			p, err := buildPlot(panels[idx])
			if err != nil {
				return err
			}
			plots[r][c] = p
			idx++
		}
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(6*cols)*vg.Inch, 4.5*vg.Length(rows)*vg.Inch),
		vgimg.UseDPI(96),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 2, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("telemetry: create plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: create plot file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("telemetry: write png: %w", err)
	}
	return nil
}

func buildPlot(panel Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = panel.XLabel
	p.Y.Label.Text = panel.YLabel
	p.Add(plotter.NewGrid())

	yMin, yMax := seriesRange(panel.Series)
	for _, span := range panel.Spans {
		poly, err := spanPolygon(span, yMin, yMax)
		if err != nil {
			return nil, err
		}
		p.Add(poly)
	}

	for i, s := range panel.Series {
		if len(s.X) != len(s.Y) {
			return nil, fmt.Errorf("telemetry: series %q has %d x values and %d y values", s.Name, len(s.X), len(s.Y))
		}
		pts := make(plotter.XYs, 0, len(s.X))
		for j := range s.X {
			if math.IsNaN(s.Y[j]) {
				continue
			}
			pts = append(pts, plotter.XY{X: s.X[j], Y: s.Y[j]})
		}

		if s.Scatter {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle.Color = plotutil.Color(i)
			sc.GlyphStyle.Radius = vg.Points(1.2)
			p.Add(sc)
			if s.Name != "" {
				p.Legend.Add(s.Name, sc)
			}
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		if s.Dashed {
			line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
	}
	p.Legend.Top = true

	return p, nil
}

func seriesRange(series []Series) (float64, float64) {
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, y := range s.Y {
			if math.IsNaN(y) {
				continue
			}
			yMin = math.Min(yMin, y)
			yMax = math.Max(yMax, y)
		}
	}
	if yMin > yMax {
		return 0, 1
	}
	if yMin == yMax {
		return yMin - 1, yMax + 1
	}
	return yMin, yMax
}

func spanPolygon(span Span, yMin, yMax float64) (*plotter.Polygon, error) {
	pad := (yMax - yMin) * 0.05
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: span.From, Y: yMin - pad},
		{X: span.To, Y: yMin - pad},
		{X: span.To, Y: yMax + pad},
		{X: span.From, Y: yMax + pad},
	})
	if err != nil {
		return nil, err
	}
	fill := span.Color
	if fill == nil {
		fill = color.NRGBA{R: 255, A: 60}
	}
	poly.Color = fill
	poly.LineStyle.Width = 0
	return poly, nil
}
