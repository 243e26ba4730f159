package report

import (
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"
)

var (
	trainColor = color.RGBA{G: 128, A: 255}
	valColor   = color.RGBA{R: 255, A: 255}
)

func plotHistory(title, yLabel string, train, val []float64, path string) error {
	var p = plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Number of epochs"
	p.Y.Label.Text = yLabel

	for _, series := range []struct {
		name   string
		values []float64
		color  color.Color
	}{
		{"Train", train, trainColor},
		{"Validation", val, valColor},
	} {
		if len(series.values) == 0 {
			continue
		}
		var xys = make(plotter.XYs, len(series.values))
		for i, v := range series.values {
			xys[i].X = float64(i)
			xys[i].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.WithStack(err)
		}
		line.Color = series.color
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	return errors.WithStack(p.Save(6*vg.Inch, 4*vg.Inch, path))
}

// confusionGrid exposes a confusion matrix as plotter.GridXYZ,
// columns are predicted classes and rows true classes.
type confusionGrid struct {
	m *mat.Dense
}

func (g confusionGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g confusionGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }

func plotConfusion(cm *mat.Dense, labels []string, title, path string) error {
	var p = plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Predicted label"
	p.Y.Label.Text = "True label"

	var heatMap = plotter.NewHeatMap(confusionGrid{m: cm}, palette.Heat(12, 1))
	heatMap.Min = 0
	heatMap.Max = math.Max(mat.Max(cm), 1e-9)
	p.Add(heatMap)
	p.NominalX(labels...)
	p.NominalY(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4

	var size = vg.Length(math.Max(6, 0.25*float64(len(labels)))) * vg.Inch
	return errors.WithStack(p.Save(size, size, path))
}
