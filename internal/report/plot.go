// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// Regime colors, reused cyclically
var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

func regimeColor(k int) color.Color {
	return palette[k%len(palette)]
}

// PlotRegimeProbabilities saves a PNG with one smoothed probability line per
// regime against the time index of the fit.
func PlotRegimeProbabilities(path string, fit *msvar.FitResult) error {
	if fit == nil || fit.Smoothed == nil {
		return fmt.Errorf("plot regime probabilities: no fit")
	}
	n, K := fit.Smoothed.Dims()
	times := fit.TimeIndex()

	p := plot.New()
	p.Title.Text = "Smoothed Regime Probabilities"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Probability"
	p.Y.Min = 0
	p.Y.Max = 1

	for k := 0; k < K; k++ {
		pts := make(plotter.XYs, n)
		for s := 0; s < n; s++ {
			pts[s] = plotter.XY{X: times[s], Y: fit.Smoothed.At(s, k)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = regimeColor(k)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Regime %d", k), line)
	}

	configureLegend(p)
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

// PlotImpulseResponses saves a PNG with the response of one variable to a
// shock in another, one line per regime. irfs[k] is the path under regime k.
func PlotImpulseResponses(path string, irfs [][]float64, impulse, response string) error {
	if len(irfs) == 0 {
		return fmt.Errorf("plot impulse responses: no series")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Response of %s to a shock in %s", response, impulse)
	p.X.Label.Text = "Horizon"
	p.Y.Label.Text = "Response"

	for k, series := range irfs {
		pts := make(plotter.XYs, len(series))
		for h, v := range series {
			pts[h] = plotter.XY{X: float64(h), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = regimeColor(k)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Regime %d", k), line)
	}

	// Zero reference line
	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: float64(len(irfs[0]) - 1), Y: 0}})
	if err != nil {
		return err
	}
	zero.Color = color.Gray{Y: 128}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero)

	configureLegend(p)
	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}

func configureLegend(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}
