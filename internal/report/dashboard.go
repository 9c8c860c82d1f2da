// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// RenderDashboard writes a self-contained HTML page with the smoothed regime
// probabilities, the log-likelihood path and one chart per impulse/response
// pair. When dates has one entry per probability row it labels the x axis.
func RenderDashboard(w io.Writer, fit *msvar.FitResult, irfs []IRFSeries, dates []time.Time) error {
	if fit == nil || fit.Smoothed == nil {
		return fmt.Errorf("render dashboard: no fit")
	}

	page := components.NewPage()
	page.AddCharts(probabilityChart(fit, dates), logLikChart(fit))
	for _, chart := range irfCharts(irfs) {
		page.AddCharts(chart)
	}
	return page.Render(w)
}

func probabilityChart(fit *msvar.FitResult, dates []time.Time) *charts.Line {
	n, K := fit.Smoothed.Dims()
	times := fit.TimeIndex()

	x := make([]string, n)
	for s := 0; s < n; s++ {
		if len(dates) == n {
			x[s] = dates[s].Format("2006-01-02")
		} else {
			x[s] = fmt.Sprintf("%g", times[s])
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Smoothed Regime Probabilities",
			Subtitle: fmt.Sprintf("K=%d p=%d log-likelihood=%.3f (%s)", K, fit.Lags, fit.LogLikelihood, fit.Status),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "P(regime)"}),
	)
	line.SetXAxis(x)
	for k := 0; k < K; k++ {
		data := make([]opts.LineData, n)
		for s := 0; s < n; s++ {
			data[s] = opts.LineData{Value: fit.Smoothed.At(s, k)}
		}
		line.AddSeries(fmt.Sprintf("Regime %d", k), data)
	}
	return line
}

func logLikChart(fit *msvar.FitResult) *charts.Line {
	x := make([]int, len(fit.LogLikHistory))
	data := make([]opts.LineData, len(fit.LogLikHistory))
	for i, ll := range fit.LogLikHistory {
		x[i] = i + 1
		data[i] = opts.LineData{Value: ll}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "EM Log-likelihood", Subtitle: fmt.Sprintf("%d iterations", fit.Iterations)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(x).AddSeries("log-likelihood", data)
	return line
}

// irfCharts groups the series by impulse/response pair, one chart per pair
// with one line per regime.
func irfCharts(irfs []IRFSeries) []*charts.Line {
	type pair struct{ impulse, response string }
	groups := make(map[pair][]IRFSeries)
	var order []pair
	for _, s := range irfs {
		key := pair{s.Impulse, s.Response}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	out := make([]*charts.Line, 0, len(order))
	for _, key := range order {
		series := groups[key]
		sort.Slice(series, func(i, j int) bool { return series[i].Regime < series[j].Regime })

		horizon := 0
		for _, s := range series {
			if len(s.Values) > horizon {
				horizon = len(s.Values)
			}
		}
		x := make([]int, horizon)
		for h := range x {
			x[h] = h
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Response of %s to %s", key.response, key.impulse)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Horizon"}),
		)
		line.SetXAxis(x)
		for _, s := range series {
			data := make([]opts.LineData, len(s.Values))
			for h, v := range s.Values {
				data[h] = opts.LineData{Value: v}
			}
			line.AddSeries(fmt.Sprintf("Regime %d", s.Regime), data)
		}
		out = append(out, line)
	}
	return out
}
