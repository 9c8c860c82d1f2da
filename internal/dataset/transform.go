// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package dataset

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// Select returns a copy of ts holding only the named variables, in the order
// given.
func Select(ts *msvar.TimeSeries, variables []string) (*msvar.TimeSeries, error) {
	if ts == nil || ts.Y == nil {
		return nil, fmt.Errorf("select: no data")
	}
	if len(variables) == 0 {
		return nil, fmt.Errorf("select: empty variable list")
	}

	index := make(map[string]int, len(ts.VarNames))
	for j, name := range ts.VarNames {
		index[name] = j
	}
	cols := make([]int, len(variables))
	for i, name := range variables {
		j, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("select: unknown variable %q (have %v)", name, ts.VarNames)
		}
		cols[i] = j
	}

	T, _ := ts.Y.Dims()
	Y := mat.NewDense(T, len(cols), nil)
	for i, j := range cols {
		for t := 0; t < T; t++ {
			Y.Set(t, i, ts.Y.At(t, j))
		}
	}

	return &msvar.TimeSeries{
		Y:        Y,
		Time:     append([]float64(nil), ts.Time...),
		Dates:    append([]time.Time(nil), ts.Dates...),
		VarNames: append([]string(nil), variables...),
	}, nil
}

// DropMissing returns a copy of ts without the rows that contain NaN.
func DropMissing(ts *msvar.TimeSeries) (*msvar.TimeSeries, error) {
	if ts == nil || ts.Y == nil {
		return nil, fmt.Errorf("drop missing: no data")
	}
	T, V := ts.Y.Dims()

	keep := make([]int, 0, T)
	for t := 0; t < T; t++ {
		ok := true
		for _, v := range ts.Y.RawRowView(t) {
			if math.IsNaN(v) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, t)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("drop missing: every row has a missing value")
	}

	return subset(ts, keep, V), nil
}

// LogDiff returns scale * (log y_t - log y_{t-1}) for every variable, one row
// shorter than ts. The time index and dates of the first row are dropped.
// Levels must be strictly positive.
func LogDiff(ts *msvar.TimeSeries, scale float64) (*msvar.TimeSeries, error) {
	if ts == nil || ts.Y == nil {
		return nil, fmt.Errorf("log diff: no data")
	}
	T, V := ts.Y.Dims()
	if T < 2 {
		return nil, fmt.Errorf("log diff: need at least 2 rows, got %d", T)
	}
	if scale == 0 {
		scale = 100
	}

	for t := 0; t < T; t++ {
		for j := 0; j < V; j++ {
			if v := ts.Y.At(t, j); !(v > 0) || math.IsInf(v, 1) {
				return nil, fmt.Errorf("log diff: %s has non-positive or invalid level %v at row %d",
					name(ts, j), v, t)
			}
		}
	}

	Y := mat.NewDense(T-1, V, nil)
	for t := 1; t < T; t++ {
		for j := 0; j < V; j++ {
			Y.Set(t-1, j, scale*(math.Log(ts.Y.At(t, j))-math.Log(ts.Y.At(t-1, j))))
		}
	}

	out := &msvar.TimeSeries{
		Y:        Y,
		VarNames: append([]string(nil), ts.VarNames...),
	}
	if len(ts.Time) == T {
		out.Time = append([]float64(nil), ts.Time[1:]...)
	}
	if len(ts.Dates) == T {
		out.Dates = append([]time.Time(nil), ts.Dates[1:]...)
	}
	return out, nil
}

// Preprocess selects the variables, drops incomplete rows and, when logDiff
// is set, converts levels to scaled log differences.
func Preprocess(ts *msvar.TimeSeries, variables []string, logDiff bool, scale float64) (*msvar.TimeSeries, error) {
	out, err := Select(ts, variables)
	if err != nil {
		return nil, err
	}
	out, err = DropMissing(out)
	if err != nil {
		return nil, err
	}
	if !logDiff {
		return out, nil
	}
	return LogDiff(out, scale)
}

func subset(ts *msvar.TimeSeries, rows []int, V int) *msvar.TimeSeries {
	T, _ := ts.Y.Dims()
	out := &msvar.TimeSeries{
		Y:        mat.NewDense(len(rows), V, nil),
		VarNames: append([]string(nil), ts.VarNames...),
	}
	for i, t := range rows {
		out.Y.SetRow(i, ts.Y.RawRowView(t))
	}
	if len(ts.Time) == T {
		out.Time = make([]float64, len(rows))
		for i, t := range rows {
			out.Time[i] = ts.Time[t]
		}
	}
	if len(ts.Dates) == T {
		out.Dates = make([]time.Time, len(rows))
		for i, t := range rows {
			out.Dates[i] = ts.Dates[t]
		}
	}
	return out
}

func name(ts *msvar.TimeSeries, j int) string {
	if j < len(ts.VarNames) {
		return ts.VarNames[j]
	}
	return fmt.Sprintf("Var%d", j+1)
}
