// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// writeCSV creates path and hands a writer to fill. The first write or flush
// error is returned.
func writeCSV(path string, fill func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := fill(writer); err != nil {
		return err
	}
	writer.Flush() // Ensure all buffered data is written
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// WriteSmoothedCSV writes the filtered and smoothed regime probabilities.
// Columns: Time, Regime_k_Smoothed..., Regime_k_Filtered..., MostLikely.
// When dates has one entry per probability row a Date column is written
// instead of the numeric time index.
func WriteSmoothedCSV(path string, fit *msvar.FitResult, dates []time.Time) error {
	if fit == nil || fit.Smoothed == nil {
		return fmt.Errorf("write smoothed probabilities: no fit")
	}
	n, K := fit.Smoothed.Dims()
	useDates := len(dates) == n
	times := fit.TimeIndex()
	labels := fit.MostLikelyRegimes()

	return writeCSV(path, func(writer *csv.Writer) error {
		header := []string{"Time"}
		if useDates {
			header[0] = "Date"
		}
		for k := 0; k < K; k++ {
			header = append(header, fmt.Sprintf("Regime_%d_Smoothed", k))
		}
		for k := 0; k < K; k++ {
			header = append(header, fmt.Sprintf("Regime_%d_Filtered", k))
		}
		header = append(header, "MostLikely")
		if err := writer.Write(header); err != nil {
			return err
		}

		for s := 0; s < n; s++ {
			record := make([]string, 0, 2*K+2)
			if useDates {
				record = append(record, dates[s].Format("2006-01-02"))
			} else {
				record = append(record, fmt.Sprintf("%g", times[s]))
			}
			for k := 0; k < K; k++ {
				record = append(record, fmt.Sprintf("%f", fit.Smoothed.At(s, k)))
			}
			for k := 0; k < K; k++ {
				record = append(record, fmt.Sprintf("%f", fit.Filtered.At(s, k)))
			}
			record = append(record, fmt.Sprintf("%d", labels[s]))
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTransitionCSV writes the transition matrix with expected durations and
// the stationary distribution.
// Columns: From, To_0..To_{K-1}, ExpectedDuration, Stationary
func WriteTransitionCSV(path string, chain msvar.MarkovChain) error {
	K := chain.NumRegimes()
	if K == 0 {
		return fmt.Errorf("write transition matrix: empty chain")
	}
	durations := chain.ExpectedDurations()
	stationary := chain.Stationary()

	return writeCSV(path, func(writer *csv.Writer) error {
		header := []string{"From"}
		for j := 0; j < K; j++ {
			header = append(header, fmt.Sprintf("To_%d", j))
		}
		header = append(header, "ExpectedDuration", "Stationary")
		if err := writer.Write(header); err != nil {
			return err
		}

		for i := 0; i < K; i++ {
			record := []string{fmt.Sprintf("%d", i)}
			for j := 0; j < K; j++ {
				record = append(record, fmt.Sprintf("%f", chain.P.At(i, j)))
			}
			record = append(record,
				fmt.Sprintf("%f", durations[i]),
				fmt.Sprintf("%f", stationary[i]),
			)
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteIRFCSV writes impulse responses in long format.
// Columns: Impulse, Response, Regime, Horizon, Value
func WriteIRFCSV(path string, irfs []IRFSeries) error {
	return writeCSV(path, func(writer *csv.Writer) error {
		header := []string{"Impulse", "Response", "Regime", "Horizon", "Value"}
		if err := writer.Write(header); err != nil {
			return err
		}

		for _, series := range irfs {
			for h, v := range series.Values {
				record := []string{
					series.Impulse,
					series.Response,
					fmt.Sprintf("%d", series.Regime),
					fmt.Sprintf("%d", h),
					fmt.Sprintf("%f", v),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteLogLikCSV writes the log-likelihood after every EM iteration.
// Columns: Iteration, LogLikelihood
func WriteLogLikCSV(path string, history []float64) error {
	return writeCSV(path, func(writer *csv.Writer) error {
		if err := writer.Write([]string{"Iteration", "LogLikelihood"}); err != nil {
			return err
		}
		for i, ll := range history {
			if err := writer.Write([]string{fmt.Sprintf("%d", i+1), fmt.Sprintf("%f", ll)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteForecastCSV writes point forecasts and predicted regime probabilities.
// Columns: Step, one per variable, Regime_k_Prob...
func WriteForecastCSV(path string, fc *msvar.ForecastResult, varNames []string) error {
	if fc == nil || fc.Mean == nil {
		return fmt.Errorf("write forecasts: no forecast")
	}
	rows, V := fc.Mean.Dims()
	_, K := fc.RegimeProbs.Dims()

	return writeCSV(path, func(writer *csv.Writer) error {
		header := []string{"Step"}
		for j := 0; j < V; j++ {
			header = append(header, varName(varNames, j))
		}
		for k := 0; k < K; k++ {
			header = append(header, fmt.Sprintf("Regime_%d_Prob", k))
		}
		if err := writer.Write(header); err != nil {
			return err
		}

		for i := 0; i < rows; i++ {
			record := []string{fmt.Sprintf("%d", i+1)}
			for j := 0; j < V; j++ {
				record = append(record, fmt.Sprintf("%f", fc.Mean.At(i, j)))
			}
			for k := 0; k < K; k++ {
				record = append(record, fmt.Sprintf("%f", fc.RegimeProbs.At(i, k)))
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}
