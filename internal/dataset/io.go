// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

// Package dataset loads market data from CSV and prepares it for estimation.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// Date layouts accepted in the first column, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/02/2006",
	time.RFC3339,
}

// LoadCSV loads a CSV file into a TimeSeries.
func LoadCSV(path string) (*msvar.TimeSeries, error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ts, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// ReadCSV parses CSV data with a header row. When the first column holds
// dates it becomes the time index (days since the Unix epoch) and is not a
// variable; otherwise every column is a variable and rows are numbered
// 0,1,2,... Empty cells and "NA"/"NaN" become NaN.
func ReadCSV(src io.Reader) (*msvar.TimeSeries, error) {
	// 2. Make CSV reader
	r := csv.NewReader(src)
	r.TrimLeadingSpace = true

	// 3. Read header row
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, fmt.Errorf("empty header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	cols := len(header)

	var (
		data     []float64   // flat data for mat.Dense
		times    []float64   // time index
		dates    []time.Time // parsed first column, when it is a date
		hasDates bool
		layout   string
		row      int // row counter
	)

	// 4. Read each data row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header + 1-based
		}

		// Skip completely empty lines
		if len(record) == 1 && record[0] == "" {
			continue
		}

		if len(record) != cols {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row+2, cols, len(record))
		}

		// The first data row decides whether column one is a date index
		if row == 0 {
			layout, hasDates = detectLayout(record[0])
			if hasDates && cols == 1 {
				return nil, fmt.Errorf("no variable columns next to the date column")
			}
		}

		start := 0
		if hasDates {
			d, err := time.Parse(layout, strings.TrimSpace(record[0]))
			if err != nil {
				return nil, fmt.Errorf("parse date at row %d (%q): %w", row+2, record[0], err)
			}
			dates = append(dates, d)
			times = append(times, float64(d.Unix())/86400)
			start = 1
		} else {
			times = append(times, float64(row))
		}

		for j := start; j < cols; j++ {
			v, err := parseCell(record[j])
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", row+2, j+1, record[j], err)
			}
			data = append(data, v)
		}
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	names := header
	if hasDates {
		names = header[1:]
	}

	// 5. Build TimeSeries
	ts := &msvar.TimeSeries{
		Y:        mat.NewDense(row, len(names), data),
		Time:     times,
		VarNames: append([]string(nil), names...),
	}
	if hasDates {
		ts.Dates = dates
	}
	return ts, nil
}

func detectLayout(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, cell); err == nil {
			return layout, true
		}
	}
	return "", false
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
