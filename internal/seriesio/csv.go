// Package seriesio reads and writes univariate series as CSV for the
// command-line tools.
package seriesio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/sst/internal/analytics"
)

// ReadOptions selects the columns holding the series
type ReadOptions struct {
	ValueColumn int    // 0-based
	TimeColumn  int    // 0-based, negative for none
	TimeLayout  string // defaults to RFC3339
	Comma       rune   // defaults to ','
}

// DefaultReadOptions reads values from the first column and no times
func DefaultReadOptions() ReadOptions {
	return ReadOptions{ValueColumn: 0, TimeColumn: -1, TimeLayout: time.RFC3339}
}

// ReadCSV parses a series. A first row whose value cell is not a number is
// treated as a header. Rows with an empty value cell are rejected.
func ReadCSV(r io.Reader, opts ReadOptions) (analytics.TimeSeriesData, error) {
	if opts.ValueColumn < 0 {
		return nil, errors.New("value column must be non-negative")
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = time.RFC3339
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	var data analytics.TimeSeriesData
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if opts.ValueColumn >= len(record) {
			return nil, fmt.Errorf("row %d: missing value column %d", row, opts.ValueColumn)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[opts.ValueColumn]), 64)
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: invalid value %q", row, record[opts.ValueColumn])
		}

		point := analytics.TimeSeriesPoint{Value: value}
		if opts.TimeColumn >= 0 {
			if opts.TimeColumn >= len(record) {
				return nil, fmt.Errorf("row %d: missing time column %d", row, opts.TimeColumn)
			}
			point.Time, err = time.Parse(opts.TimeLayout, strings.TrimSpace(record[opts.TimeColumn]))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid time %q: %w", row, record[opts.TimeColumn], err)
			}
		}
		data = append(data, point)
	}

	if len(data) == 0 {
		return nil, errors.New("no data rows")
	}
	return data, nil
}

// WriteScoresCSV writes index,[time,]value,score rows. The time column is
// emitted when any sample carries a time.
func WriteScoresCSV(w io.Writer, data analytics.TimeSeriesData, scores []float64) error {
	if len(data) != len(scores) {
		return fmt.Errorf("length mismatch: %d samples, %d scores", len(data), len(scores))
	}

	withTime := false
	for _, p := range data {
		if !p.Time.IsZero() {
			withTime = true
			break
		}
	}

	writer := csv.NewWriter(w)
	header := []string{"index", "value", "score"}
	if withTime {
		header = []string{"index", "time", "value", "score"}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, p := range data {
		row := make([]string, 0, 4)
		row = append(row, strconv.Itoa(i))
		if withTime {
			row = append(row, p.Time.Format(time.RFC3339Nano))
		}
		row = append(row,
			strconv.FormatFloat(p.Value, 'g', -1, 64),
			strconv.FormatFloat(scores[i], 'g', -1, 64))
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
