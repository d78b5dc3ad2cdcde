package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/seriesio"
)

func main() {
	input := flag.String("input", "-", "Input CSV file ('-' for stdin)")
	output := flag.String("output", "-", "Output CSV file ('-' for stdout)")
	valueCol := flag.Int("value-col", 0, "0-based column holding the values")
	timeCol := flag.Int("time-col", -1, "0-based column holding timestamps (-1 for none)")
	timeLayout := flag.String("time-layout", time.RFC3339, "Go time layout of the time column")

	window := flag.Int("window", 0, "Window length (required)")
	nComponents := flag.Int("n", changepoint.DefaultNComponents, "Number of dominant components compared")
	order := flag.Int("order", 0, "Trajectory matrix columns (0 = window)")
	lag := flag.Int("lag", 0, "History/test window distance (0 = order/2)")
	rank := flag.Int("rank", 0, "Lanczos rank (0 = derived from n)")
	eps := flag.Float64("eps", changepoint.DefaultEps, "Lanczos seed perturbation")
	seed := flag.Int64("seed", 0, "Random seed (0 = clock)")
	useSVD := flag.Bool("svd", false, "Use exact SVD instead of FELIX-SST Lanczos")
	workers := flag.Int("workers", 1, "Goroutines for the SVD path")

	threshold := flag.Float64("threshold", 0.5, "Minimum score of reported change points")
	minDistance := flag.Int("min-distance", 0, "Minimum samples between change points (0 = window)")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	if *window <= 0 {
		log.Fatal("Error: -window parameter is required")
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := logging.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, level)

	in, closeIn, err := openInput(*input)
	if err != nil {
		log.Fatalf("Error opening input: %v\n", err)
	}
	defer closeIn()

	opts := seriesio.ReadOptions{ValueColumn: *valueCol, TimeColumn: *timeCol, TimeLayout: *timeLayout}
	data, err := seriesio.ReadCSV(in, opts)
	if err != nil {
		log.Fatalf("Error reading series: %v\n", err)
	}

	sst, err := changepoint.New(*window,
		changepoint.WithNComponents(*nComponents),
		changepoint.WithOrder(*order),
		changepoint.WithLag(*lag),
		changepoint.WithRankLanczos(*rank),
		changepoint.WithEps(*eps),
		changepoint.WithSeed(*seed),
		changepoint.WithLanczos(!*useSVD),
		changepoint.WithWorkers(*workers),
		changepoint.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	start := time.Now()
	scores, err := sst.ScoreOffline(data.Values())
	if err != nil {
		log.Fatalf("Error scoring series: %v\n", err)
	}
	elapsed := time.Since(start)

	out, closeOut, err := openOutput(*output)
	if err != nil {
		log.Fatalf("Error opening output: %v\n", err)
	}
	defer closeOut()

	if err := seriesio.WriteScoresCSV(out, data, scores); err != nil {
		log.Fatalf("Error writing scores: %v\n", err)
	}

	distance := *minDistance
	if distance <= 0 {
		distance = *window
	}
	points := changepoint.ExtractChangePoints(scores, *threshold, distance)

	p := sst.Params()
	fmt.Fprintf(os.Stderr, "Scored %d samples with %s in %s (order=%d lag=%d n=%d rank=%d)\n",
		len(scores), sst.Algorithm(), elapsed, p.Order, p.Lag, p.NComponents, p.RankLanczos)
	for _, cp := range points {
		if t := data[cp.Index].Time; !t.IsZero() {
			fmt.Fprintf(os.Stderr, "change point: index=%d time=%s score=%.6f\n", cp.Index, t.Format(time.RFC3339), cp.Score)
		} else {
			fmt.Fprintf(os.Stderr, "change point: index=%d score=%.6f\n", cp.Index, cp.Score)
		}
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
