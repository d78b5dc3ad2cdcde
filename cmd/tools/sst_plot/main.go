package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/downsampling"
	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/seriesio"
)

var (
	seriesColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	scoreColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

func main() {
	input := flag.String("input", "", "Input CSV file (required)")
	output := flag.String("output", "sst.png", "Output PNG file")
	valueCol := flag.Int("value-col", 0, "0-based column holding the values")
	timeCol := flag.Int("time-col", -1, "0-based column holding timestamps (-1 for none)")
	timeLayout := flag.String("time-layout", time.RFC3339, "Go time layout of the time column")

	window := flag.Int("window", 0, "Window length (required)")
	nComponents := flag.Int("n", changepoint.DefaultNComponents, "Number of dominant components compared")
	useSVD := flag.Bool("svd", false, "Use exact SVD instead of FELIX-SST Lanczos")
	seed := flag.Int64("seed", 0, "Random seed (0 = clock)")
	threshold := flag.Float64("threshold", 0.5, "Minimum score of marked change points")

	width := flag.Float64("width", 12, "Image width in inches")
	height := flag.Float64("height", 6, "Image height in inches")
	title := flag.String("title", "", "Plot title (defaults to the input file name)")
	mode := flag.String("downsample", string(downsampling.ModeAuto), "Downsampling mode: none, auto, lttb, minmax, m4")
	maxPoints := flag.Int("max-points", 2000, "Maximum samples drawn per panel")

	flag.Parse()

	if *input == "" || *window <= 0 {
		log.Fatal("Error: -input and -window parameters are required")
	}
	if !downsampling.IsValid(*mode) {
		log.Fatalf("Error: invalid -downsample mode %q\n", *mode)
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Error opening input: %v\n", err)
	}
	data, err := seriesio.ReadCSV(f, seriesio.ReadOptions{ValueColumn: *valueCol, TimeColumn: *timeCol, TimeLayout: *timeLayout})
	_ = f.Close()
	if err != nil {
		log.Fatalf("Error reading series: %v\n", err)
	}

	sst, err := changepoint.New(*window,
		changepoint.WithNComponents(*nComponents),
		changepoint.WithLanczos(!*useSVD),
		changepoint.WithSeed(*seed),
		changepoint.WithLogger(logging.NewDevelopment()),
	)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	values := data.Values()
	scores, err := sst.ScoreOffline(values)
	if err != nil {
		log.Fatalf("Error scoring series: %v\n", err)
	}
	points := changepoint.ExtractChangePoints(scores, *threshold, *window)

	if *title == "" {
		*title = *input
	}
	seriesXYs, err := sampled(values, downsampling.Mode(*mode), *maxPoints)
	if err != nil {
		log.Fatalf("Error downsampling series: %v\n", err)
	}
	scoreXYs, err := sampled(scores, downsampling.Mode(*mode), *maxPoints)
	if err != nil {
		log.Fatalf("Error downsampling scores: %v\n", err)
	}

	seriesPlot, err := linePlot(*title, "value", seriesXYs, seriesColor, nil)
	if err != nil {
		log.Fatalf("Error building plot: %v\n", err)
	}
	scorePlot, err := linePlot(fmt.Sprintf("%s score (w=%d)", sst.Algorithm(), *window), "score", scoreXYs, scoreColor, points)
	if err != nil {
		log.Fatalf("Error building plot: %v\n", err)
	}
	scorePlot.Y.Min = 0

	if err := savePanels(*output, vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch, seriesPlot, scorePlot); err != nil {
		log.Fatalf("Error saving plot: %v\n", err)
	}

	fmt.Printf("Wrote %s (%d samples, %d change points)\n", *output, len(values), len(points))
}

// sampled keeps at most maxPoints samples of ys, indexed by position
func sampled(ys []float64, mode downsampling.Mode, maxPoints int) (plotter.XYs, error) {
	if maxPoints <= 0 {
		mode = downsampling.ModeNone
	}
	indices, values, err := downsampling.Apply(ys, mode, maxPoints)
	if err != nil {
		return nil, err
	}
	xys := make(plotter.XYs, len(indices))
	for i, idx := range indices {
		xys[i] = plotter.XY{X: float64(idx), Y: values[i]}
	}
	return xys, nil
}

// linePlot draws xys, marking points when given
func linePlot(title, yLabel string, xys plotter.XYs, c color.Color, points []changepoint.ChangePoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "index"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Color = c
	p.Add(line)

	if len(points) > 0 {
		marks := make(plotter.XYs, len(points))
		for i, cp := range points {
			marks[i] = plotter.XY{X: float64(cp.Index), Y: cp.Score}
		}
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3)
		scatter.GlyphStyle.Color = color.Black
		p.Add(scatter)
		p.Legend.Add("change point", scatter)
	}
	return p, nil
}

// savePanels stacks plots vertically into one PNG
func savePanels(path string, width, height vg.Length, plots ...*plot.Plot) error {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows: len(plots),
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter * 4,
	}
	canvases := plot.Align(grid, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}
