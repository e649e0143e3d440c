package sim

import (
	"fmt"
	"image/color"
	"math"

	kkkf "github.com/diegoolguinw/KKKF"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// xyErrors pairs points with their vertical error ranges so it satisfies the
// XYer and YErrorer interfaces that plotter.NewYErrorBars expects.
type xyErrors struct {
	plotter.XYs
	plotter.YErrors
}

// NewSeriesPlot plots one component of a filtering run against the step index:
// the true states and the posterior means as lines, the measurements as a
// scatter, and a band of one posterior standard deviation around the means.
// states and observations store one column per step (the Trajectory layout);
// estimates is the per-step output of a filter run over the observations.
// It returns error if any data source is nil or empty, if the step counts
// disagree, or if dim indexes outside the plotted components.
func NewSeriesPlot(dim int, states, observations *mat.Dense, estimates []kkkf.Estimate) (*plot.Plot, error) {
	if states == nil || observations == nil || len(estimates) == 0 {
		return nil, fmt.Errorf("invalid data supplied")
	}

	nx, steps := states.Dims()
	ny, osteps := observations.Dims()

	if steps != osteps || steps != len(estimates) {
		return nil, fmt.Errorf("mismatched step counts: %d states, %d observations, %d estimates", steps, osteps, len(estimates))
	}

	if dim < 0 || dim >= nx || dim >= ny {
		return nil, fmt.Errorf("invalid component index: %d", dim)
	}

	truth := make(plotter.XYs, steps)
	meas := make(plotter.XYs, steps)
	post := make(plotter.XYs, steps)
	band := xyErrors{
		XYs:     make(plotter.XYs, steps),
		YErrors: make(plotter.YErrors, steps),
	}

	for t := 0; t < steps; t++ {
		truth[t].X, truth[t].Y = float64(t), states.At(dim, t)
		meas[t].X, meas[t].Y = float64(t), observations.At(dim, t)

		mean := estimates[t].Val().AtVec(dim)
		std := math.Sqrt(estimates[t].Cov().At(dim, dim))

		post[t].X, post[t].Y = float64(t), mean
		band.XYs[t].X, band.XYs[t].Y = float64(t), mean
		band.YErrors[t].Low, band.YErrors[t].High = std, std
	}

	p := plot.New()

	p.Title.Text = "Filtering run"
	p.X.Label.Text = "step"
	p.Y.Label.Text = fmt.Sprintf("x[%d]", dim)
	p.Legend.Top = true

	truthLine, err := plotter.NewLine(truth)
	if err != nil {
		return nil, err
	}
	truthLine.Color = color.RGBA{R: 255, B: 128, A: 255}

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	measScatter, err := plotter.NewScatter(meas)
	if err != nil {
		return nil, err
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(measScatter)
	p.Legend.Add("measurement", measScatter)

	postLine, err := plotter.NewLine(post)
	if err != nil {
		return nil, err
	}
	postLine.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	postLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(postLine)
	p.Legend.Add("posterior mean", postLine)

	errBars, err := plotter.NewYErrorBars(band)
	if err != nil {
		return nil, err
	}
	errBars.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	errBars.CapWidth = vg.Points(2)

	p.Add(errBars)

	// mark the posterior means so they stay visible under the error bars
	postPoints, err := plotter.NewScatter(post)
	if err != nil {
		return nil, err
	}
	postPoints.GlyphStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	postPoints.Shape = draw.CrossGlyph{}
	postPoints.GlyphStyle.Radius = vg.Points(2)

	p.Add(postPoints)

	return p, nil
}
