package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
)

// ChartOptions sizes rendered charts.
type ChartOptions struct {
	Width  int
	Height int
}

func (o ChartOptions) normalized() ChartOptions {
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 512
	}
	return o
}

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no groups to chart")

// RenderPNG draws the result as a PNG. Single-key results become a bar
// chart; two-key results become one line per series key over the x key.
func (r *Result) RenderPNG(w io.Writer, opt ChartOptions) error {
	if r.Empty() {
		return ErrNoData
	}
	opt = opt.normalized()
	if len(r.Question.Keys) == 1 || r.Question.Chart == ChartBar {
		return r.renderBars(w, opt)
	}
	return r.renderSeries(w, opt)
}

func (r *Result) yRange() *chart.ContinuousRange {
	top := 0.0
	for _, g := range r.Groups {
		top = math.Max(top, r.Value(g))
	}
	if top <= 0 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top * 1.15}
}

func (r *Result) renderBars(w io.Writer, opt ChartOptions) error {
	bars := make([]chart.Value, 0, len(r.Groups))
	for _, g := range r.Groups {
		bars = append(bars, chart.Value{Value: r.Value(g), Label: strings.Join(g.Keys, " / ")})
	}
	bw := (opt.Width - 120) / (2 * len(bars))
	if bw < 4 {
		bw = 4
	}
	if bw > 60 {
		bw = 60
	}
	bc := chart.BarChart{
		Title:      r.Question.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		BarWidth:   bw,
		BarSpacing: bw,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		YAxis:      chart.YAxis{Name: r.ValueColumn(), Range: r.yRange()},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (r *Result) renderSeries(w io.Writer, opt ChartOptions) error {
	xk := r.Question.XKey
	sk := 1 - xk

	var xLabels, sLabels []string
	xPos := map[string]int{}
	sPos := map[string]int{}
	for _, g := range r.Groups {
		if _, ok := xPos[g.Keys[xk]]; !ok {
			xPos[g.Keys[xk]] = len(xLabels)
			xLabels = append(xLabels, g.Keys[xk])
		}
		if _, ok := sPos[g.Keys[sk]]; !ok {
			sPos[g.Keys[sk]] = len(sLabels)
			sLabels = append(sLabels, g.Keys[sk])
		}
	}
	xs := make([][]float64, len(sLabels))
	ys := make([][]float64, len(sLabels))
	for _, g := range r.Groups {
		s := sPos[g.Keys[sk]]
		xs[s] = append(xs[s], float64(xPos[g.Keys[xk]]))
		ys[s] = append(ys[s], r.Value(g))
	}

	series := make([]chart.Series, 0, len(sLabels))
	for i, name := range sLabels {
		sortPoints(xs[i], ys[i])
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs[i],
			YValues: ys[i],
			Style:   chart.Style{StrokeWidth: 2, DotWidth: 4},
		})
	}
	ticks := make([]chart.Tick, len(xLabels))
	for i, l := range xLabels {
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	ch := chart.Chart{
		Title:      r.Question.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		XAxis: chart.XAxis{
			Name:  r.Question.Keys[xk].Label,
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(xLabels)) - 0.5},
		},
		YAxis:  chart.YAxis{Name: r.ValueColumn(), Range: r.yRange()},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// sortPoints orders a series by x so lines are drawn left to right.
func sortPoints(xs, ys []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
			ys[j], ys[j-1] = ys[j-1], ys[j]
		}
	}
}
