package automl

import (
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// writeSearchHistory plots the fitness of each successful evaluation against
// the time it finished, with the running best as a step line.
func writeSearchHistory(dir, scoring string, history []*Individual) error {
	var points, best plotter.XYs
	top := math.Inf(-1)
	for _, ind := range history {
		if ind.Failed() {
			continue
		}
		x := ind.Found.Seconds()
		points = append(points, plotter.XY{X: x, Y: ind.Fitness})
		if ind.Fitness > top {
			top = ind.Fitness
		}
		best = append(best, plotter.XY{X: x, Y: top})
	}
	if len(points) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "search history has no successful evaluation")
	}

	p := plot.New()
	p.Title.Text = "Search history"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = scoring

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return errors.Wrap(err, "plot evaluations")
	}
	line, err := plotter.NewLine(best)
	if err != nil {
		return errors.Wrap(err, "plot best fitness")
	}
	line.StepStyle = plotter.PreStep
	p.Add(scatter, line, plotter.NewGrid())
	p.Legend.Add("evaluation", scatter)
	p.Legend.Add("best", line)
	p.Legend.Top = false

	path := filepath.Join(dir, historyPlotName)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
