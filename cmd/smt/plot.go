package main

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// parityPlot は正解値に対する予測値の散布図と y = x の線を描く。
// 出力形式は path の拡張子で決まる。
func parityPlot(path, title string, yTrue, yPred mat.Matrix) error {
	n, _ := yTrue.Dims()
	if n == 0 {
		return errors.NewValueError("parityPlot", "no points to plot")
	}
	pts := make(plotter.XYs, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		pts[i].X = yTrue.At(i, 0)
		pts[i].Y = yPred.At(i, 0)
		lo = math.Min(lo, math.Min(pts[i].X, pts[i].Y))
		hi = math.Max(hi, math.Max(pts[i].X, pts[i].Y))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "prediction"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "parityPlot")
	}
	diag, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "parityPlot")
	}
	p.Add(scatter, diag, plotter.NewGrid())
	p.Legend.Add("test points", scatter)
	p.Legend.Add("y = x", diag)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "parityPlot: save %s", path)
	}
	return nil
}
