package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core/model"
	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/metrics"
	"github.com/YuminosukeSato/smtgo/pkg/dataset"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/pkg/telemetry"
	"github.com/YuminosukeSato/smtgo/problems"
	"github.com/YuminosukeSato/smtgo/sampling"
	"github.com/YuminosukeSato/smtgo/surrogate"
	"github.com/YuminosukeSato/smtgo/surrogate/catalog"
)

type runFlags struct {
	model       string
	problem     string
	ndim        int
	nt          int
	ne          int
	seed        uint64
	optionsFile string
	extrapTrain bool
	extrapPred  bool
	plotPath    string
	savePath    string
	metricsPath string
	summaryPath string
	logLevel    string
	quietModel  bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train a model on an analytic problem and report its error",
		Long: `run samples nt training points of the problem with LHS, trains the model,
and reports the RMSE and relative error on ne random test points.

--extrapolate-train adds one point at upper+1 in every dimension before
training; models that declare xlimits reject it. --extrapolate-predict
evaluates the trained model at that point instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := log.SetupLogger(cmd.ErrOrStderr(), f.logLevel); err != nil {
				return err
			}
			return runExperiment(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.model, "model", "RMTS", "surrogate model name")
	fl.StringVar(&f.problem, "problem", "carre", "analytic problem name")
	fl.IntVar(&f.ndim, "ndim", 3, "number of input dimensions")
	fl.IntVar(&f.nt, "nt", 500, "number of training points")
	fl.IntVar(&f.ne, "ne", 100, "number of test points")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed of the samplers")
	fl.StringVar(&f.optionsFile, "options", "", "YAML file of model options")
	fl.BoolVar(&f.extrapTrain, "extrapolate-train", false, "add a training point outside xlimits")
	fl.BoolVar(&f.extrapPred, "extrapolate-predict", false, "predict at a point outside xlimits")
	fl.StringVar(&f.plotPath, "plot", "", "write a parity plot of the test points (png, svg or pdf)")
	fl.StringVar(&f.savePath, "save", "", "save the training points to this SQLite file")
	fl.StringVar(&f.metricsPath, "metrics-file", "", "write prometheus metrics in text format to this file")
	fl.StringVar(&f.summaryPath, "summary", "", "write a JSON summary of the trained model to this file")
	fl.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	fl.BoolVar(&f.quietModel, "quiet", false, "set print_global=false on the model")
	return cmd
}

func buildModel(f *runFlags, prob problems.Problem) (*surrogate.Model, error) {
	sm, err := catalog.New(f.model)
	if err != nil {
		return nil, err
	}
	o := sm.Options().Clone()
	if f.optionsFile != "" {
		file, err := os.Open(f.optionsFile)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if err := o.LoadYAML(file); err != nil {
			return nil, err
		}
	}
	if o.Schema().Has(surrogate.OptXLimits) && !o.IsSet(surrogate.OptXLimits) {
		if err := o.Set(surrogate.OptXLimits, prob.XLimits()); err != nil {
			return nil, err
		}
	}
	if f.quietModel {
		if err := o.Set(surrogate.OptPrintGlobal, false); err != nil {
			return nil, err
		}
	}
	if err := sm.SetOptions(o); err != nil {
		return nil, err
	}
	return sm, nil
}

// upperPlusOne は xlimits の上限 + 1 の一点を返す。
func upperPlusOne(prob problems.Problem) *mat.Dense {
	xl := prob.XLimits()
	d := prob.NDim()
	x := mat.NewDense(1, d, nil)
	for j := 0; j < d; j++ {
		x.Set(0, j, xl.At(j, 1)+1)
	}
	return x
}

func runExperiment(ctx context.Context, out io.Writer, f *runFlags) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.GetLoggerWithName("smt")

	prob, err := problems.New(f.problem, f.ndim)
	if err != nil {
		return err
	}
	sm, err := buildModel(f, prob)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	collector, err := telemetry.NewCollector(registry)
	if err != nil {
		return err
	}
	sm.SetTelemetry(collector)
	if f.metricsPath != "" {
		defer func() {
			if werr := writeMetrics(registry, f.metricsPath); werr != nil {
				logger.Error("Failed to write metrics", werr)
				if err == nil {
					err = werr
				}
			}
		}()
	}

	xt, err := (&sampling.LHS{XLimits: prob.XLimits(), Seed: f.seed}).Sample(f.nt)
	if err != nil {
		return err
	}
	yt, err := prob.Evaluate(xt)
	if err != nil {
		return err
	}
	if err := sm.AddTrainingPoints(training.Exact, xt, yt); err != nil {
		return err
	}

	xExtrap := upperPlusOne(prob)
	yExtrap, err := prob.Evaluate(xExtrap)
	if err != nil {
		return err
	}
	if f.extrapTrain {
		if err := sm.AddTrainingPoints(training.Exact, xExtrap, yExtrap); err != nil {
			return err
		}
	}

	if f.savePath != "" {
		if err := saveDataset(ctx, f, sm); err != nil {
			return err
		}
	}

	if err := sm.Train(); err != nil {
		return err
	}

	xe, err := (&sampling.Random{XLimits: prob.XLimits(), Seed: f.seed + 1}).Sample(f.ne)
	if err != nil {
		return err
	}
	ye, err := prob.Evaluate(xe)
	if err != nil {
		return err
	}
	yp, err := sm.Predict(xe)
	if err != nil {
		return err
	}
	rmse, err := metrics.RMSEMatrix(ye, yp)
	if err != nil {
		return err
	}
	rel, err := metrics.RelativeError(ye, yp)
	if err != nil {
		return err
	}
	logger.Info("Evaluation finished",
		log.ModelNameKey, sm.Name(),
		log.ProblemKey, prob.Name(),
		log.RMSEKey, rmse,
		log.RelativeErrorKey, rel,
	)
	fmt.Fprintf(out, "model=%s problem=%s ndim=%d nt=%d ne=%d\n", sm.Name(), prob.Name(), f.ndim, f.nt, f.ne)
	fmt.Fprintf(out, "rmse=%.6g relative_error=%.6g\n", rmse, rel)

	if f.extrapPred {
		y, err := sm.Predict(xExtrap)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "extrapolated prediction=%.6g exact=%.6g\n", y.At(0, 0), yExtrap.At(0, 0))
	}

	if f.summaryPath != "" {
		sum := sm.Summary()
		sum.Metadata["rmse"] = rmse
		sum.Metadata["relative_error"] = rel
		if err := model.SaveSummary(sum, f.summaryPath); err != nil {
			return err
		}
	}

	if f.plotPath != "" {
		if err := parityPlot(f.plotPath, sm.Name()+" on "+prob.Name(), ye, yp); err != nil {
			return err
		}
		fmt.Fprintf(out, "plot written to %s\n", f.plotPath)
	}
	return nil
}

func saveDataset(ctx context.Context, f *runFlags, sm *surrogate.Model) error {
	db, err := dataset.Open(ctx, f.savePath)
	if err != nil {
		return err
	}
	defer db.Close()
	name := fmt.Sprintf("%s-%s-%d", sm.Name(), f.problem, f.ndim)
	return db.Save(ctx, name, sm.TrainingPoints())
}

func writeMetrics(g prometheus.Gatherer, path string) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(file, mf); err != nil {
			return err
		}
	}
	return nil
}
