// Package smtgo is a surrogate modeling toolbox: it fits cheap approximations
// of expensive functions from sampled training points and evaluates them at
// new inputs.
//
// Every model shares one contract. Options are declared in a schema and
// validated on assignment, training points are added per fidelity class,
// Train fits the model and Predict evaluates it:
//
//	sm, err := catalog.NewWithOptions("RMTS", map[string]any{"num_elem": 6})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = sm.SetOption(surrogate.OptXLimits, prob.XLimits())
//	if err := sm.AddTrainingPoints(training.Exact, xt, yt); err != nil {
//	    log.Fatal(err) // "Training pts above max for 0"
//	}
//	if err := sm.Train(); err != nil {
//	    log.Fatal(err)
//	}
//	y, err := sm.Predict(x)
//
// Models that declare xlimits (RMTS, RMTB) refuse to train on points outside
// that box. Prediction is never checked and extrapolates.
//
// # Packages
//
//   - core/options: typed option schemas and instances, YAML loading
//   - core/training: training point store and domain guard
//   - surrogate: the Model shared by all variants
//   - surrogate/ls, pa2, kpls, idw, rmts, rmtb: the variants
//   - surrogate/catalog: lookup by name
//   - problems, sampling: analytic benchmarks and designs of experiments
//   - metrics: error measures of a trained model
//   - pkg/dataset: SQLite persistence of training points
//   - pkg/telemetry: prometheus collectors
//   - pkg/log, pkg/errors: structured logging and error types
//   - cmd/smt: command line front end
package smtgo
