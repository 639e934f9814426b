package surrogate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/pkg/telemetry"
)

// meanPredictor predicts the column means of the training outputs.
type meanPredictor struct{ means []float64 }

func (p meanPredictor) Predict(x *mat.Dense) (*mat.Dense, error) {
	r, _ := x.Dims()
	y := mat.NewDense(r, len(p.means), nil)
	for i := 0; i < r; i++ {
		y.SetRow(i, p.means)
	}
	return y, nil
}

func fitMean(in FitInput) (Predictor, error) {
	_, Y := in.Points.StackAll()
	_, ny := Y.Dims()
	means := make([]float64, ny)
	for j := range means {
		means[j] = stat.Mean(mat.Col(nil, j, Y), nil)
	}
	return meanPredictor{means: means}, nil
}

func testSpec(name string, policy DomainPolicy, fit FitFunc) Spec {
	decls := []options.Declaration{}
	if policy != DomainIgnore {
		decls = append(decls, XLimitsDeclaration(true))
	}
	return Spec{Name: name, Schema: MustSchema(decls...), Policy: policy, Fit: fit}
}

func unitXLimits(d int) *mat.Dense {
	xl := mat.NewDense(d, 2, nil)
	for j := 0; j < d; j++ {
		xl.Set(j, 0, -1)
		xl.Set(j, 1, 1)
	}
	return xl
}

func quietModel(t *testing.T, spec Spec) *Model {
	t.Helper()
	m, err := New(spec)
	require.NoError(t, err)
	require.NoError(t, m.SetOption(OptPrintGlobal, false))
	return m
}

func TestNew_ValidatesSpec(t *testing.T) {
	_, err := New(Spec{Schema: MustSchema(), Fit: fitMean})
	assert.Error(t, err)
	_, err = New(Spec{Name: "X", Fit: fitMean})
	assert.Error(t, err)
	_, err = New(Spec{Name: "X", Schema: MustSchema()})
	assert.Error(t, err)
	_, err = New(Spec{Name: "X", Schema: MustSchema(), Policy: DomainEager, Fit: fitMean})
	assert.Error(t, err)
	assert.Panics(t, func() { MustNew(Spec{}) })

	m := MustNew(testSpec("MEAN", DomainIgnore, fitMean))
	assert.Equal(t, "MEAN", m.Name())
	assert.Equal(t, DomainIgnore, m.DomainPolicy())
	assert.Equal(t, "ignore", m.DomainPolicy().String())
	for _, k := range []string{OptPrintGlobal, OptPrintTraining, OptPrintPrediction, OptPrintProblem, OptPrintSolver} {
		v, err := m.Options().Bool(k)
		require.NoError(t, err)
		assert.True(t, v, k)
	}
}

func TestModel_PredictBeforeTrain(t *testing.T) {
	m := quietModel(t, testSpec("MEAN", DomainIgnore, fitMean))
	for i := 0; i < 3; i++ {
		_, err := m.Predict(mat.NewDense(1, 2, nil))
		var nt *errors.NotTrainedError
		require.True(t, errors.As(err, &nt))
		assert.Equal(t, "smtgo: MEAN: this model is not trained yet. Call Train() before using Predict()", err.Error())
		require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 2, []float64{0, 0}), mat.NewDense(1, 1, []float64{1})))
	}
	assert.Nil(t, m.Trained())
}

func TestModel_TrainAndPredict(t *testing.T) {
	m := quietModel(t, testSpec("MEAN", DomainIgnore, fitMean))

	err := m.Train()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	require.NoError(t, m.AddTrainingPoints("", mat.NewDense(2, 2, []float64{0, 0, 1, 1}), mat.NewDense(2, 1, []float64{1, 3})))
	require.NoError(t, m.AddTrainingPoints("0", mat.NewDense(1, 2, []float64{5, 5}), mat.NewDense(1, 1, []float64{5})))
	require.NoError(t, m.Train())
	assert.True(t, m.IsTrained())

	y, err := m.Predict(mat.NewDense(4, 2, nil))
	require.NoError(t, err)
	r, c := y.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 1, c)
	assert.InDelta(t, 3.0, y.At(0, 0), 1e-12)

	_, err = m.Predict(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = m.Predict(nil)
	assert.Error(t, err)

	// refit on the grown store
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 2, nil), mat.NewDense(1, 1, []float64{11})))
	require.NoError(t, m.Train())
	y, err = m.Predict(mat.NewDense(1, 2, nil))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, y.At(0, 0), 1e-12)

	s := m.Summary()
	require.NoError(t, s.Validate())
	assert.Equal(t, map[string]int{"0": 1, training.Exact: 3}, s.Points)
	assert.Equal(t, false, s.Options[OptPrintGlobal])
}

func TestModel_FailedTrainKeepsPreviousPredictor(t *testing.T) {
	calls := 0
	fit := func(in FitInput) (Predictor, error) {
		calls++
		if calls == 2 {
			return nil, fmt.Errorf("solver diverged")
		}
		if calls == 3 {
			panic("index out of range")
		}
		return fitMean(in)
	}
	m := quietModel(t, testSpec("FLAKY", DomainIgnore, fit))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{0}), mat.NewDense(1, 1, []float64{2})))
	require.NoError(t, m.Train())
	first := m.Trained()

	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{4})))
	err := m.Train()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver diverged")
	assert.Equal(t, first, m.Trained())

	err = m.Train()
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))

	y, err := m.Predict(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, 2.0, y.At(0, 0))
}

func TestModel_NilPredictorIsAnError(t *testing.T) {
	m := quietModel(t, testSpec("NIL", DomainIgnore, func(FitInput) (Predictor, error) { return nil, nil }))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, nil), mat.NewDense(1, 1, nil)))
	var me *errors.ModelError
	assert.True(t, errors.As(m.Train(), &me))
	assert.False(t, m.IsTrained())
}

func TestModel_EagerPolicy(t *testing.T) {
	m := quietModel(t, testSpec("EAGER", DomainEager, fitMean))

	// without xlimits the batch cannot be checked yet
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 2, []float64{3, 0}), mat.NewDense(1, 1, nil)))

	// a domain that excludes stored points is rejected
	err := m.SetOption(OptXLimits, unitXLimits(2))
	require.Error(t, err)
	assert.Equal(t, "Training pts above max for 0", err.Error())
	assert.False(t, m.Options().IsSet(OptXLimits))

	m.ResetTrainingPoints()
	require.NoError(t, m.SetOption(OptXLimits, unitXLimits(2)))

	X := mat.NewDense(2, 2, []float64{0, 0, 0.5, 1})
	require.NoError(t, m.AddTrainingPoints(training.Exact, X, mat.NewDense(2, 1, []float64{1, 2})))

	err = m.AddTrainingPoints(training.Exact, mat.NewDense(2, 2, []float64{0, 0, 0, -1.5}), mat.NewDense(2, 1, nil))
	require.Error(t, err)
	assert.Equal(t, "Training pts below min for 1", err.Error())
	assert.Equal(t, 2, m.TrainingPoints().Len(), "rejected batch must not be stored")

	// bypassing SetOption is caught by Train
	require.NoError(t, m.Options().Set(OptXLimits, mat.NewDense(2, 2, []float64{-1, 0.25, -1, 1})))
	err = m.Train()
	require.Error(t, err)
	assert.Equal(t, "Training pts above max for 0", err.Error())
	assert.False(t, m.IsTrained())
}

func TestModel_DeferredPolicy(t *testing.T) {
	m := quietModel(t, testSpec("DEFERRED", DomainDeferred, fitMean))

	err := m.Train()
	assert.Error(t, err)

	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{0.5}), mat.NewDense(1, 1, nil)))
	var missing *errors.MissingOptionError
	require.True(t, errors.As(m.Train(), &missing))

	require.NoError(t, m.SetOption(OptXLimits, unitXLimits(1)))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{2}), mat.NewDense(1, 1, nil)))
	assert.Equal(t, 2, m.TrainingPoints().Len())

	err = m.Train()
	require.Error(t, err)
	assert.Equal(t, "Training pts above max for 0", err.Error())
	var dv *errors.DomainViolationError
	require.True(t, errors.As(err, &dv))
	assert.Equal(t, 1, dv.Row)
}

func TestModel_IgnorePolicyAcceptsAnyInput(t *testing.T) {
	m := quietModel(t, testSpec("MEAN", DomainIgnore, fitMean))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{1e9}), mat.NewDense(1, 1, nil)))
	require.NoError(t, m.Train())
}

func TestModel_ShapeErrorsAreAllOrNothing(t *testing.T) {
	m := quietModel(t, testSpec("MEAN", DomainIgnore, fitMean))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 2, nil), mat.NewDense(1, 1, nil)))

	var dimErr *errors.DimensionError
	assert.True(t, errors.As(m.AddTrainingPoints(training.Exact, mat.NewDense(1, 3, nil), mat.NewDense(1, 1, nil)), &dimErr))
	assert.True(t, errors.As(m.AddTrainingPoints(training.Exact, mat.NewDense(2, 2, nil), mat.NewDense(1, 1, nil)), &dimErr))
	assert.Equal(t, 1, m.TrainingPoints().Len())
}

func TestModel_OptionsIndependence(t *testing.T) {
	spec := testSpec("EAGER", DomainEager, fitMean)
	template := quietModel(t, spec)
	require.NoError(t, template.SetOption(OptXLimits, unitXLimits(1)))

	a := template.Fresh()
	b := template.Fresh()
	require.NoError(t, b.SetOption(OptXLimits, mat.NewDense(1, 2, []float64{0, 5})))

	xa, _ := a.Options().Matrix(OptXLimits)
	xt, _ := template.Options().Matrix(OptXLimits)
	assert.Equal(t, 1.0, xa.At(0, 1))
	assert.Equal(t, 1.0, xt.At(0, 1))

	require.NoError(t, a.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{0}), mat.NewDense(1, 1, nil)))
	assert.Equal(t, 0, b.TrainingPoints().Len())
	assert.Equal(t, 0, template.TrainingPoints().Len())

	o := template.Options().Clone()
	require.NoError(t, o.Set(OptPrintSolver, false))
	require.NoError(t, a.SetOptions(o))
	require.NoError(t, o.Set(OptPrintSolver, true))
	v, _ := a.Options().Bool(OptPrintSolver)
	assert.False(t, v)

	other := options.New(MustSchema())
	assert.Error(t, a.SetOptions(other))
	assert.Error(t, a.SetOptions(nil))
}

func TestModel_Telemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := telemetry.MustNewCollector(reg)

	m := quietModel(t, testSpec("EAGER", DomainEager, fitMean))
	m.SetTelemetry(c)
	require.NoError(t, m.SetOption(OptXLimits, unitXLimits(1)))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(3, 1, []float64{0, 0.1, 0.2}), mat.NewDense(3, 1, nil)))
	require.Error(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{9}), mat.NewDense(1, 1, nil)))
	require.NoError(t, m.Train())
	_, err := m.Predict(mat.NewDense(2, 1, nil))
	require.NoError(t, err)

	got := gatherCounters(t, reg)
	assert.Equal(t, 3.0, got[`smtgo_training_points_total{class="exact",model="EAGER"}`])
	assert.Equal(t, 1.0, got[`smtgo_domain_violations_total{kind="above max",model="EAGER"}`])
	assert.Equal(t, 2.0, got[`smtgo_predictions_total{model="EAGER"}`])
	assert.Equal(t, 1.0, got[`smtgo_train_total{model="EAGER",result="success"}`])
}

// gatherCounters はレジストリ内の counter を name{label="value",...} をキーに集める。
func gatherCounters(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]float64)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			key := mf.GetName() + "{" + strings.Join(labels, ",") + "}"
			out[key] = metric.GetCounter().GetValue()
		}
	}
	return out
}

func TestModel_TrainingPointsIsACopy(t *testing.T) {
	m := quietModel(t, testSpec("MEAN", DomainIgnore, fitMean))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, []float64{0.5}), mat.NewDense(1, 1, []float64{2})))

	m.TrainingPoints().Walk(func(_ string, c training.Chunk) bool {
		c.X.Set(0, 0, -7)
		return true
	})
	X, _ := m.TrainingPoints().StackAll()
	assert.Equal(t, 0.5, X.At(0, 0))
}

func TestModel_LogsThroughProvider(t *testing.T) {
	prev := log.GetProvider()
	defer log.SetProvider(prev)
	provider, logger := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)

	m := MustNew(testSpec("MEAN", DomainIgnore, fitMean))
	require.NoError(t, m.AddTrainingPoints(training.Exact, mat.NewDense(1, 1, nil), mat.NewDense(1, 1, nil)))
	require.NoError(t, m.Train())

	assert.True(t, logger.ContainsMessage("Training finished"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "MEAN"))

	logger.Clear()
	require.NoError(t, m.SetOption(OptPrintTraining, false))
	require.NoError(t, m.Train())
	assert.False(t, logger.ContainsMessage("Training finished"))
	assert.True(t, logger.ContainsMessage("Problem size"))

	logger.Clear()
	require.NoError(t, m.SetOption(OptPrintGlobal, false))
	require.NoError(t, m.Train())
	_, err := m.Predict(mat.NewDense(1, 1, nil))
	require.NoError(t, err)
	assert.False(t, logger.ContainsMessage("Problem size"))
}
