package surrogate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/core"
	"github.com/YuminosukeSato/smtgo/core/model"
	"github.com/YuminosukeSato/smtgo/core/options"
	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
	"github.com/YuminosukeSato/smtgo/pkg/telemetry"
)

// DomainPolicy says when training inputs are checked against xlimits.
type DomainPolicy int

const (
	// DomainIgnore: the variant declares no training domain.
	DomainIgnore DomainPolicy = iota
	// DomainEager: every AddTrainingPoints batch is checked once xlimits is
	// bound, and the whole store is checked again by Train.
	DomainEager
	// DomainDeferred: the whole store is checked by Train only.
	DomainDeferred
)

func (p DomainPolicy) String() string {
	switch p {
	case DomainEager:
		return "eager"
	case DomainDeferred:
		return "deferred"
	default:
		return "ignore"
	}
}

// Predictor is the trained representation produced by a FitFunc.
type Predictor = core.Predictor

// FitInput is what a fitting routine receives. Points is a private snapshot
// of the store and may be read freely.
type FitInput struct {
	Options *options.Options
	Points  *training.Store
	// Bounds is nil when the variant has no xlimits option.
	Bounds *training.Bounds
	// Logger is silenced when print_solver or print_global is false.
	Logger log.Logger
}

// FitFunc fits a variant on in and returns its predictor.
type FitFunc func(in FitInput) (Predictor, error)

// Spec describes a surrogate variant.
type Spec struct {
	Name   string
	Schema *options.Schema
	Policy DomainPolicy
	Fit    FitFunc
}

func (s Spec) validate() error {
	switch {
	case s.Name == "":
		return errors.NewValueError("surrogate.New", "spec name is required")
	case s.Schema == nil:
		return errors.NewValueError("surrogate.New", "spec schema is required")
	case s.Fit == nil:
		return errors.NewValueError("surrogate.New", "spec fit function is required")
	case s.Policy != DomainIgnore && !s.Schema.Has(OptXLimits):
		return errors.NewValueError("surrogate.New", s.Name+": domain policy "+s.Policy.String()+" requires an xlimits option")
	}
	return nil
}

// Model is a surrogate model instance. It owns its options and training
// points. Methods are not safe for concurrent use except IsTrained.
type Model struct {
	spec      Spec
	opts      *options.Options
	points    *training.Store
	state     *model.StateManager
	predictor Predictor
	collector *telemetry.Collector
}

// New creates a Model with default options and an empty store.
func New(spec Spec) (*Model, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &Model{
		spec:   spec,
		opts:   options.NewNamed(spec.Name, spec.Schema),
		points: training.NewStore(),
		state:  model.NewStateManager(),
	}, nil
}

// MustNew is New that panics on an invalid spec.
func MustNew(spec Spec) *Model {
	m, err := New(spec)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the variant name.
func (m *Model) Name() string { return m.spec.Name }

// Spec returns the variant description.
func (m *Model) Spec() Spec { return m.spec }

// DomainPolicy returns when training inputs are domain checked.
func (m *Model) DomainPolicy() DomainPolicy { return m.spec.Policy }

// Options returns the live options instance. Changes made through it are
// validated against the domain at the next Train.
func (m *Model) Options() *options.Options { return m.opts }

// SetOptions replaces the options with a clone of o, which must use the
// variant's schema.
func (m *Model) SetOptions(o *options.Options) error {
	if o == nil || o.Schema() != m.spec.Schema {
		return errors.NewValueError(m.spec.Name+".SetOptions", "options were not built from this model's schema")
	}
	staged := o.Clone()
	if err := m.revalidate(staged); err != nil {
		return err
	}
	m.opts = staged
	return nil
}

// SetOption sets one option. For DomainEager variants a new xlimits is
// rejected when points already stored fall outside it.
func (m *Model) SetOption(key string, value any) error {
	staged := m.opts.Clone()
	if err := staged.Set(key, value); err != nil {
		return err
	}
	if key == OptXLimits {
		if err := m.revalidate(staged); err != nil {
			return err
		}
	}
	m.opts = staged
	return nil
}

func (m *Model) revalidate(o *options.Options) error {
	if m.spec.Policy != DomainEager || m.points.Len() == 0 {
		return nil
	}
	b, err := boundsOf(o)
	if err != nil || b == nil {
		return err
	}
	if err := training.CheckStore(m.points, *b); err != nil {
		m.recordViolation(err)
		return err
	}
	return nil
}

// Fresh returns an untrained Model of the same variant with a clone of the
// current options and an empty store.
func (m *Model) Fresh() *Model {
	return &Model{
		spec:      m.spec,
		opts:      m.opts.Clone(),
		points:    training.NewStore(),
		state:     model.NewStateManager(),
		collector: m.collector,
	}
}

// SetTelemetry attaches c. A nil collector disables metrics.
func (m *Model) SetTelemetry(c *telemetry.Collector) { m.collector = c }

func boundsOf(o *options.Options) (*training.Bounds, error) {
	if !o.Schema().Has(OptXLimits) {
		return nil, nil
	}
	xl, err := o.Matrix(OptXLimits)
	if err != nil || xl == nil {
		return nil, err
	}
	b, err := training.NewBounds(xl)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (m *Model) flag(key string) bool {
	v, err := m.opts.Bool(key)
	return err == nil && v
}

// logger returns the model logger, or a no-op logger when print_global or
// the given switch is off.
func (m *Model) logger(sw string) log.Logger {
	if !m.flag(OptPrintGlobal) || (sw != "" && !m.flag(sw)) {
		return log.Nop()
	}
	return log.GetLoggerWithName("surrogate").With(log.ModelNameKey, m.spec.Name)
}

func (m *Model) recordViolation(err error) {
	var dv *errors.DomainViolationError
	if errors.As(err, &dv) {
		m.collector.DomainViolation(m.spec.Name, dv.Kind.String())
	}
}

// AddTrainingPoints appends (X, Y) to fidelity class ("" means
// training.Exact). The call is all-or-nothing: on any shape error or, for
// DomainEager variants with xlimits bound, any domain violation, nothing is
// stored.
func (m *Model) AddTrainingPoints(class string, X, Y mat.Matrix) error {
	if class == "" {
		class = training.Exact
	}
	logger := m.logger(OptPrintTraining)

	if err := m.points.CheckShapes(X, Y); err != nil {
		return err
	}
	if m.spec.Policy == DomainEager {
		b, err := boundsOf(m.opts)
		if err != nil {
			return err
		}
		if b != nil {
			if err := training.CheckDomain(X, *b); err != nil {
				m.recordViolation(err)
				logger.Warn("Training points rejected",
					log.OperationKey, log.OperationAddTrainingPoints,
					log.FidelityClassKey, class,
					log.ErrorCodeKey, log.ErrorDomainViolation,
					log.ErrAttrKey, err,
				)
				return err
			}
		}
	}
	if err := m.points.Add(class, X, Y); err != nil {
		return err
	}

	rows, _ := X.Dims()
	m.collector.TrainingPoints(m.spec.Name, class, rows)
	logger.Debug("Training points added",
		log.OperationKey, log.OperationAddTrainingPoints,
		log.FidelityClassKey, class,
		log.SamplesKey, rows,
	)
	return nil
}

// TrainingPoints returns a copy of the store.
func (m *Model) TrainingPoints() *training.Store { return m.points.Clone() }

// ResetTrainingPoints discards every stored point. A trained predictor is
// kept until the next successful Train.
func (m *Model) ResetTrainingPoints() { m.points.Reset() }

// Train fits the variant on all stored points of all fidelity classes.
//
// Train may be called again after more points are added; it refits on the
// whole store. On failure the model keeps the predictor of the previous
// successful Train, if any.
func (m *Model) Train() error {
	start := time.Now()
	err := m.train()
	m.collector.Train(m.spec.Name, time.Since(start), err)
	return err
}

func (m *Model) train() error {
	name := m.spec.Name
	logger := m.logger(OptPrintTraining)

	if m.points.Len() == 0 {
		return errors.NewModelError(name+".Train", "no training points", errors.ErrEmptyData)
	}
	if err := m.opts.RequireSet(); err != nil {
		return err
	}

	bounds, err := boundsOf(m.opts)
	if err != nil {
		return err
	}
	if m.spec.Policy != DomainIgnore && bounds != nil {
		if err := training.CheckStore(m.points, *bounds); err != nil {
			m.recordViolation(err)
			logger.Error("Training failed", err,
				log.OperationKey, log.OperationTrain,
				log.ErrorCodeKey, log.ErrorDomainViolation,
				log.DomainPolicyKey, m.spec.Policy.String(),
			)
			return err
		}
	}

	nx, ny := m.points.Dims()
	nt := m.points.Len()
	m.logger(OptPrintProblem).Info("Problem size",
		log.SamplesKey, nt,
		log.FeaturesKey, nx,
		log.TargetsKey, ny,
	)
	logger.Info("Training started", log.OperationKey, log.OperationTrain)

	in := FitInput{
		Options: m.opts.Clone(),
		Points:  m.points.Clone(),
		Bounds:  bounds,
		Logger:  m.logger(OptPrintSolver),
	}
	start := time.Now()
	var p Predictor
	err = errors.SafeExecute(name+".Train", func() error {
		var fitErr error
		p, fitErr = m.spec.Fit(in)
		return fitErr
	})
	if err == nil && p == nil {
		err = errors.NewModelError(name+".Train", "fit returned no predictor", nil)
	}
	if err != nil {
		logger.Error("Training failed", err, log.OperationKey, log.OperationTrain)
		return err
	}

	m.predictor = p
	m.state.SetDimensions(nx, ny, nt)
	m.state.SetTrained()
	logger.Info("Training finished",
		log.OperationKey, log.OperationTrain,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// IsTrained reports whether Train has succeeded at least once.
func (m *Model) IsTrained() bool { return m.state.IsTrained() }

// Trained returns the current predictor, or nil before the first Train.
func (m *Model) Trained() Predictor { return m.predictor }

// Predict evaluates the model at x (n, nx) and returns (n, ny). x is never
// checked against xlimits.
func (m *Model) Predict(x *mat.Dense) (*mat.Dense, error) {
	if err := m.state.RequireTrained(m.spec.Name); err != nil {
		return nil, err
	}
	if x == nil {
		return nil, errors.NewValueError(m.spec.Name+".Predict", "x must not be nil")
	}
	nx, ny, _ := m.state.GetDimensions()
	rows, cols := x.Dims()
	if cols != nx {
		return nil, errors.NewDimensionError(m.spec.Name+".Predict", nx, cols, 1)
	}

	y, err := m.predictor.Predict(x)
	if err != nil {
		return nil, err
	}
	if r, c := y.Dims(); r != rows || c != ny {
		return nil, errors.NewModelError(m.spec.Name+".Predict",
			fmt.Sprintf("predictor returned (%d, %d), want (%d, %d)", r, c, rows, ny), nil)
	}

	m.collector.Predictions(m.spec.Name, rows)
	m.logger(OptPrintPrediction).Debug("Prediction done",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, rows,
	)
	return y, nil
}

// Summary describes the model for logs and persistence.
func (m *Model) Summary() *model.Summary {
	nx, ny, _ := m.state.GetDimensions()
	if !m.IsTrained() {
		nx, ny = m.points.Dims()
	}
	opts := make(map[string]interface{})
	for k, v := range m.opts.Bindings() {
		if d, ok := v.(*mat.Dense); ok {
			r, _ := d.Dims()
			rowsOut := make([][]float64, r)
			for i := range rowsOut {
				rowsOut[i] = mat.Row(nil, i, d)
			}
			v = rowsOut
		}
		opts[k] = v
	}
	return &model.Summary{
		Model:   m.spec.Name,
		Version: model.SummaryVersion,
		Trained: m.IsTrained(),
		NX:      nx,
		NY:      ny,
		Points:  m.points.Counts(),
		Options: opts,
		Metadata: map[string]interface{}{
			"domain_policy": m.spec.Policy.String(),
		},
	}
}

var _ core.Surrogate = (*Model)(nil)
