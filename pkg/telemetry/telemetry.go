// Package telemetry exposes Prometheus collectors for surrogate model
// activity: ingested training points, domain violations, training runs and
// predictions.
//
// All methods accept a nil *Collector and then do nothing, so models only
// need a collector when the caller attaches one.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Train results recorded in smtgo_train_total.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector owns the smtgo metric vectors registered on one registry.
type Collector struct {
	trainingPoints   *prometheus.CounterVec
	domainViolations *prometheus.CounterVec
	trainTotal       *prometheus.CounterVec
	trainDuration    *prometheus.HistogramVec
	predictions      *prometheus.CounterVec
}

// NewCollector creates the smtgo metrics and registers them with registry.
// It returns an error if any of them is already registered.
func NewCollector(registry prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		trainingPoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smtgo_training_points_total",
				Help: "Total number of training points accepted per fidelity class",
			},
			[]string{"model", "class"},
		),
		domainViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smtgo_domain_violations_total",
				Help: "Total number of training batches rejected by the domain guard",
			},
			[]string{"model", "kind"},
		),
		trainTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smtgo_train_total",
				Help: "Total number of Train calls by result",
			},
			[]string{"model", "result"},
		),
		trainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smtgo_train_duration_seconds",
				Help:    "Wall time of successful Train calls",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"model"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smtgo_predictions_total",
				Help: "Total number of predicted rows",
			},
			[]string{"model"},
		),
	}

	for _, m := range []prometheus.Collector{
		c.trainingPoints, c.domainViolations, c.trainTotal, c.trainDuration, c.predictions,
	} {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNewCollector is NewCollector that panics on registration failure.
func MustNewCollector(registry prometheus.Registerer) *Collector {
	c, err := NewCollector(registry)
	if err != nil {
		panic(err)
	}
	return c
}

// TrainingPoints counts n accepted points of class.
func (c *Collector) TrainingPoints(model, class string, n int) {
	if c == nil {
		return
	}
	c.trainingPoints.With(prometheus.Labels{"model": model, "class": class}).Add(float64(n))
}

// DomainViolation counts one rejected batch. kind is "above max" or "below min".
func (c *Collector) DomainViolation(model, kind string) {
	if c == nil {
		return
	}
	c.domainViolations.With(prometheus.Labels{"model": model, "kind": kind}).Inc()
}

// Train records the outcome of one Train call. Durations are observed only
// for successful runs.
func (c *Collector) Train(model string, d time.Duration, err error) {
	if c == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	c.trainTotal.With(prometheus.Labels{"model": model, "result": result}).Inc()
	if err == nil {
		c.trainDuration.With(prometheus.Labels{"model": model}).Observe(d.Seconds())
	}
}

// Predictions counts n predicted rows.
func (c *Collector) Predictions(model string, n int) {
	if c == nil {
		return
	}
	c.predictions.With(prometheus.Labels{"model": model}).Add(float64(n))
}
