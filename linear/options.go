package linear

// Option configures a LeastSquares solver.
type Option func(*LeastSquares)

// WithFitIntercept sets whether to calculate the intercept.
func WithFitIntercept(fit bool) Option {
	return func(ls *LeastSquares) {
		ls.fitIntercept = fit
	}
}

// WithRCond sets the relative singular value cutoff used when the design
// matrix is rank deficient.
func WithRCond(rcond float64) Option {
	return func(ls *LeastSquares) {
		ls.rcond = rcond
	}
}

// WithParallelThreshold sets the row count above which design matrix
// assembly runs in parallel.
func WithParallelThreshold(n int) Option {
	return func(ls *LeastSquares) {
		ls.parallelThreshold = n
	}
}
