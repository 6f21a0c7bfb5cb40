package linear

// Solver names accepted by WithSolver.
const (
	SolverLBFGS = "lbfgs"
	SolverGD    = "gd"
)

// Option is a function that configures LogisticRegression
type Option func(*LogisticRegression)

// WithC sets the inverse regularization strength
func WithC(c float64) Option {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithMaxIter sets the maximum number of solver iterations
func WithMaxIter(maxIter int) Option {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithTol sets the tolerance for the optimization
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithSolver selects "lbfgs" (default) or "gd"
func WithSolver(solver string) Option {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithRandomState seeds the initial weights. A negative seed starts from zero.
func WithRandomState(seed int64) Option {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}
