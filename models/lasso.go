package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 1000
	DefaultTolerance  = 1e-4
)

// LassoOptions configures the coordinate descent fit
type LassoOptions struct {
	// WarmStartBeta seeds the coefficients, including the intercept when FitIntercept is set.
	WarmStartBeta []float64

	// Lambda is the L1 weight. 0 reduces the fit to ordinary least squares.
	Lambda float64

	// PenaltyFactors scale Lambda per design matrix column. 0 leaves a column unpenalized and
	// nil penalizes every column equally.
	PenaltyFactors []float64

	// Iterations caps the number of sweeps over the coefficients.
	Iterations int

	// Tolerance is the largest coefficient update, relative to the largest coefficient, that
	// still counts as converged.
	Tolerance float64

	// FitIntercept prepends a constant column that is never penalized by PenaltyFactors
	// unless a factor is given for it.
	FitIntercept bool
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	for _, p := range l.PenaltyFactors {
		if p < 0 {
			return nil, ErrNegativePenalty
		}
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:        DefaultLambda,
		Iterations:    DefaultIterations,
		Tolerance:     DefaultTolerance,
		WarmStartBeta: nil,
		FitIntercept:  true,
	}
}

// LassoRegression fits an L1 penalized linear model with cyclic coordinate descent
type LassoRegression struct {
	opt *LassoOptions

	// per column caches built once per fit
	cols      [][]float64
	sqNorm    []float64
	threshold []float64

	coef      []float64
	intercept float64
}

// NewLassoRegression validates the options and returns an unfitted model
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit trains the coefficients against the single column target y
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	x, y, err := l.fitValidate(x, y)
	if err != nil {
		return err
	}
	_, n := x.Dims()
	l.cacheColumns(x)

	beta := make([]float64, n)
	copy(beta, l.opt.WarmStartBeta)

	// residual holds y - x*beta and is updated in place after each coordinate step
	residual := mat.Col(nil, 0, y)
	for j, b := range beta {
		if b != 0 {
			floats.AddScaled(residual, -b, l.cols[j])
		}
	}

	// after a converged pass over the active set, a full pass checks that no zeroed
	// coefficient wants to re-enter
	fullSweep := true
	for iter := 0; iter < l.opt.Iterations; iter++ {
		maxCoef, maxDelta := l.sweep(beta, residual, fullSweep)
		converged := maxDelta <= l.opt.Tolerance*maxCoef
		if converged && fullSweep {
			break
		}
		fullSweep = converged
	}

	if l.opt.FitIntercept {
		l.intercept, l.coef = beta[0], beta[1:]
		return nil
	}
	l.coef = beta
	return nil
}

// sweep runs one coordinate descent pass and returns the largest coefficient magnitude and
// the largest update seen
func (l *LassoRegression) sweep(beta, residual []float64, full bool) (float64, float64) {
	var maxCoef, maxDelta float64
	for j, prev := range beta {
		if !full && prev == 0 {
			continue
		}
		if l.sqNorm[j] == 0 {
			beta[j] = 0
			continue
		}

		next := SoftThreshold(prev+floats.Dot(l.cols[j], residual)/l.sqNorm[j], l.threshold[j])
		if delta := next - prev; delta != 0 {
			floats.AddScaled(residual, -delta, l.cols[j])
			maxDelta = math.Max(maxDelta, math.Abs(delta))
		}
		maxCoef = math.Max(maxCoef, math.Abs(next))
		beta[j] = next
	}
	return maxCoef, maxDelta
}

func (l *LassoRegression) fitValidate(x, y mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	if l.opt == nil {
		return nil, nil, ErrNoOptions
	}
	if x == nil {
		return nil, nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, nil, ErrNoTargetMatrix
	}

	m, n := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return nil, nil, fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	if l.opt.FitIntercept {
		x = withOnes(x)
		_, n = x.Dims()
	}

	if l.opt.WarmStartBeta != nil && len(l.opt.WarmStartBeta) != n {
		return nil, nil, fmt.Errorf("warm start beta has %d features instead of %d, %w", len(l.opt.WarmStartBeta), n, ErrWarmStartBetaSize)
	}
	if l.opt.PenaltyFactors != nil && len(l.opt.PenaltyFactors) != n {
		return nil, nil, fmt.Errorf("got %d penalty factors instead of %d, %w", len(l.opt.PenaltyFactors), n, ErrPenaltyFactorsSize)
	}
	return x, y, nil
}

func (l *LassoRegression) cacheColumns(x mat.Matrix) {
	_, n := x.Dims()
	l.cols = make([][]float64, n)
	l.sqNorm = make([]float64, n)
	l.threshold = make([]float64, n)
	for j := 0; j < n; j++ {
		col := mat.Col(nil, j, x)
		l.cols[j] = col
		l.sqNorm[j] = floats.Dot(col, col)

		weight := l.opt.Lambda
		if l.opt.PenaltyFactors != nil {
			weight *= l.opt.PenaltyFactors[j]
		}
		if l.sqNorm[j] > 0 {
			l.threshold[j] = weight / l.sqNorm[j]
		}
	}
}

// Predict returns x*coef, adding the intercept when one was fit
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	coef := l.coef
	if l.opt.FitIntercept {
		coef = append([]float64{l.intercept}, l.coef...)
		x = withOnes(x)
	}
	n := len(coef)

	_, xn := x.Dims()
	if xn != n {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, n, ErrFeatureLenMismatch)
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, coef))
	return res.RawVector().Data, nil
}

// Score returns the R² of the prediction against y. A constant target that is predicted
// exactly scores 1.
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if l.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}

	ySlice := mat.Col(nil, 0, y)

	score := stat.RSquaredFrom(res, ySlice, nil)
	if math.IsNaN(score) {
		score = 1.0
	}

	return score, nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoRegression) Coef() []float64 {
	return l.coef
}

// SoftThreshold shrinks x toward zero by gamma, returning 0 when |x| <= gamma
func SoftThreshold(x, gamma float64) float64 {
	switch {
	case x > gamma:
		return x - gamma
	case x < -gamma:
		return x + gamma
	}
	return 0
}

// withOnes prepends a constant column to x
func withOnes(x mat.Matrix) mat.Matrix {
	m, n := x.Dims()
	res := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		res.Set(i, 0, 1)
	}
	if n > 0 {
		res.Slice(0, m, 1, n+1).(*mat.Dense).Copy(x)
	}
	return res
}
