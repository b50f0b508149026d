package models

import "errors"

// fit input errors
var (
	ErrNoOptions          = errors.New("model options not initialized")
	ErrNoTrainingMatrix   = errors.New("training matrix is nil")
	ErrNoTargetMatrix     = errors.New("target matrix is nil")
	ErrTargetLenMismatch  = errors.New("target rows do not match training rows")
	ErrWarmStartBetaSize  = errors.New("warm start coefficients do not match the number of features")
	ErrPenaltyFactorsSize = errors.New("penalty factors do not match the number of features")
)

// option errors
var (
	ErrNegativeLambda     = errors.New("lambda must be non-negative")
	ErrNegativeIterations = errors.New("iterations must be non-negative")
	ErrNegativeTolerance  = errors.New("tolerance must be non-negative")
	ErrNegativePenalty    = errors.New("penalty factors must be non-negative")
)

// predict errors
var (
	ErrNoDesignMatrix     = errors.New("design matrix is nil")
	ErrFeatureLenMismatch = errors.New("design matrix columns do not match the number of coefficients")
)
