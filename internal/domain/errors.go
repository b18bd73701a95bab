package domain

import "errors"

var (
	ErrInvalidSequence    = errors.New("invalid sequence")
	ErrSequenceTooLong    = errors.New("sequence too long")
	ErrUpstream           = errors.New("folding service request failed")
	ErrProcessing         = errors.New("structure processing failed")
	ErrStorage            = errors.New("structure storage failed")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrInvalidFileName    = errors.New("invalid file name")
)
