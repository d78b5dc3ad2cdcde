package changepoint

import "errors"

var (
	// ErrInvalidInput is returned when the series or a hyperparameter fails
	// validation. It is always wrapped with the offending field.
	ErrInvalidInput = errors.New("changepoint: invalid input")

	// ErrIndexOutOfRange is returned when a trajectory matrix would reach
	// outside the series.
	ErrIndexOutOfRange = errors.New("changepoint: index out of range")
)
