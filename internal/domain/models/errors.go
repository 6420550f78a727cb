package models

import "errors"

// Domain error taxonomy. Handlers map these to HTTP statuses; everything
// else is surfaced wrapped, never swallowed.
var (
	// ErrInvalidTimeframe signals a label outside the closed timeframe set.
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrSymbolNotFound signals that the store holds no native series for
	// the requested symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrAggregationDirection signals a target timeframe that is not a
	// strictly coarser integer multiple of the source.
	ErrAggregationDirection = errors.New("target timeframe must be a coarser multiple of source")

	// ErrEmptyReplaySession signals a cursor operation with no loaded data.
	ErrEmptyReplaySession = errors.New("no replay session loaded")
)
