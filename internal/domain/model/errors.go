package model

import "errors"

// Error taxonomy for the analysis pipeline.
//
// ErrEmptyDataset and ErrNoDataForMetric propagate to the caller of the
// baseline engine; absent data cannot be guessed. ErrCapabilityUnavailable
// and ErrMalformedResponse are caught inside the resolvers and converted
// into the deterministic fallback; they never fail an analysis.
var (
	ErrEmptyDataset          = errors.New("empty dataset: no samples for baseline")
	ErrNoDataForMetric       = errors.New("no data for metric")
	ErrCapabilityUnavailable = errors.New("reasoning capability unavailable")
	ErrMalformedResponse     = errors.New("malformed capability response")
)
