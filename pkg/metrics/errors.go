package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrCollectFailed = errors.New("metrics collect failed")
	ErrUnknownMetric = errors.New("unknown metric")
)
