package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNoScorablePredictions = errors.New("no scorable predictions")
	ErrGroundTruthNotFound   = errors.New("ground truth file not found")
	ErrMalformedGroundTruth  = errors.New("malformed ground truth")
)
