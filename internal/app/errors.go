package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrMissingTeam   = errors.New("team name is required")
	ErrNoGroundTruth = errors.New("no ground truth loaded")
)
