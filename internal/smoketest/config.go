package smoketest

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Submissions int           // Number of results files to upload
	Workers     int           // Number of concurrent uploaders
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Where generated submissions are written, empty to skip
	Verbose     bool          // Log every upload
}

// Submission is one generated results file and the team it is uploaded for.
type Submission struct {
	Team         string  `json:"team"`
	Model        string  `json:"model"`
	FullContext  float64 `json:"fullContext"`
	GoldEvidence float64 `json:"goldEvidence"`
}

// resultsFile is the body of the uploaded JSON file.
type resultsFile struct {
	Model        string  `json:"model"`
	FullContext  float64 `json:"fullContext"`
	GoldEvidence float64 `json:"goldEvidence"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Submitted          int
	Accepted           int
	Failed             int
	QueriesRun         int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
