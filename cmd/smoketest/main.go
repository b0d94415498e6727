package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/okian/factboard/internal/smoketest"
	"github.com/okian/factboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultSubmissions = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
	logFilePermission  = 0o600
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:3000", "Base URL of the service")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of results files to upload")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent uploaders")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "File to write generated submissions to")
		logFile     = flag.String("log", "", "Also write logs to this file")
		verbose     = flag.Bool("verbose", false, "Log every upload")
	)
	flag.Parse()

	if err := setupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	_, err := smoketest.Run(ctx, &smoketest.Config{
		BaseURL:     *baseURL,
		Submissions: *submissions,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("smoke test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}

func setupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return err
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}
