// Package executor defines the interface for running snippet content
// in an isolated environment. The Docker implementation lives in the
// docker subpackage; the handler only sees this interface, so the
// server starts fine (with runs disabled) when no Docker daemon is
// around.
package executor

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedLanguage is returned when a snippet's language has no
// configured sandbox image.
var ErrUnsupportedLanguage = errors.New("executor: unsupported language")

// RunRequest asks for code to be executed as the given language.
type RunRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// RunResult carries the output and status of one execution.
type RunResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Runner executes code in an isolated environment.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}
