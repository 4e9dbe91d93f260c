package common

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sandeepkv93/catalog-editor/internal/observability"
)

// Exit codes shared by the catalog tools.
const (
	ExitCommandFailed = 3
	ExitCheckFailed   = 4
)

var exit = os.Exit

type CIResult struct {
	OK         bool     `json:"ok"`
	Title      string   `json:"title"`
	Details    []string `json:"details,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
}

// WriteCIResult encodes one result object to w.
func WriteCIResult(w io.Writer, ok bool, title string, details []string, err error) {
	writeCI(w, CIResult{OK: ok, Title: title, Details: details}, err)
}

func writeCI(w io.Writer, result CIResult, err error) {
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

// Outcome is the end state of one tool command.
type Outcome struct {
	Tool     string
	Command  string
	CI       bool
	Details  []string
	Err      error
	Started  time.Time
	ExitCode int
}

// Finish records the command metrics, prints the CI result when asked, and
// exits with o.ExitCode on failure.
func Finish(ctx context.Context, o Outcome) {
	finish(ctx, os.Stdout, o)
}

func finish(ctx context.Context, w io.Writer, o Outcome) {
	outcome := "success"
	if o.Err != nil {
		outcome = "error"
	}
	elapsed := time.Since(o.Started)
	observability.RecordToolCommandRun(ctx, o.Tool, o.Command, outcome)
	observability.RecordToolCommandDuration(ctx, o.Tool, o.Command, outcome, elapsed)
	if o.CI {
		writeCI(w, CIResult{
			OK:         o.Err == nil,
			Title:      o.Tool + " " + o.Command,
			Details:    o.Details,
			DurationMS: elapsed.Milliseconds(),
		}, o.Err)
	}
	if o.Err != nil {
		code := o.ExitCode
		if code == 0 {
			code = ExitCommandFailed
		}
		exit(code)
	}
}
