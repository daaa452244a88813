package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused (not logged in, no copies, not found, ...)
	ExitCommandError = 2 // Command error (bad flags, bad config, unreadable database)
)

// ExitError carries the process exit status of a failed command. Op names
// what was being attempted; Err, if set, is the underlying failure.
type ExitError struct {
	Code int
	Op   string
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitErrorf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Op: fmt.Sprintf(format, args...)}
}

func wrapExit(code int, op string, err error) *ExitError {
	return &ExitError{Code: code, Op: op, Err: err}
}

// exitCode maps err to a process status. Errors that carry no code are
// plain failures.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

var outputJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// emit writes v as indented JSON when --format=json and reports whether it
// did; callers fall back to their text rendering otherwise.
func (a *app) emit(w io.Writer, v any) (bool, error) {
	if a.opts.Format != "json" {
		return false, nil
	}
	data, err := outputJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return true, err
	}
	_, err = fmt.Fprintln(w, string(data))
	return true, err
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(flag, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, exitErrorf(ExitCommandError, "--%s: expected YYYY-MM-DD, got %q", flag, v)
	}
	return t, nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
