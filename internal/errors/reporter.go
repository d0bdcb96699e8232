package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ErrorReport represents a persisted failure report for one pipeline run
type ErrorReport struct {
	Timestamp   time.Time         `json:"timestamp"`
	RunID       string            `json:"run_id"`
	Error       *RebrandError     `json:"error"`
	Cause       string            `json:"cause,omitempty"`
	Environment *EnvironmentInfo  `json:"environment"`
	Context     *OperationContext `json:"context"`
}

// EnvironmentInfo contains information about the runtime environment
type EnvironmentInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	GoVersion    string `json:"go_version"`
	WorkingDir   string `json:"working_dir"`
}

// OperationContext contains information about the operation that failed
type OperationContext struct {
	Command     string            `json:"command"`
	Arguments   []string          `json:"arguments"`
	Flags       map[string]string `json:"flags"`
	Duration    time.Duration     `json:"duration"`
	StageFailed string            `json:"stage_failed,omitempty"`
}

// ErrorReporter handles error reporting
type ErrorReporter struct {
	reportDir string
	logger    Logger
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter(reportDir string, logger Logger) *ErrorReporter {
	return &ErrorReporter{
		reportDir: reportDir,
		logger:    logger,
	}
}

// GenerateReport builds a report for err
func (er *ErrorReporter) GenerateReport(runID string, err error, context *OperationContext) *ErrorReport {
	re, ok := As(err)
	if !ok {
		re = WrapError(err, ErrorTypeUnknown, "UNKNOWN", err.Error())
	}

	report := &ErrorReport{
		Timestamp: time.Now(),
		RunID:     runID,
		Error:     re,
		Context:   context,
		Environment: &EnvironmentInfo{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
			GoVersion:    runtime.Version(),
		},
	}
	if re.Cause != nil {
		report.Cause = re.Cause.Error()
	}
	if wd, wdErr := os.Getwd(); wdErr == nil {
		report.Environment.WorkingDir = wd
	}
	return report
}

// SaveReport saves an error report to disk and returns its path
func (er *ErrorReporter) SaveReport(report *ErrorReport) (string, error) {
	if err := os.MkdirAll(er.reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := report.Timestamp.Format("20060102_150405")
	filename := fmt.Sprintf("error_report_%s_%s.json", timestamp, report.Error.Code)
	path := filepath.Join(er.reportDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if er.logger != nil {
		er.logger.Debug("Error report written to %s", path)
	}
	return path, nil
}

// DisplayReport writes a user-friendly rendering of the report
func (er *ErrorReporter) DisplayReport(w io.Writer, report *ErrorReport) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "🚨 REBRAND FAILED")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "⏰ Time: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	if report.RunID != "" {
		fmt.Fprintf(w, "🆔 Run: %s\n", report.RunID)
	}
	if report.Context != nil && report.Context.StageFailed != "" {
		fmt.Fprintf(w, "🧩 Stage: %s\n", report.Context.StageFailed)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, report.Error.FormatDetailed())
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
