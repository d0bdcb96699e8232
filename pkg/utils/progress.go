package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// StageTiming records how long one pipeline stage took
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Failed   bool          `json:"failed"`
}

// StageProgress prints numbered stage lines and keeps their timings
type StageProgress struct {
	out        io.Writer
	total      int
	current    int
	name       string
	startTime  time.Time
	stageStart time.Time
	timings    []StageTiming
	quiet      bool
}

// NewStageProgress creates a tracker for total stages; a nil writer means stdout
func NewStageProgress(out io.Writer, total int, quiet bool) *StageProgress {
	if out == nil {
		out = os.Stdout
	}
	return &StageProgress{
		out:       out,
		total:     total,
		startTime: time.Now(),
		quiet:     quiet,
	}
}

// StageStarted marks the beginning of a stage
func (sp *StageProgress) StageStarted(name string) {
	sp.current++
	sp.name = name
	sp.stageStart = time.Now()
	if sp.quiet {
		return
	}
	if sp.total > 0 {
		fmt.Fprintf(sp.out, "[%d/%d] %s\n", sp.current, sp.total, name)
	} else {
		fmt.Fprintf(sp.out, "[%d] %s\n", sp.current, name)
	}
}

// StageFinished records the end of the current stage
func (sp *StageProgress) StageFinished(name string, err error) {
	elapsed := time.Since(sp.stageStart)
	sp.timings = append(sp.timings, StageTiming{Name: name, Duration: elapsed, Failed: err != nil})
	if sp.quiet {
		return
	}
	if err != nil {
		fmt.Fprintf(sp.out, "      ✗ %s failed after %v\n", name, elapsed.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(sp.out, "      ✓ %v\n", elapsed.Round(time.Millisecond))
}

// Timings returns the recorded stage timings in order
func (sp *StageProgress) Timings() []StageTiming {
	return sp.timings
}

// Elapsed returns the time since the tracker was created
func (sp *StageProgress) Elapsed() time.Duration {
	return time.Since(sp.startTime)
}
