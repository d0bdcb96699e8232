package build

import (
	"context"
	"path/filepath"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/system"
	"github.com/huanfeng/apprebrand/pkg/utils"
)

// Orchestrator runs build plans strictly in sequence
type Orchestrator struct {
	Tools   system.Resolver
	Runner  system.Runner
	Logger  utils.Logger
	Options PlanOptions
	Signing models.IOSSigning
	// Sink receives tool output; nil forwards it to the logger at info level.
	Sink system.OutputSink
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(tools system.Resolver, runner system.Runner, logger utils.Logger) *Orchestrator {
	return &Orchestrator{Tools: tools, Runner: runner, Logger: logger}
}

// Run builds every enabled platform. Nothing is spawned unless every tool of the
// full plan resolves, and nothing runs after the first failing command.
func (o *Orchestrator) Run(ctx context.Context, workDir string, mode models.BuildMode, platforms models.PlatformSet) ([]Step, error) {
	log := o.logger().WithField("mode", string(mode))

	steps, err := PlanAll(mode, platforms, o.Options)
	if err != nil {
		return nil, err
	}
	if err := o.resolve(steps); err != nil {
		return nil, err
	}

	exportWritten := false
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return steps[:i], errors.WrapError(err, errors.ErrorTypeCancelled, errors.CodeUserCancelled, "build cancelled")
		}

		if step.Export && !exportWritten {
			path, err := WriteExportOptions(workDir, NewExportOptions(o.Signing))
			if err != nil {
				return steps[:i], errors.NewFileSystemError(err, "EXPORT_OPTIONS_WRITE_FAILED",
					"failed to write ExportOptions.plist")
			}
			log.Debug("Wrote %s", path)
			exportWritten = true
		}

		c := step.Command
		c.Dir = filepath.Join(workDir, c.Dir)
		log.Info("[%s] %s", step.Platform, c.String())

		code, err := o.Runner.Run(ctx, c, o.sink(log, step.Platform))
		if err != nil {
			if ctx.Err() != nil {
				return steps[:i], errors.WrapError(err, errors.ErrorTypeCancelled, errors.CodeUserCancelled, "build cancelled")
			}
			return steps[:i], errors.WrapError(err, errors.ErrorTypeBuild, errors.CodeBuildToolFailed,
				"failed to start build command").
				WithContext("command", c.String())
		}
		if code != 0 {
			return steps[:i], errors.NewBuildToolFailedError(string(step.Platform), c.String(), code)
		}
	}
	return steps, nil
}

// Preflight resolves every tool the plan needs without spawning anything
func (o *Orchestrator) Preflight(mode models.BuildMode, platforms models.PlatformSet) error {
	steps, err := PlanAll(mode, platforms, o.Options)
	if err != nil {
		return err
	}
	return o.resolve(steps)
}

// resolve looks up every tool once and pins its path on the steps
func (o *Orchestrator) resolve(steps []Step) error {
	paths := make(map[string]string)
	for i := range steps {
		tool := steps[i].Command.Tool
		path, seen := paths[tool]
		if !seen {
			if o.Tools == nil {
				return errors.NewToolUnavailableError(tool, nil)
			}
			status := o.Tools.CheckDependency(tool)
			if !status.Available {
				return errors.NewToolUnavailableError(tool, o.Tools.GetInstallInstructions(tool)).
					WithContext("platform", string(steps[i].Platform))
			}
			path = status.Path
			paths[tool] = path
		}
		steps[i].Command.Path = path
	}
	return nil
}

func (o *Orchestrator) sink(log utils.Logger, platform models.Platform) system.OutputSink {
	if o.Sink != nil {
		return o.Sink
	}
	return func(stream system.Stream, line string) {
		if stream == system.Stderr {
			log.Warn("[%s] %s", platform, line)
			return
		}
		log.Info("[%s] %s", platform, line)
	}
}

func (o *Orchestrator) logger() utils.Logger {
	if o.Logger == nil {
		return utils.NewNopLogger()
	}
	return o.Logger
}
