// Package pipeline drives one rebrand-then-build pass over a template project.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/artifacts"
	"github.com/huanfeng/apprebrand/pkg/assets"
	"github.com/huanfeng/apprebrand/pkg/build"
	"github.com/huanfeng/apprebrand/pkg/credentials"
	"github.com/huanfeng/apprebrand/pkg/identity"
	"github.com/huanfeng/apprebrand/pkg/materializer"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/system"
	"github.com/huanfeng/apprebrand/pkg/utils"
)

// Stage names reported to the Observer
const (
	StagePreflight   = "preflight"
	StageMaterialize = "materialize"
	StageAndroid     = "rewrite android"
	StageIOS         = "rewrite ios"
	StageVersion     = "stamp version"
	StageRuntime     = "runtime config"
	StageAssets      = "icons"
	StageCredentials = "credentials"
	StageBuild       = "build"
	StageCollect     = "collect"
)

// Options are the fixed roots and settings every run is threaded with
type Options struct {
	WorkspaceRoot    string
	OutputRoot       string
	CredentialCache  string
	AssetConcurrency int
	Runtime          models.RuntimeConfig
	Build            build.PlanOptions
}

// Request is one rebrand invocation
type Request struct {
	TemplateDir string
	Identity    models.ProjectIdentity
	Mode        models.BuildMode
	Platforms   models.PlatformSet
	// IconPath may be empty to keep the template icons.
	IconPath    string
	IOS         models.IOSSigning
	UpdateLabel bool
}

// Observer is told when each stage starts and ends
type Observer interface {
	StageStarted(name string)
	StageFinished(name string, err error)
}

// Result gathers the outcome of every stage
type Result struct {
	RunID            string                  `json:"run_id"`
	WorkDir          string                  `json:"work_dir"`
	Android          *identity.AndroidResult `json:"android,omitempty"`
	IOS              *identity.IOSResult     `json:"ios,omitempty"`
	Version          string                  `json:"version,omitempty"`
	SkippedConstants []string                `json:"skipped_constants,omitempty"`
	Icons            *assets.Report          `json:"icons,omitempty"`
	Credentials      *credentials.Result     `json:"credentials,omitempty"`
	Steps            []build.Step            `json:"-"`
	Artifacts        *artifacts.Result       `json:"artifacts,omitempty"`
	Warnings         []*errors.RebrandError  `json:"warnings,omitempty"`
}

// Pipeline wires the stages together
type Pipeline struct {
	Options     Options
	Tools       system.Resolver
	Runner      system.Runner
	Confirmer   materializer.Confirmer
	Credentials credentials.Source
	Observer    Observer
	Logger      utils.Logger
	// Inspect overrides the APK package reader used by the collector.
	Inspect artifacts.PackageInspector
}

// New creates a pipeline
func New(opts Options, tools system.Resolver, runner system.Runner, logger utils.Logger) *Pipeline {
	return &Pipeline{
		Options: opts,
		Tools:   tools,
		Runner:  runner,
		Logger:  logger,
	}
}

// StageCount returns how many stages a request will report
func StageCount(req Request) int {
	n := 4 // preflight, materialize, runtime config, icons
	if needsCredentials(req) {
		n++
	}
	if req.Platforms.Has(models.PlatformAndroid) {
		n++
	}
	if req.Platforms.Has(models.PlatformIOS) {
		n++
	}
	if req.Mode == models.ModeRelease {
		n++
	}
	return n + 2 // build, collect
}

func needsCredentials(req Request) bool {
	return req.Mode == models.ModeRelease && req.Platforms.Has(models.PlatformAndroid)
}

// Run executes every stage in order; the first error aborts the run
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	log := p.logger().WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"bundle_id": req.Identity.BundleID,
		"mode":      string(req.Mode),
	})

	if err := req.Identity.Validate(); err != nil {
		return result, err
	}
	if len(req.Platforms.Ordered()) == 0 {
		return result, errors.NewValidationError("NO_PLATFORMS", "at least one platform must be enabled")
	}

	if err := p.checkRoots(); err != nil {
		return result, err
	}

	store := credentials.NewStore(p.Options.CredentialCache, p.Tools, p.Runner, p.Credentials, log)
	orchestrator := build.NewOrchestrator(p.Tools, p.Runner, log)
	orchestrator.Options = p.Options.Build
	orchestrator.Signing = req.IOS

	// Missing tools must fail the run before the template is touched.
	err := p.stage(StagePreflight, func() error {
		if needsCredentials(req) {
			if err := store.Preflight(); err != nil {
				return err
			}
		}
		return orchestrator.Preflight(req.Mode, req.Platforms)
	})
	if err != nil {
		return result, err
	}

	err = p.stage(StageMaterialize, func() error {
		m := materializer.New(p.Options.WorkspaceRoot, p.Confirmer, log)
		dir, err := m.Materialize(ctx, req.TemplateDir, req.Identity.FolderName())
		result.WorkDir = dir
		return err
	})
	if err != nil {
		return result, err
	}
	log = log.WithField("work_dir", result.WorkDir)
	workDir := result.WorkDir

	if req.Platforms.Has(models.PlatformAndroid) {
		err := p.stage(StageAndroid, func() error {
			res, err := identity.NewAndroidRewriter(log).Rewrite(workDir, req.Identity,
				identity.AndroidOptions{UpdateLabel: req.UpdateLabel})
			result.Android = res
			return err
		})
		if err != nil {
			return result, err
		}
	}

	if req.Platforms.Has(models.PlatformIOS) {
		err := p.stage(StageIOS, func() error {
			res, err := identity.NewIOSRewriter(log).Rewrite(workDir, req.Identity, req.IOS)
			result.IOS = res
			return err
		})
		if err != nil {
			return result, err
		}
	}

	if req.Mode == models.ModeRelease {
		// One pubspec serves both platforms; the Android form wins when both are built.
		platform := models.PlatformIOS
		if req.Platforms.Has(models.PlatformAndroid) {
			platform = models.PlatformAndroid
		}
		err := p.stage(StageVersion, func() error {
			v, err := identity.StampVersion(workDir, platform, req.Identity)
			result.Version = v
			return err
		})
		if err != nil {
			return result, err
		}
	}

	err = p.stage(StageRuntime, func() error {
		skipped, err := identity.PropagateRuntimeConfig(workDir, identity.NewRuntimeSettings(p.Options.Runtime, req.Identity))
		result.SkippedConstants = skipped
		for _, name := range skipped {
			log.Warn("Runtime constant %s not declared, left unchanged", name)
		}
		return err
	})
	if err != nil {
		return result, err
	}

	err = p.stage(StageAssets, func() error {
		report, err := assets.NewUpdater(p.Options.AssetConcurrency, log).Update(ctx, workDir, req.IconPath, req.Platforms)
		result.Icons = report
		return err
	})
	if err != nil {
		return result, err
	}

	if needsCredentials(req) {
		err := p.stage(StageCredentials, func() error {
			res, err := store.Ensure(ctx, workDir)
			result.Credentials = res
			return err
		})
		if err != nil {
			return result, err
		}
	}

	err = p.stage(StageBuild, func() error {
		orchestrator.Logger = log
		steps, err := orchestrator.Run(ctx, workDir, req.Mode, req.Platforms)
		result.Steps = steps
		return err
	})
	if err != nil {
		return result, err
	}

	err = p.stage(StageCollect, func() error {
		c := artifacts.NewCollector(p.Options.OutputRoot, log)
		if p.Inspect != nil {
			c.Inspect = p.Inspect
		}
		res, err := c.Collect(ctx, workDir, req.Identity.FolderName(), req.Mode, req.Platforms, req.Identity.BundleID)
		result.Artifacts = res
		if res != nil {
			result.Warnings = append(result.Warnings, res.Warnings...)
		}
		return err
	})
	if err != nil {
		return result, err
	}

	log.Info("Run finished with %d artifacts and %d warnings", len(result.Artifacts.Artifacts), len(result.Warnings))
	return result, nil
}

// checkRoots rejects workspace and output roots that overlap, since collecting
// into the output folder clears it first.
func (p *Pipeline) checkRoots() error {
	workspace, err := materializer.Resolve(p.Options.WorkspaceRoot)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeValidation, "INVALID_WORKSPACE_ROOT", "failed to resolve workspace root")
	}
	output, err := materializer.Resolve(p.Options.OutputRoot)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeValidation, "INVALID_OUTPUT_ROOT", "failed to resolve output root")
	}
	if materializer.IsWithin(workspace, output) || materializer.IsWithin(output, workspace) {
		return errors.NewValidationError("OVERLAPPING_ROOTS", "workspace root and output root must not overlap").
			WithContext("workspace_root", workspace).
			WithContext("output_root", output).
			WithSuggestion("Point paths.workspace_root and paths.output_root at separate directories")
	}
	return nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	if p.Observer != nil {
		p.Observer.StageStarted(name)
	}
	err := fn()
	if p.Observer != nil {
		p.Observer.StageFinished(name, err)
	}
	return err
}

func (p *Pipeline) logger() utils.Logger {
	if p.Logger == nil {
		return utils.NewNopLogger()
	}
	return p.Logger
}
