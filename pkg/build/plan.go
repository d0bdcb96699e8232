// Package build runs the native build commands for each enabled platform.
package build

import (
	"fmt"
	"path/filepath"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/system"
)

// Paths produced by the iOS release steps, relative to the working copy
var (
	IOSArchivePath = filepath.Join("build", "ios", "archive", "Runner.xcarchive")
	IOSExportPath  = filepath.Join("build", "ios", "ipa")
	// ExportOptionsFile lives next to the Xcode workspace
	ExportOptionsFile = filepath.Join("ios", "ExportOptions.plist")
)

// Step is one planned command
type Step struct {
	Platform models.Platform
	Command  system.Command
	// Export marks the archive and export steps that need ExportOptions.plist.
	Export bool
}

// PlanOptions carries config overrides keyed by platform then mode
type PlanOptions struct {
	Overrides map[string]map[string][]string
}

func cmd(tool, dir string, args ...string) system.Command {
	return system.Command{Tool: tool, Dir: dir, Args: args}
}

func defaultSteps(platform models.Platform, mode models.BuildMode) []Step {
	switch {
	case platform == models.PlatformAndroid && mode == models.ModeDebug:
		return []Step{
			{Command: cmd("flutter", "", "build", "apk", "--debug")},
		}
	case platform == models.PlatformAndroid && mode == models.ModeRelease:
		return []Step{
			{Command: cmd("flutter", "", "build", "apk", "--release")},
			{Command: cmd("flutter", "", "build", "appbundle", "--release")},
		}
	case platform == models.PlatformIOS && mode == models.ModeDebug:
		return []Step{
			{Command: cmd("flutter", "", "build", "ios", "--debug", "--no-codesign")},
		}
	case platform == models.PlatformIOS && mode == models.ModeRelease:
		archive := filepath.Join("..", IOSArchivePath)
		return []Step{
			{Command: cmd("pod", "ios", "install")},
			{Command: cmd("flutter", "", "build", "ios", "--release", "--no-codesign")},
			{Export: true, Command: cmd("xcodebuild", "ios",
				"-workspace", "Runner.xcworkspace",
				"-scheme", "Runner",
				"-configuration", "Release",
				"-archivePath", archive,
				"archive")},
			{Export: true, Command: cmd("xcodebuild", "ios",
				"-exportArchive",
				"-archivePath", archive,
				"-exportOptionsPlist", filepath.Base(ExportOptionsFile),
				"-exportPath", filepath.Join("..", IOSExportPath))},
		}
	}
	return nil
}

// Plan returns the ordered commands for one platform and mode.
// Override lines run from the working copy root; the first word is the tool.
func Plan(platform models.Platform, mode models.BuildMode, opts PlanOptions) ([]Step, error) {
	lines, ok := opts.Overrides[string(platform)][string(mode)]
	if !ok || len(lines) == 0 {
		steps := defaultSteps(platform, mode)
		for i := range steps {
			steps[i].Platform = platform
		}
		return steps, nil
	}

	steps := make([]Step, 0, len(lines))
	for _, line := range lines {
		parts, err := system.ParseCommandString(line)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, "INVALID_BUILD_COMMAND",
				fmt.Sprintf("invalid %s %s build command", platform, mode)).
				WithContext("command", line)
		}
		c := system.Command{Tool: parts[0], Args: parts[1:]}
		steps = append(steps, Step{
			Platform: platform,
			Command:  c,
			Export:   c.Tool == "xcodebuild",
		})
	}
	return steps, nil
}

// PlanAll concatenates the plans of every enabled platform in build order
func PlanAll(mode models.BuildMode, platforms models.PlatformSet, opts PlanOptions) ([]Step, error) {
	var all []Step
	for _, p := range platforms.Ordered() {
		steps, err := Plan(p, mode, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, steps...)
	}
	return all, nil
}
