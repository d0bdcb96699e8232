// Package artifacts gathers build outputs into a per-identity output folder.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/shogo82148/androidbinary/apk"
)

// Source describes where one artifact is produced and what it is called once collected
type Source struct {
	Platform models.Platform
	Mode     models.BuildMode
	// Path is relative to the working copy and may be a glob.
	Path       string
	OutputName string
	Kind       models.ArtifactKind
}

var sources = []Source{
	{models.PlatformAndroid, models.ModeDebug, filepath.Join("build", "app", "outputs", "flutter-apk", "app-debug.apk"), "app-debug.apk", models.KindPackage},
	{models.PlatformAndroid, models.ModeRelease, filepath.Join("build", "app", "outputs", "flutter-apk", "app-release.apk"), "app-release.apk", models.KindPackage},
	{models.PlatformAndroid, models.ModeRelease, filepath.Join("build", "app", "outputs", "bundle", "release", "app-release.aab"), "app-release.aab", models.KindBundle},
	{models.PlatformIOS, models.ModeDebug, filepath.Join("build", "ios", "iphoneos", "Runner.app"), "Runner-debug.app", models.KindAppImage},
	{models.PlatformIOS, models.ModeRelease, filepath.Join("build", "ios", "archive", "Runner.xcarchive"), "Runner-release.xcarchive", models.KindArchive},
	{models.PlatformIOS, models.ModeRelease, filepath.Join("build", "ios", "ipa", "*.ipa"), "Runner-release.ipa", models.KindPackage},
}

// Sources returns the artifact table entries for one platform and mode
func Sources(platform models.Platform, mode models.BuildMode) []Source {
	var out []Source
	for _, s := range sources {
		if s.Platform == platform && s.Mode == mode {
			out = append(out, s)
		}
	}
	return out
}

// PackageInspector reads the package name of an Android package
type PackageInspector func(path string) (string, error)

// APKPackageName opens an APK and returns its manifest package
func APKPackageName(path string) (string, error) {
	pkg, err := apk.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer pkg.Close()
	return pkg.PackageName(), nil
}

// Result lists what was collected
type Result struct {
	OutputDir string                 `json:"output_dir"`
	Artifacts []models.BuildArtifact `json:"artifacts"`
	Warnings  []*errors.RebrandError `json:"warnings,omitempty"`
}

// Collector copies artifacts out of a working copy
type Collector struct {
	OutputRoot string
	Logger     utils.Logger
	Inspect    PackageInspector
}

// NewCollector creates a collector that verifies APKs with androidbinary
func NewCollector(outputRoot string, logger utils.Logger) *Collector {
	return &Collector{OutputRoot: outputRoot, Logger: logger, Inspect: APKPackageName}
}

// Collect empties <output_root>/<folderName> and copies every expected artifact into it.
// Missing artifacts are warnings, not errors.
func (c *Collector) Collect(ctx context.Context, workDir, folderName string, mode models.BuildMode,
	platforms models.PlatformSet, bundleID string) (*Result, error) {
	if folderName == "" || folderName != filepath.Base(folderName) || folderName == "." || folderName == ".." {
		return nil, errors.NewValidationError("INVALID_OUTPUT_FOLDER",
			fmt.Sprintf("output folder %q must be a single path element", folderName))
	}
	log := c.logger().WithField("folder", folderName)

	outDir := filepath.Join(c.OutputRoot, folderName)
	if err := os.RemoveAll(outDir); err != nil {
		return nil, errors.NewFileSystemError(err, "OUTPUT_CLEAN_FAILED", "failed to clear output folder")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errors.NewFileSystemError(err, "OUTPUT_CREATE_FAILED", "failed to create output folder")
	}

	result := &Result{OutputDir: outDir}
	for _, platform := range platforms.Ordered() {
		for _, src := range Sources(platform, mode) {
			artifact, warning, err := c.collectOne(ctx, workDir, outDir, src)
			if err != nil {
				return result, err
			}
			if warning != nil {
				log.Warn("%s", warning.Message)
				result.Warnings = append(result.Warnings, warning)
				continue
			}

			if artifact.Platform == models.PlatformAndroid && artifact.Kind == models.KindPackage {
				if w := c.verifyPackage(artifact.OutputPath, bundleID); w != nil {
					log.Warn("%s", w.Message)
					result.Warnings = append(result.Warnings, w)
				}
			}
			log.Info("Collected %s (%s)", artifact.OutputPath, artifact.Kind)
			result.Artifacts = append(result.Artifacts, *artifact)
		}
	}
	return result, nil
}

func (c *Collector) collectOne(ctx context.Context, workDir, outDir string, src Source) (*models.BuildArtifact, *errors.RebrandError, error) {
	pattern := filepath.Join(workDir, src.Path)
	path := pattern
	if strings.ContainsAny(src.Path, "*?[") {
		matches, _ := filepath.Glob(pattern)
		if len(matches) == 0 {
			return nil, errors.NewArtifactNotFoundWarning(string(src.Platform), string(src.Mode), pattern), nil
		}
		sort.Strings(matches)
		path = matches[0]
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewArtifactNotFoundWarning(string(src.Platform), string(src.Mode), path), nil
	}

	dst := filepath.Join(outDir, src.OutputName)
	artifact := &models.BuildArtifact{
		Platform:   src.Platform,
		Mode:       src.Mode,
		Kind:       src.Kind,
		SourcePath: path,
		OutputPath: dst,
	}

	if info.IsDir() {
		if err := utils.CopyTree(ctx, path, dst); err != nil {
			return nil, nil, errors.NewFileSystemError(err, "ARTIFACT_COPY_FAILED",
				fmt.Sprintf("failed to copy %s", src.OutputName))
		}
	} else {
		if err := utils.CopyFile(path, dst); err != nil {
			return nil, nil, errors.NewFileSystemError(err, "ARTIFACT_COPY_FAILED",
				fmt.Sprintf("failed to copy %s", src.OutputName))
		}
		if sum, err := fileSHA256(dst); err == nil {
			artifact.SHA256 = sum
		}
	}

	if size, err := utils.DirSize(dst); err == nil {
		artifact.Size = size
	}
	return artifact, nil, nil
}

// verifyPackage compares the APK manifest package with the expected bundle id
func (c *Collector) verifyPackage(path, bundleID string) *errors.RebrandError {
	if c.Inspect == nil || bundleID == "" {
		return nil
	}
	name, err := c.Inspect(path)
	if err != nil {
		c.logger().Debug("Could not inspect %s: %v", path, err)
		return nil
	}
	if name == bundleID {
		return nil
	}
	return errors.NewError(errors.ErrorTypeNotFound, errors.CodeArtifactIdentityMismatch,
		fmt.Sprintf("%s declares package %s, expected %s", filepath.Base(path), name, bundleID)).
		WithContext("path", path).
		WithContext("package", name).
		WithContext("bundle_id", bundleID)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Collector) logger() utils.Logger {
	if c.Logger == nil {
		return utils.NewNopLogger()
	}
	return c.Logger
}
