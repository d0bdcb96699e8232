// Package assets regenerates launcher icons for every enabled platform.
package assets

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency bounds the resize fan-out when none is configured
const DefaultConcurrency = 4

// Target is one output icon
type Target struct {
	// Path is relative to the working copy
	Path   string
	Size   uint
	Opaque bool
}

var androidResDir = filepath.Join("android", "app", "src", "main", "res")

var androidTargets = []Target{
	{Path: filepath.Join(androidResDir, "mipmap-mdpi", "ic_launcher.png"), Size: 48},
	{Path: filepath.Join(androidResDir, "mipmap-hdpi", "ic_launcher.png"), Size: 72},
	{Path: filepath.Join(androidResDir, "mipmap-xhdpi", "ic_launcher.png"), Size: 96},
	{Path: filepath.Join(androidResDir, "mipmap-xxhdpi", "ic_launcher.png"), Size: 144},
	{Path: filepath.Join(androidResDir, "mipmap-xxxhdpi", "ic_launcher.png"), Size: 192},
}

var iosIconSet = filepath.Join("ios", "Runner", "Assets.xcassets", "AppIcon.appiconset")

var iosTargets = []Target{
	iosIcon("20x20", 1, 20),
	iosIcon("20x20", 2, 40),
	iosIcon("20x20", 3, 60),
	iosIcon("29x29", 1, 29),
	iosIcon("29x29", 2, 58),
	iosIcon("29x29", 3, 87),
	iosIcon("40x40", 1, 40),
	iosIcon("40x40", 2, 80),
	iosIcon("40x40", 3, 120),
	iosIcon("60x60", 2, 120),
	iosIcon("60x60", 3, 180),
	iosIcon("76x76", 1, 76),
	iosIcon("76x76", 2, 152),
	iosIcon("83.5x83.5", 2, 167),
	{Path: filepath.Join(iosIconSet, "Icon-App-1024x1024@1x.png"), Size: 1024, Opaque: true},
}

func iosIcon(points string, scale int, size uint) Target {
	return Target{Path: filepath.Join(iosIconSet, fmt.Sprintf("Icon-App-%s@%dx.png", points, scale)), Size: size}
}

// Targets returns the icon table of a platform
func Targets(platform models.Platform) []Target {
	switch platform {
	case models.PlatformAndroid:
		return androidTargets
	case models.PlatformIOS:
		return iosTargets
	default:
		return nil
	}
}

// Report lists what an update wrote
type Report struct {
	Skipped bool     `json:"skipped"`
	Written []string `json:"written"`
}

// Updater resizes one source image into every platform icon slot
type Updater struct {
	Concurrency int
	Logger      utils.Logger
}

// NewUpdater creates an updater
func NewUpdater(concurrency int, logger utils.Logger) *Updater {
	return &Updater{Concurrency: concurrency, Logger: logger}
}

// Update writes every icon for the enabled platforms.
// A missing source image leaves the bundled icons in place.
func (u *Updater) Update(ctx context.Context, workDir, sourceImage string, platforms models.PlatformSet) (*Report, error) {
	log := u.logger()

	if sourceImage == "" {
		log.Debug("No icon given, keeping template icons")
		return &Report{Skipped: true}, nil
	}
	if _, err := os.Stat(sourceImage); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Icon %s not found, keeping template icons", sourceImage)
			return &Report{Skipped: true}, nil
		}
		return nil, errors.NewFileSystemError(err, "ICON_READ_FAILED", "failed to stat icon "+sourceImage)
	}

	// Decoded once and shared read-only by every task
	src, err := DecodeIcon(sourceImage)
	if err != nil {
		return nil, errors.NewParsingError(err, "ICON_DECODE_FAILED", "failed to decode icon "+sourceImage)
	}

	var targets []Target
	for _, p := range platforms.Ordered() {
		targets = append(targets, Targets(p)...)
	}

	concurrency := u.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var mu sync.Mutex
	report := &Report{}
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(concurrency)
	for _, target := range targets {
		target := target
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := filepath.Join(workDir, target.Path)
			if err := writeIcon(src, target, out); err != nil {
				return fmt.Errorf("%s: %w", target.Path, err)
			}
			mu.Lock()
			report.Written = append(report.Written, out)
			mu.Unlock()
			return nil
		})
	}

	err = p.Wait()
	sort.Strings(report.Written)
	if err != nil {
		return report, errors.WrapError(err, errors.ErrorTypeFileSystem, "ICON_WRITE_FAILED",
			"failed to write one or more icons")
	}

	log.Info("Wrote %d icons", len(report.Written))
	return report, nil
}

func writeIcon(src image.Image, target Target, out string) error {
	data, err := RenderIcon(src, target.Size, target.Opaque)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, data, 0644)
}

func (u *Updater) logger() utils.Logger {
	if u.Logger == nil {
		return utils.NewNopLogger()
	}
	return u.Logger
}
