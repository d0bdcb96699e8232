package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"howett.net/plist"
)

var (
	iosInfoPlist      = filepath.Join("ios", "Runner", "Info.plist")
	iosSigningConfig  = filepath.Join("ios", "Flutter", "Signing.xcconfig")
	iosPodfile        = filepath.Join("ios", "Podfile")
	iosProjectPbxproj = filepath.Join("ios", "Runner.xcodeproj", "project.pbxproj")
)

// IOSResult describes what the rewrite changed
type IOSResult struct {
	OldID        string   `json:"old_id,omitempty"`
	NewID        string   `json:"new_id"`
	ChangedFiles []string `json:"changed_files"`
	Skipped      []string `json:"skipped,omitempty"`
}

// IOSRewriter applies an identity and signing settings to the ios/ tree
type IOSRewriter struct {
	Logger utils.Logger
}

// NewIOSRewriter creates a platform B rewriter
func NewIOSRewriter(logger utils.Logger) *IOSRewriter {
	return &IOSRewriter{Logger: logger}
}

// Rewrite patches Info.plist, regenerates Signing.xcconfig and updates the Podfile and project settings
func (r *IOSRewriter) Rewrite(workDir string, identity models.ProjectIdentity, signing models.IOSSigning) (*IOSResult, error) {
	log := r.logger().WithField("new_id", identity.BundleID)
	result := &IOSResult{NewID: identity.BundleID}

	if err := r.rewriteInfoPlist(workDir, identity, result); err != nil {
		return nil, err
	}
	if err := r.writeSigningConfig(workDir, signing, result); err != nil {
		return nil, err
	}

	if signing.MinPlatformVersion != "" {
		if err := r.rewritePodfile(workDir, signing.MinPlatformVersion, result); err != nil {
			return nil, err
		}
	}
	if err := r.rewriteProject(workDir, identity.BundleID, signing, result); err != nil {
		return nil, err
	}

	log.Info("Rewrote iOS identity (%d files changed)", len(result.ChangedFiles))
	return result, nil
}

func (r *IOSRewriter) rewriteInfoPlist(workDir string, identity models.ProjectIdentity, result *IOSResult) error {
	path := filepath.Join(workDir, iosInfoPlist)
	f, err := loadText(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewStructuralNotFoundError("BUNDLE_DESCRIPTOR_NOT_FOUND", path, "Info.plist not found")
		}
		return err
	}

	if old, ok := PlistBundleIdentifier.Find(f.content); ok {
		result.OldID = old
		f.apply(PlistBundleIdentifier, identity.BundleID)
	} else {
		r.logger().Debug("CFBundleIdentifier not present in %s", path)
	}
	if identity.DisplayName != "" {
		if f.apply(PlistDisplayName, identity.DisplayName) == 0 {
			r.logger().Debug("CFBundleDisplayName not present in %s", path)
		}
	}

	var decoded map[string]interface{}
	if _, err := plist.Unmarshal([]byte(f.content), &decoded); err != nil {
		return errors.NewParsingError(err, "INFO_PLIST_INVALID", "Info.plist no longer parses after rewrite").
			WithContext("file", path)
	}
	return r.save(f, &result.ChangedFiles)
}

// writeSigningConfig replaces the whole file; prior content is discarded
func (r *IOSRewriter) writeSigningConfig(workDir string, signing models.IOSSigning, result *IOSResult) error {
	path := filepath.Join(workDir, iosSigningConfig)
	content := RenderSigningConfig(signing)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileSystemError(err, "WRITE_FAILED", "failed to create "+filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewFileSystemError(err, "WRITE_FAILED", "failed to write "+path)
	}
	result.ChangedFiles = append(result.ChangedFiles, path)
	return nil
}

// RenderSigningConfig returns the xcconfig body with exactly the three signing settings
func RenderSigningConfig(signing models.IOSSigning) string {
	return fmt.Sprintf("CODE_SIGN_STYLE = %s\nDEVELOPMENT_TEAM = %s\nCODE_SIGN_IDENTITY = %s\n",
		signing.SigningStyle, signing.TeamID, signing.IdentityType)
}

func (r *IOSRewriter) rewritePodfile(workDir, version string, result *IOSResult) error {
	path := filepath.Join(workDir, iosPodfile)
	f, err := loadText(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger().Debug("No Podfile at %s, skipping platform version", path)
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		return err
	}

	line := fmt.Sprintf("platform :ios, '%s'", version)
	if f.apply(PodfilePlatform, line) == 0 {
		f.set(line + "\n" + f.content)
	}
	return r.save(f, &result.ChangedFiles)
}

func (r *IOSRewriter) rewriteProject(workDir, bundleID string, signing models.IOSSigning, result *IOSResult) error {
	path := filepath.Join(workDir, iosProjectPbxproj)
	f, err := loadText(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger().Debug("No project.pbxproj at %s, skipping project settings", path)
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		return err
	}

	counts := map[string]int{}
	if signing.TeamID != "" {
		counts[PbxDevelopmentTeam.Name] = f.applyAll(PbxDevelopmentTeam, signing.TeamID)
	}
	if signing.SigningStyle != "" {
		counts[PbxCodeSignStyle.Name] = f.applyAll(PbxCodeSignStyle, signing.SigningStyle)
	}
	if signing.IdentityType != "" {
		counts[PbxCodeSignIdentity.Name] = f.applyAll(PbxCodeSignIdentity, signing.IdentityType)
	}

	base := baseBundleID(f.content)
	counts[PbxProductBundleIdentifier.Name] = f.applyAllFunc(PbxProductBundleIdentifier, func(old string) string {
		old = strings.Trim(old, `"`)
		// Test and extension targets keep their suffix
		if base != "" && strings.HasPrefix(old, base+".") {
			return bundleID + old[len(base):]
		}
		return bundleID
	})
	r.logger().Debug("project.pbxproj replacements: %v", counts)

	return r.save(f, &result.ChangedFiles)
}

// baseBundleID picks the shortest PRODUCT_BUNDLE_IDENTIFIER, which is the app target's
func baseBundleID(content string) string {
	var base string
	for _, loc := range PbxProductBundleIdentifier.Regexp.FindAllStringSubmatch(content, -1) {
		v := strings.Trim(loc[1], `"`)
		if v == "" || strings.Contains(v, "$(") {
			continue
		}
		if base == "" || len(v) < len(base) {
			base = v
		}
	}
	return base
}

func (r *IOSRewriter) save(f *textFile, changed *[]string) error {
	dirty := f.dirty
	if err := f.save(); err != nil {
		return err
	}
	if dirty {
		*changed = append(*changed, f.path)
	}
	return nil
}

func (r *IOSRewriter) logger() utils.Logger {
	if r.Logger == nil {
		return utils.NewNopLogger()
	}
	return r.Logger
}
