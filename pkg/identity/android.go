package identity

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
)

// Relative locations inside a Flutter project
var (
	androidAppDir       = filepath.Join("android", "app")
	androidMainManifest = filepath.Join(androidAppDir, "src", "main", "AndroidManifest.xml")
	// Flavour manifests carry a package attribute in older templates
	androidExtraManifests = []string{
		filepath.Join(androidAppDir, "src", "debug", "AndroidManifest.xml"),
		filepath.Join(androidAppDir, "src", "profile", "AndroidManifest.xml"),
	}
	androidBuildDescriptors = []string{
		filepath.Join(androidAppDir, "build.gradle"),
		filepath.Join(androidAppDir, "build.gradle.kts"),
	}
	androidSourceRoots = []string{
		filepath.Join(androidAppDir, "src", "main", "kotlin"),
		filepath.Join(androidAppDir, "src", "main", "java"),
	}
	// Priority order when both exist
	entryFileNames = []string{"MainActivity.kt", "MainActivity.java"}
)

// AndroidOptions tunes the platform A rewrite
type AndroidOptions struct {
	// UpdateLabel replaces android:label with the display name
	UpdateLabel bool
}

// AndroidResult describes what the rewrite changed
type AndroidResult struct {
	OldID        string   `json:"old_id"`
	NewID        string   `json:"new_id"`
	ChangedFiles []string `json:"changed_files"`
	EntryFile    string   `json:"entry_file"`
	Relocated    bool     `json:"relocated"`
}

// AndroidRewriter applies an identity to the android/ tree
type AndroidRewriter struct {
	Logger utils.Logger
}

// NewAndroidRewriter creates a platform A rewriter
func NewAndroidRewriter(logger utils.Logger) *AndroidRewriter {
	return &AndroidRewriter{Logger: logger}
}

// Rewrite replaces the package identifier and relocates the entry source file
func (r *AndroidRewriter) Rewrite(workDir string, identity models.ProjectIdentity, opts AndroidOptions) (*AndroidResult, error) {
	manifestPath := filepath.Join(workDir, androidMainManifest)
	manifest, err := loadText(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewStructuralNotFoundError(errors.CodeManifestIdentifierNotFound, manifestPath,
				"Android manifest not found")
		}
		return nil, err
	}

	oldID, ok := ManifestPackage.Find(manifest.content)
	if !ok || oldID == "" {
		return nil, errors.NewManifestIdentifierNotFoundError(manifestPath)
	}
	newID := identity.BundleID
	result := &AndroidResult{OldID: oldID, NewID: newID}
	log := r.logger().WithFields(map[string]interface{}{"old_id": oldID, "new_id": newID})
	log.Info("Rewriting Android identity %s -> %s", oldID, newID)

	// Manifests
	manifest.apply(ManifestPackage, newID)
	if opts.UpdateLabel && identity.DisplayName != "" {
		if manifest.apply(ApplicationLabel, identity.DisplayName) == 0 {
			log.Debug("No android:label on <application> in %s", manifestPath)
		}
	}
	if err := r.save(manifest, result); err != nil {
		return nil, err
	}

	for _, rel := range androidExtraManifests {
		path := filepath.Join(workDir, rel)
		f, err := loadText(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		f.apply(ManifestPackage, newID)
		if err := r.save(f, result); err != nil {
			return nil, err
		}
	}

	// Build descriptor
	if err := r.rewriteBuildDescriptor(workDir, newID, result); err != nil {
		return nil, err
	}

	if oldID == newID {
		log.Debug("Package identifier unchanged, skipping source relocation")
		return result, nil
	}

	// Entry source file
	entry, root, err := findEntryFile(workDir, oldID)
	if err != nil {
		return nil, err
	}

	newDir := filepath.Join(root, models.NewPackagePath(newID).Dir())
	if err := os.MkdirAll(newDir, 0755); err != nil {
		return nil, errors.NewFileSystemError(err, "PACKAGE_DIR_CREATE_FAILED", "failed to create "+newDir)
	}
	target := filepath.Join(newDir, filepath.Base(entry))
	if exists(target) {
		return nil, errors.NewError(errors.ErrorTypeFileSystem, "ENTRY_FILE_CONFLICT",
			fmt.Sprintf("%s already exists", target)).WithContext("file", target)
	}
	if err := os.Rename(entry, target); err != nil {
		return nil, errors.NewFileSystemError(err, "ENTRY_FILE_MOVE_FAILED", "failed to move entry file")
	}
	pruneEmptyDirs(filepath.Dir(entry), root)
	log.Debug("Moved %s -> %s", entry, target)

	src, err := loadText(target)
	if err != nil {
		return nil, err
	}
	// References first, so a new id that extends the old one is not rewritten twice.
	src.applyAll(QualifiedReference(oldID), newID)
	src.apply(SourcePackage, newID)
	if err := r.save(src, result); err != nil {
		return nil, err
	}

	result.EntryFile = target
	result.Relocated = true
	return result, nil
}

func (r *AndroidRewriter) rewriteBuildDescriptor(workDir, newID string, result *AndroidResult) error {
	var descriptor *textFile
	for _, rel := range androidBuildDescriptors {
		f, err := loadText(filepath.Join(workDir, rel))
		if err == nil {
			descriptor = f
			break
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	if descriptor == nil {
		return errors.NewStructuralNotFoundError(errors.CodeBuildDescriptorFieldNotFound,
			filepath.Join(workDir, androidBuildDescriptors[0]), "Android build descriptor not found")
	}

	if descriptor.applyAll(GradleApplicationID, newID) == 0 {
		return errors.NewStructuralNotFoundError(errors.CodeBuildDescriptorFieldNotFound, descriptor.path,
			"applicationId not found in build descriptor")
	}
	descriptor.apply(GradleNamespace, newID)
	return r.save(descriptor, result)
}

func (r *AndroidRewriter) save(f *textFile, result *AndroidResult) error {
	changed := f.dirty
	if err := f.save(); err != nil {
		return err
	}
	if changed {
		result.ChangedFiles = append(result.ChangedFiles, f.path)
	}
	return nil
}

func (r *AndroidRewriter) logger() utils.Logger {
	if r.Logger == nil {
		return utils.NewNopLogger()
	}
	return r.Logger
}

// findEntryFile returns the entry file under the old package path and its source root
func findEntryFile(workDir, oldID string) (string, string, error) {
	pkgDir := models.NewPackagePath(oldID).Dir()
	for _, name := range entryFileNames {
		for _, rel := range androidSourceRoots {
			root := filepath.Join(workDir, rel)
			candidate := filepath.Join(root, pkgDir, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, root, nil
			}
		}
	}
	return "", "", errors.NewSourceEntryMissingError(filepath.Join(workDir, androidSourceRoots[0], pkgDir))
}

// pruneEmptyDirs removes dir and its parents while they are empty, stopping at root
func pruneEmptyDirs(dir, root string) {
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
