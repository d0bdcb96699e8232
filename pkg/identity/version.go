package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"gopkg.in/yaml.v3"
)

var pubspecFile = "pubspec.yaml"

// FormatVersion renders the pubspec version value for a platform.
// Android carries <name>+<code>; iOS carries the bare <name>.
func FormatVersion(platform models.Platform, name string, code int) string {
	if platform == models.PlatformAndroid {
		return fmt.Sprintf("%s+%d", name, code)
	}
	return name
}

// SplitVersion splits "1.2.3+4" into its name and code; code is 0 when absent
func SplitVersion(value string) (string, int) {
	name, codeStr, found := strings.Cut(value, "+")
	if !found {
		return name, 0
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return name, 0
	}
	return name, code
}

// StampVersion rewrites the version line of pubspec.yaml and returns the written value
func StampVersion(workDir string, platform models.Platform, identity models.ProjectIdentity) (string, error) {
	path := filepath.Join(workDir, pubspecFile)
	f, err := loadText(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewStructuralNotFoundError(errors.CodeVersionLineNotFound, path, "pubspec.yaml not found")
		}
		return "", err
	}

	current, ok := PubspecVersion.Find(f.content)
	if !ok {
		return "", errors.NewStructuralNotFoundError(errors.CodeVersionLineNotFound, path,
			"version line not found in pubspec.yaml")
	}

	name, code := SplitVersion(current)
	if identity.VersionName != "" {
		name = identity.VersionName
	}
	if identity.VersionCode > 0 {
		code = identity.VersionCode
	}
	if code <= 0 {
		code = 1
	}

	value := FormatVersion(platform, name, code)
	f.apply(PubspecVersion, value)

	// Decoded as a node so "1.0" is compared as written, not as a float.
	var parsed struct {
		Version yaml.Node `yaml:"version"`
	}
	if err := yaml.Unmarshal([]byte(f.content), &parsed); err != nil {
		return "", errors.NewParsingError(err, "PUBSPEC_INVALID", "pubspec.yaml no longer parses after version stamp").
			WithContext("file", path)
	}
	if got := parsed.Version.Value; got != value {
		return "", errors.NewParsingError(nil, "PUBSPEC_VERSION_MISMATCH",
			fmt.Sprintf("pubspec.yaml version reads back as %q, expected %q", got, value)).
			WithContext("file", path)
	}

	if err := f.save(); err != nil {
		return "", err
	}
	return value, nil
}
