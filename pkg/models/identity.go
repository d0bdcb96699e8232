package models

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
)

var (
	bundleIDPattern    = regexp.MustCompile(`^[A-Za-z0-9]+(\.[A-Za-z0-9]+)+$`)
	versionNamePattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// ProjectIdentity is the application identity applied to a working copy
type ProjectIdentity struct {
	BundleID          string `json:"bundle_id" yaml:"bundle_id"`
	DisplayName       string `json:"display_name" yaml:"display_name"`
	OfflineCategoryID int    `json:"offline_category_id" yaml:"offline_category_id"`
	APIURL            string `json:"api_url" yaml:"api_url"`
	ProductID         string `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	VersionName       string `json:"version_name,omitempty" yaml:"version_name,omitempty"`
	VersionCode       int    `json:"version_code,omitempty" yaml:"version_code,omitempty"`
}

// Validate checks the identity before any file is touched
func (p ProjectIdentity) Validate() error {
	if err := ValidateBundleID(p.BundleID); err != nil {
		return err
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return errors.NewValidationError("DISPLAY_NAME_REQUIRED", "display name is required")
	}
	if p.APIURL != "" {
		u, err := url.Parse(p.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.NewValidationError("INVALID_API_URL",
				fmt.Sprintf("api url %q must be an absolute http(s) URL", p.APIURL))
		}
	}
	if p.VersionName != "" && !versionNamePattern.MatchString(p.VersionName) {
		return errors.NewValidationError("INVALID_VERSION_NAME",
			fmt.Sprintf("version name %q must look like X.Y.Z", p.VersionName))
	}
	if p.VersionCode < 0 {
		return errors.NewValidationError("INVALID_VERSION_CODE", "version code must be positive")
	}
	return nil
}

// EffectiveProductID returns the product identifier, falling back to the bundle id
func (p ProjectIdentity) EffectiveProductID() string {
	if p.ProductID != "" {
		return p.ProductID
	}
	return p.BundleID
}

// FolderName is the output folder name derived from the bundle id
func (p ProjectIdentity) FolderName() string {
	return ConvertToFolderName(p.BundleID)
}

// ValidateBundleID checks the segment(.segment)+ shape
func ValidateBundleID(bundleID string) error {
	if !bundleIDPattern.MatchString(bundleID) {
		return errors.NewValidationError("INVALID_BUNDLE_ID",
			fmt.Sprintf("bundle id %q must be alphanumeric segments joined by '.'", bundleID)).
			WithContext("bundle_id", bundleID)
	}
	return nil
}

// ConvertToFolderName replaces every '.' with '_'.
// Segments never contain '_' so the mapping is injective over valid ids.
func ConvertToFolderName(bundleID string) string {
	return strings.ReplaceAll(bundleID, ".", "_")
}

// PackagePath is a bundle id exploded into directory segments
type PackagePath []string

// NewPackagePath splits a bundle id on '.'
func NewPackagePath(bundleID string) PackagePath {
	return PackagePath(strings.Split(bundleID, "."))
}

// Dir returns the relative directory for the package
func (p PackagePath) Dir() string {
	return filepath.Join(p...)
}

// Identifier joins the segments back into a bundle id
func (p PackagePath) Identifier() string {
	return strings.Join(p, ".")
}
