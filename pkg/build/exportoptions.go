package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/huanfeng/apprebrand/pkg/models"
	"howett.net/plist"
)

// ExportOptions is the xcodebuild -exportArchive options file
type ExportOptions struct {
	Method            string `plist:"method"`
	TeamID            string `plist:"teamID,omitempty"`
	SigningStyle      string `plist:"signingStyle"`
	UploadSymbols     bool   `plist:"uploadSymbols"`
	StripSwiftSymbols bool   `plist:"stripSwiftSymbols"`
}

// NewExportOptions derives export options from the iOS signing settings
func NewExportOptions(signing models.IOSSigning) ExportOptions {
	method := signing.ExportMethod
	if method == "" {
		method = "app-store"
	}
	style := strings.ToLower(signing.SigningStyle)
	if style != "manual" {
		style = "automatic"
	}
	return ExportOptions{
		Method:            method,
		TeamID:            signing.TeamID,
		SigningStyle:      style,
		UploadSymbols:     true,
		StripSwiftSymbols: true,
	}
}

// WriteExportOptions writes ios/ExportOptions.plist into the working copy
func WriteExportOptions(workDir string, opts ExportOptions) (string, error) {
	data, err := plist.MarshalIndent(opts, plist.XMLFormat, "\t")
	if err != nil {
		return "", err
	}
	path := filepath.Join(workDir, ExportOptionsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0644)
}
