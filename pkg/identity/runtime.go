package identity

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
)

// Runtime setting roles
const (
	RoleCategoryID = "category_id"
	RoleAPIURL     = "api_url"
	RoleProductID  = "product_id"
)

// RuntimeSettings are the values propagated into the runtime config source
type RuntimeSettings struct {
	// File is relative to the working copy
	File string
	// Constants maps a role to the declared constant name
	Constants  map[string]string
	CategoryID int
	APIURL     string
	ProductID  string
}

// NewRuntimeSettings derives settings from the configured file and constant names
func NewRuntimeSettings(cfg models.RuntimeConfig, identity models.ProjectIdentity) RuntimeSettings {
	return RuntimeSettings{
		File:       cfg.File,
		Constants:  cfg.Constants,
		CategoryID: identity.OfflineCategoryID,
		APIURL:     identity.APIURL,
		ProductID:  identity.EffectiveProductID(),
	}
}

// PropagateRuntimeConfig patches each declared constant and returns the names that were absent
func PropagateRuntimeConfig(workDir string, settings RuntimeSettings) ([]string, error) {
	path := filepath.Join(workDir, settings.File)
	f, err := loadText(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewStructuralNotFoundError(errors.CodeRuntimeConfigNotFound, path,
				"runtime config source not found")
		}
		return nil, err
	}

	type edit struct {
		pattern *Pattern
		value   string
	}
	var edits []edit
	var names []string
	add := func(role string, build func(string) *Pattern, value string) {
		name, ok := settings.Constants[role]
		if !ok || name == "" {
			return
		}
		edits = append(edits, edit{build(name), value})
		names = append(names, name)
	}

	add(RoleCategoryID, DartIntConstant, strconv.Itoa(settings.CategoryID))
	if settings.APIURL != "" {
		add(RoleAPIURL, DartStringConstant, settings.APIURL)
	}
	if settings.ProductID != "" {
		add(RoleProductID, DartStringConstant, settings.ProductID)
	}

	var skipped []string
	for i, e := range edits {
		if f.apply(e.pattern, e.value) == 0 {
			skipped = append(skipped, names[i])
		}
	}
	sort.Strings(skipped)

	if err := f.save(); err != nil {
		return nil, err
	}
	return skipped, nil
}
