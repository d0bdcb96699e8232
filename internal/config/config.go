package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/spf13/viper"
)

// Constant roles understood by the runtime config propagation
const (
	ConstantCategoryID = "category_id"
	ConstantAPIURL     = "api_url"
	ConstantProductID  = "product_id"
)

var defaultConfig = models.Config{
	Paths: models.PathsConfig{
		WorkspaceRoot:   "workspace",
		OutputRoot:      "output",
		CredentialCache: filepath.Join("~", ".config", "apprebrand", "credentials"),
		ReportDir:       filepath.Join("~", ".config", "apprebrand", "reports"),
	},
	Build: models.BuildConfig{
		AssetConcurrency: 4,
	},
	Runtime: models.RuntimeConfig{
		File: filepath.Join("lib", "config.dart"),
		Constants: map[string]string{
			ConstantCategoryID: "offlineCategoryId",
			ConstantAPIURL:     "apiUrl",
			ConstantProductID:  "productId",
		},
	},
	Signing: models.SigningConfig{
		Alias:        "upload",
		ValidityDays: 10000,
	},
	IOS: models.IOSSigning{
		SigningStyle:       "Automatic",
		IdentityType:       "Apple Development",
		MinPlatformVersion: "",
		ExportMethod:       "app-store",
	},
	Log: models.LogConfig{
		Level:  "info",
		Format: "text",
		Color:  true,
	},
}

// Default returns a copy of the built-in configuration
func Default() *models.Config {
	cfg := defaultConfig
	cfg.Runtime.Constants = make(map[string]string, len(defaultConfig.Runtime.Constants))
	for k, v := range defaultConfig.Runtime.Constants {
		cfg.Runtime.Constants[k] = v
	}
	expandPaths(&cfg)
	return &cfg
}

// Load loads configuration from file and environment
func Load(configPath string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("paths.workspace_root", defaultConfig.Paths.WorkspaceRoot)
	v.SetDefault("paths.output_root", defaultConfig.Paths.OutputRoot)
	v.SetDefault("paths.credential_cache", defaultConfig.Paths.CredentialCache)
	v.SetDefault("paths.report_dir", defaultConfig.Paths.ReportDir)
	v.SetDefault("build.asset_concurrency", defaultConfig.Build.AssetConcurrency)
	v.SetDefault("runtime.file", defaultConfig.Runtime.File)
	v.SetDefault("runtime.constants", defaultConfig.Runtime.Constants)
	v.SetDefault("signing.alias", defaultConfig.Signing.Alias)
	v.SetDefault("signing.validity_days", defaultConfig.Signing.ValidityDays)
	v.SetDefault("ios.team_id", defaultConfig.IOS.TeamID)
	v.SetDefault("ios.signing_style", defaultConfig.IOS.SigningStyle)
	v.SetDefault("ios.identity_type", defaultConfig.IOS.IdentityType)
	v.SetDefault("ios.min_platform_version", defaultConfig.IOS.MinPlatformVersion)
	v.SetDefault("ios.export_method", defaultConfig.IOS.ExportMethod)
	v.SetDefault("log.level", defaultConfig.Log.Level)
	v.SetDefault("log.format", defaultConfig.Log.Format)
	v.SetDefault("log.file", defaultConfig.Log.File)
	v.SetDefault("log.color", defaultConfig.Log.Color)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("rebrand")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "apprebrand"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error, we'll use defaults
	}

	v.SetEnvPrefix("APPREBRAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Roles missing from the file fall back to their defaults.
	for role, name := range defaultConfig.Runtime.Constants {
		if _, ok := config.Runtime.Constants[role]; !ok {
			if config.Runtime.Constants == nil {
				config.Runtime.Constants = make(map[string]string)
			}
			config.Runtime.Constants[role] = name
		}
	}

	expandPaths(&config)
	return &config, nil
}

func expandPaths(cfg *models.Config) {
	cfg.Paths.WorkspaceRoot = expandHome(cfg.Paths.WorkspaceRoot)
	cfg.Paths.OutputRoot = expandHome(cfg.Paths.OutputRoot)
	cfg.Paths.CredentialCache = expandHome(cfg.Paths.CredentialCache)
	cfg.Paths.ReportDir = expandHome(cfg.Paths.ReportDir)
	cfg.Log.File = expandHome(cfg.Log.File)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// SaveTemplate saves a configuration template
func SaveTemplate(path string) error {
	templateContent := `# apprebrand configuration file

paths:
  # Parent directory of every working copy
  workspace_root: "workspace"

  # Collected artifacts land in <output_root>/<bundle id with dots replaced by underscores>
  output_root: "output"

  # Android upload keystore cache, reused across runs
  credential_cache: "~/.config/apprebrand/credentials"

  # Failure reports
  report_dir: "~/.config/apprebrand/reports"

build:
  # Parallel icon writers
  asset_concurrency: 4

  # Override the built-in command plans (shell-quoted, run in order)
  # commands:
  #   android:
  #     release:
  #       - "flutter build apk --release --split-per-abi"
  #       - "flutter build appbundle --release"

runtime:
  # Dart source holding the runtime constants
  file: "lib/config.dart"

  # Constant names patched in the runtime config file
  constants:
    category_id: "offlineCategoryId"
    api_url: "apiUrl"
    product_id: "productId"

signing:
  # Defaults offered when a new upload keystore is generated
  alias: "upload"
  validity_days: 10000
  # dname:
  #   common_name: "Acme Inc"
  #   organization: "Acme"
  #   country: "US"

ios:
  team_id: ""
  # Automatic or Manual
  signing_style: "Automatic"
  identity_type: "Apple Development"
  # Leave empty to keep the Podfile platform line untouched
  min_platform_version: ""
  # app-store, ad-hoc, enterprise or development
  export_method: "app-store"

log:
  # debug, info, warn or error
  level: "info"
  # text or json
  format: "text"
  file: ""
  color: true
`

	return os.WriteFile(path, []byte(templateContent), 0644)
}
