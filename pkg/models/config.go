package models

// Config represents the application configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths" json:"paths"`
	Build   BuildConfig   `mapstructure:"build" json:"build"`
	Runtime RuntimeConfig `mapstructure:"runtime" json:"runtime"`
	Signing SigningConfig `mapstructure:"signing" json:"signing"`
	IOS     IOSSigning    `mapstructure:"ios" json:"ios"`
	Log     LogConfig     `mapstructure:"log" json:"log"`
}

// PathsConfig contains the fixed roots every run is threaded with
type PathsConfig struct {
	WorkspaceRoot   string `mapstructure:"workspace_root" json:"workspace_root"`
	OutputRoot      string `mapstructure:"output_root" json:"output_root"`
	CredentialCache string `mapstructure:"credential_cache" json:"credential_cache"`
	ReportDir       string `mapstructure:"report_dir" json:"report_dir"`
}

// BuildConfig contains build orchestration settings
type BuildConfig struct {
	// Commands overrides the default plan, keyed by platform then mode.
	// Each entry is a shell-quoted command line.
	Commands         map[string]map[string][]string `mapstructure:"commands" json:"commands,omitempty"`
	AssetConcurrency int                            `mapstructure:"asset_concurrency" json:"asset_concurrency"`
}

// RuntimeConfig names the constants patched in the runtime config source
type RuntimeConfig struct {
	File      string            `mapstructure:"file" json:"file"`
	Constants map[string]string `mapstructure:"constants" json:"constants"`
}

// SigningConfig contains the defaults offered when a keystore is generated
type SigningConfig struct {
	Alias        string            `mapstructure:"alias" json:"alias"`
	ValidityDays int               `mapstructure:"validity_days" json:"validity_days"`
	DName        DistinguishedName `mapstructure:"dname" json:"dname"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
	File   string `mapstructure:"file" json:"file"`
	Color  bool   `mapstructure:"color" json:"color"`
}
