package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/huanfeng/apprebrand/internal/config"
	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/huanfeng/apprebrand/internal/version"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFile    string
	logFormat  string
	noColor    bool
	langFlag   string

	cfg    *models.Config
	logger *utils.RebrandLogger
)

var rootCmd = &cobra.Command{
	Use:   "apprebrand",
	Short: "Rebrand a Flutter template and build it",
	Long: `apprebrand copies a Flutter template project, applies a new application
identity (bundle id, display name, icons, runtime settings, signing) and runs the
native Android and iOS builds, collecting the artifacts per identity.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

// persistentPreRun loads configuration and sets up localization and logging
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if err := i18n.Init(langFlag); err != nil {
		fmt.Fprintf(os.Stderr, "i18n: %v\n", err)
	}
	applyCommandLocalization()

	loaded, err := config.Load(configPath)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeConfiguration, "CONFIG_LOAD_FAILED",
			"failed to load configuration").
			WithSuggestion("Run 'apprebrand init' to write a fresh rebrand.yaml")
	}
	cfg = loaded

	logCfg := &utils.LoggerConfig{
		Level:       utils.ParseLogLevel(cfg.Log.Level),
		Format:      utils.ParseLogFormat(cfg.Log.Format),
		Output:      os.Stderr,
		FilePath:    cfg.Log.File,
		EnableColor: cfg.Log.Color && !noColor,
	}
	if verbose {
		logCfg.Level = utils.LogLevelDebug
	}
	if logFile != "" {
		logCfg.FilePath = logFile
	}
	if logFormat != "" {
		logCfg.Format = utils.ParseLogFormat(logFormat)
	}

	logger, err = utils.NewLogger(logCfg)
	if err != nil {
		return err
	}
	utils.SetGlobalLogger(logger)
	return nil
}

// reportedError marks an error already rendered to the operator
type reportedError struct{ err error }

func (r reportedError) Error() string { return r.err.Error() }
func (r reportedError) Unwrap() error { return r.err }

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var reported reportedError
	switch {
	case stderrors.As(err, &reported):
	case isRebrandError(err):
		var log errors.Logger
		if logger != nil {
			log = logger
		}
		fmt.Fprint(os.Stderr, errors.NewErrorHandler(log).Handle(err).FormatDetailed())
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return errors.ExitCode(err)
}

func isRebrandError(err error) bool {
	_, ok := errors.As(err)
	return ok
}

func init() {
	// The hook refers back to rootCmd, so it cannot live in the literal
	rootCmd.PersistentPreRunE = persistentPreRun
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./rebrand.yaml or ~/.config/apprebrand/rebrand.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "interface language (en, zh)")
}
