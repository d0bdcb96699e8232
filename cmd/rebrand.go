package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/huanfeng/apprebrand/pkg/build"
	"github.com/huanfeng/apprebrand/pkg/credentials"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/pipeline"
	"github.com/huanfeng/apprebrand/pkg/system"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvKeystorePassword supplies the keystore password without a prompt
const EnvKeystorePassword = "APPREBRAND_KEYSTORE_PASSWORD"

var (
	rebrandTemplate     string
	rebrandBundleID     string
	rebrandName         string
	rebrandCategoryID   int
	rebrandAPIURL       string
	rebrandProductID    string
	rebrandVersionName  string
	rebrandVersionCode  int
	rebrandMode         string
	rebrandPlatforms    []string
	rebrandIcon         string
	rebrandYes          bool
	rebrandKeepLabel    bool
	rebrandTeamID       string
	rebrandSigningStyle string
	rebrandMinIOS       string
	rebrandExportMethod string
	rebrandWorkspace    string
	rebrandOutput       string
	rebrandJSON         bool
	rebrandQuiet        bool
)

var rebrandCmd = &cobra.Command{
	Use:   "rebrand",
	Short: "Copy the template, apply a new identity and build it",
	Long: `Copy a Flutter template into the workspace, rewrite its Android and iOS
identity, icons and runtime settings, then build and collect the artifacts.

Values missing from the flags are asked for interactively.`,
	Example: `  apprebrand rebrand -t ./template --bundle-id com.acme.app --name Acme
  apprebrand rebrand -t ./template --bundle-id com.acme.app --name Acme --mode release --platforms android -y`,
	RunE: runRebrand,
}

func runRebrand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPrompter(cmd.InOrStdin(), out)

	req, err := buildRequest(p)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		WorkspaceRoot:    firstNonEmpty(rebrandWorkspace, cfg.Paths.WorkspaceRoot),
		OutputRoot:       firstNonEmpty(rebrandOutput, cfg.Paths.OutputRoot),
		CredentialCache:  cfg.Paths.CredentialCache,
		AssetConcurrency: cfg.Build.AssetConcurrency,
		Runtime:          cfg.Runtime,
		Build:            build.PlanOptions{Overrides: cfg.Build.Commands},
	}

	progress := utils.NewStageProgress(out, pipeline.StageCount(req), rebrandQuiet || rebrandJSON)
	pl := pipeline.New(opts, system.NewDependencyManager(), system.NewExecRunner(), logger)
	pl.Confirmer = p.confirmer(rebrandYes)
	pl.Credentials = credentials.SourceFunc(p.signingSource(cfg.Signing, os.Getenv(EnvKeystorePassword)))
	pl.Observer = progress

	start := time.Now()
	result, err := pl.Run(cmd.Context(), req)
	if err != nil {
		return reportFailure(cmd, result, progress, time.Since(start), err)
	}

	if rebrandJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderSummary(out, req, result, progress.Elapsed())
	return nil
}

func buildRequest(p *prompter) (pipeline.Request, error) {
	var err error
	if rebrandTemplate == "" {
		if rebrandTemplate, err = p.promptRequired(i18n.T("prompt.template"), ""); err != nil {
			return pipeline.Request{}, err
		}
	}
	if rebrandBundleID == "" {
		if rebrandBundleID, err = p.promptRequired(i18n.T("prompt.bundleId"), ""); err != nil {
			return pipeline.Request{}, err
		}
	}
	if rebrandName == "" {
		if rebrandName, err = p.promptRequired(i18n.T("prompt.displayName"), ""); err != nil {
			return pipeline.Request{}, err
		}
	}

	mode, err := models.ParseBuildMode(rebrandMode)
	if err != nil {
		return pipeline.Request{}, errors.NewValidationError("INVALID_MODE", err.Error())
	}

	platforms := models.NewPlatformSet()
	for _, raw := range rebrandPlatforms {
		for _, name := range strings.Split(raw, ",") {
			switch pl := models.Platform(strings.ToLower(strings.TrimSpace(name))); pl {
			case models.PlatformAndroid, models.PlatformIOS:
				platforms[pl] = true
			case "":
			default:
				return pipeline.Request{}, errors.NewValidationError("INVALID_PLATFORM",
					fmt.Sprintf("unknown platform %q (want android or ios)", name))
			}
		}
	}

	signing := cfg.IOS
	if rebrandTeamID != "" {
		signing.TeamID = rebrandTeamID
	}
	if rebrandSigningStyle != "" {
		signing.SigningStyle = rebrandSigningStyle
	}
	if rebrandMinIOS != "" {
		signing.MinPlatformVersion = rebrandMinIOS
	}
	if rebrandExportMethod != "" {
		signing.ExportMethod = rebrandExportMethod
	}

	return pipeline.Request{
		TemplateDir: rebrandTemplate,
		Identity: models.ProjectIdentity{
			BundleID:          rebrandBundleID,
			DisplayName:       rebrandName,
			OfflineCategoryID: rebrandCategoryID,
			APIURL:            rebrandAPIURL,
			ProductID:         rebrandProductID,
			VersionName:       rebrandVersionName,
			VersionCode:       rebrandVersionCode,
		},
		Mode:        mode,
		Platforms:   platforms,
		IconPath:    rebrandIcon,
		IOS:         signing,
		UpdateLabel: !rebrandKeepLabel,
	}, nil
}

func reportFailure(cmd *cobra.Command, result *pipeline.Result, progress *utils.StageProgress, elapsed time.Duration, err error) error {
	runID := ""
	if result != nil {
		runID = result.RunID
	}

	opCtx := &errors.OperationContext{
		Command:   cmd.Name(),
		Arguments: cmd.Flags().Args(),
		Flags:     map[string]string{},
		Duration:  elapsed,
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		opCtx.Flags[f.Name] = f.Value.String()
	})
	for _, t := range progress.Timings() {
		if t.Failed {
			opCtx.StageFailed = t.Name
		}
	}

	reporter := errors.NewErrorReporter(cfg.Paths.ReportDir, logger)
	report := reporter.GenerateReport(runID, err, opCtx)
	reporter.DisplayReport(cmd.ErrOrStderr(), report)
	if path, saveErr := reporter.SaveReport(report); saveErr == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("rebrand.reportSaved", map[string]interface{}{"path": path}))
	} else {
		logger.Warn("Could not save error report: %v", saveErr)
	}
	return reportedError{err}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(14)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderSummary(w io.Writer, req pipeline.Request, res *pipeline.Result, elapsed time.Duration) {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	b.WriteString(titleStyle.Render(i18n.T("summary.title")) + "\n\n")
	row(i18n.T("summary.bundleId"), req.Identity.BundleID)
	row(i18n.T("summary.mode"), string(req.Mode))
	row(i18n.T("summary.workDir"), res.WorkDir)
	if res.Version != "" {
		row(i18n.T("summary.version"), res.Version)
	}
	if res.Credentials != nil && res.Credentials.Fingerprint != "" {
		row(i18n.T("summary.certificate"), res.Credentials.Fingerprint)
	}
	row(i18n.T("summary.elapsed"), elapsed.Round(time.Second).String())

	if res.Artifacts != nil {
		b.WriteString("\n" + i18n.T("summary.artifacts", map[string]interface{}{"path": res.Artifacts.OutputDir}) + "\n")
		for _, a := range res.Artifacts.Artifacts {
			fmt.Fprintf(&b, "  %-8s %-10s %s (%s)\n", a.Platform, a.Kind, a.OutputPath, humanize.Bytes(uint64(a.Size)))
		}
	}
	for _, warning := range res.Warnings {
		b.WriteString(warnStyle.Render("! "+warning.Message) + "\n")
	}

	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	f := rebrandCmd.Flags()
	f.StringVarP(&rebrandTemplate, "template", "t", "", "template project directory")
	f.StringVar(&rebrandBundleID, "bundle-id", "", "new bundle id, e.g. com.acme.app")
	f.StringVar(&rebrandName, "name", "", "display name")
	f.IntVar(&rebrandCategoryID, "category-id", 0, "offline category id")
	f.StringVar(&rebrandAPIURL, "api-url", "", "API base URL")
	f.StringVar(&rebrandProductID, "product-id", "", "product id (defaults to the bundle id)")
	f.StringVar(&rebrandVersionName, "version-name", "", "version name X.Y.Z (release only)")
	f.IntVar(&rebrandVersionCode, "version-code", 0, "version code (release only)")
	f.StringVarP(&rebrandMode, "mode", "m", "debug", "build mode: debug or release")
	f.StringSliceVarP(&rebrandPlatforms, "platforms", "p", []string{"android", "ios"}, "platforms to rebrand and build")
	f.StringVar(&rebrandIcon, "icon", "", "square source image for the launcher icons")
	f.BoolVarP(&rebrandYes, "yes", "y", false, "replace an existing working copy without asking")
	f.BoolVar(&rebrandKeepLabel, "keep-label", false, "keep the Android application label")
	f.StringVar(&rebrandTeamID, "team-id", "", "Apple development team id")
	f.StringVar(&rebrandSigningStyle, "signing-style", "", "iOS signing style: Automatic or Manual")
	f.StringVar(&rebrandMinIOS, "min-ios", "", "minimum iOS version written to the Podfile")
	f.StringVar(&rebrandExportMethod, "export-method", "", "iOS export method")
	f.StringVar(&rebrandWorkspace, "workspace", "", "override paths.workspace_root")
	f.StringVar(&rebrandOutput, "output", "", "override paths.output_root")
	f.BoolVar(&rebrandJSON, "json", false, "print the result as JSON")
	f.BoolVarP(&rebrandQuiet, "quiet", "q", false, "hide stage progress")

	rootCmd.AddCommand(rebrandCmd)
}
