package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/huanfeng/apprebrand/pkg/credentials"
	"github.com/huanfeng/apprebrand/pkg/system"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/spf13/cobra"
)

// minFreeSpace is the least free disk space a Flutter build is expected to need
const minFreeSpace = 2 << 30

var doctorPlatforms []string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check build tools, disk space and the credential cache",
	Long: `The doctor command checks every external tool a rebrand may need, the free
space under the workspace and output roots, and the state of the upload keystore cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		log := utils.GetGlobalLogger()
		log.Debug("Starting diagnostics")

		fmt.Fprintln(out, i18n.T("doctor.title"))
		fmt.Fprintln(out, strings.Repeat("=", 50))

		deps := system.NewDependencyManager()
		var issues []string

		fmt.Fprintln(out, "\n"+i18n.T("doctor.dependencies"))
		issues = append(issues, checkDependencies(out, deps)...)

		fmt.Fprintln(out, "\n"+i18n.T("doctor.disk"))
		issues = append(issues, checkDisk(out, cfg.Paths.WorkspaceRoot, cfg.Paths.OutputRoot)...)

		fmt.Fprintln(out, "\n"+i18n.T("doctor.credentials"))
		issues = append(issues, checkCredentialCache(out, cfg.Paths.CredentialCache, deps)...)

		fmt.Fprintln(out, "\n"+strings.Repeat("=", 50))
		if len(issues) == 0 {
			fmt.Fprintln(out, i18n.T("doctor.allPassed"))
			return nil
		}

		fmt.Fprintln(out, i18n.T("doctor.issues", map[string]interface{}{"count": len(issues)}))
		for i, issue := range issues {
			fmt.Fprintf(out, "%d. %s\n", i+1, issue)
		}
		return errors.NewError(errors.ErrorTypeDependency, "DOCTOR_FAILED", "system diagnostics found issues")
	},
}

// checkDependencies prints each tool and returns problems for the selected platforms
func checkDependencies(out io.Writer, deps system.DependencyManager) []string {
	needed := map[string]bool{}
	for _, platform := range doctorPlatforms {
		for _, mode := range []string{"", "-release"} {
			for _, status := range deps.CheckForCommand(platform + mode) {
				needed[status.Name] = true
			}
		}
	}

	var issues []string
	for _, name := range deps.Names() {
		status := deps.CheckDependency(name)
		switch {
		case status.Available:
			fmt.Fprintf(out, "   ✅ %s: %s (%s)\n", name, status.Version, status.Path)
		case needed[name]:
			fmt.Fprintf(out, "   ❌ %s: %s\n", name, i18n.T("doctor.notFound"))
			issues = append(issues, i18n.T("doctor.missingTool", map[string]interface{}{"name": name}))
			for _, line := range deps.GetInstallInstructions(name) {
				fmt.Fprintf(out, "      • %s\n", line)
			}
		default:
			fmt.Fprintf(out, "   ⚠️  %s: %s\n", name, i18n.T("doctor.notNeeded"))
		}
	}
	return issues
}

func checkDisk(out io.Writer, paths ...string) []string {
	var issues []string
	for _, path := range paths {
		usage, err := system.CheckDiskSpace(path)
		if err != nil {
			fmt.Fprintf(out, "   ⚠️  %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "   💿 %s: %.1f%% used (%s available)\n",
			path, usage.UsedPercent(), humanize.Bytes(usage.Available))
		if usage.Available < minFreeSpace {
			issues = append(issues, i18n.T("doctor.lowDisk", map[string]interface{}{
				"path": path, "free": humanize.Bytes(usage.Available),
			}))
		}
	}
	return issues
}

func checkCredentialCache(out io.Writer, cacheDir string, deps system.Resolver) []string {
	store := credentials.NewStore(cacheDir, deps, nil, nil, nil)
	state, err := store.State()
	if err != nil {
		fmt.Fprintf(out, "   ❌ %v\n", err)
		return []string{err.Error()}
	}

	fmt.Fprintf(out, "   🔑 %s: %s\n", cacheDir, state)
	if state == credentials.StateAbsent {
		if _, statErr := os.Stat(cacheDir); statErr == nil {
			fmt.Fprintf(out, "      %s\n", i18n.T("doctor.cacheEmpty"))
		}
	}
	return nil
}

func init() {
	doctorCmd.Flags().StringSliceVarP(&doctorPlatforms, "platforms", "p", []string{"android", "ios"}, "platforms whose tools are required")
	rootCmd.AddCommand(doctorCmd)
}
