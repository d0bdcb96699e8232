package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	cleanDryRun  bool
	cleanOutputs bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [bundle-id...]",
	Short: "Remove working copies from the workspace",
	Long: `Remove the working copies of the given bundle ids, or every working copy when
none is given. The credential cache is never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		roots := []string{cfg.Paths.WorkspaceRoot}
		if cleanOutputs {
			roots = append(roots, cfg.Paths.OutputRoot)
		}

		targets, err := cleanTargets(roots, args)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			fmt.Fprintln(out, i18n.T("clean.nothing"))
			return nil
		}

		var total int64
		for _, path := range targets {
			size, _ := utils.DirSize(path)
			total += size
			if cleanDryRun {
				fmt.Fprintf(out, "  would remove %s (%s)\n", path, humanize.Bytes(uint64(size)))
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				return errors.NewFileSystemError(err, "CLEAN_FAILED", fmt.Sprintf("failed to remove %s", path))
			}
			fmt.Fprintf(out, "  removed %s (%s)\n", path, humanize.Bytes(uint64(size)))
		}
		fmt.Fprintln(out, i18n.T("clean.total", map[string]interface{}{
			"count": len(targets), "size": humanize.Bytes(uint64(total)),
		}))
		return nil
	},
}

// cleanTargets lists the folders to remove under each root, sorted
func cleanTargets(roots, bundleIDs []string) ([]string, error) {
	var targets []string
	for _, root := range roots {
		if len(bundleIDs) > 0 {
			for _, id := range bundleIDs {
				if err := models.ValidateBundleID(id); err != nil {
					return nil, err
				}
				path := filepath.Join(root, models.ConvertToFolderName(id))
				if _, err := os.Stat(path); err == nil {
					targets = append(targets, path)
				}
			}
			continue
		}

		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.NewFileSystemError(err, "CLEAN_LIST_FAILED", fmt.Sprintf("failed to list %s", root))
		}
		for _, e := range entries {
			if e.IsDir() {
				targets = append(targets, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(targets)
	return targets, nil
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "only list what would be removed")
	cleanCmd.Flags().BoolVar(&cleanOutputs, "outputs", false, "also remove collected artifacts")
	rootCmd.AddCommand(cleanCmd)
}
