package cmd

import (
	"fmt"
	"os"

	"github.com/huanfeng/apprebrand/internal/config"
	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented rebrand.yaml",
	Long:  `Write a configuration template with every setting and its default value.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "rebrand.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return errors.NewValidationError("CONFIG_EXISTS",
				fmt.Sprintf("%s already exists", path)).
				WithSuggestion("Pass --force to overwrite it")
		}
		if err := config.SaveTemplate(path); err != nil {
			return errors.NewFileSystemError(err, "CONFIG_WRITE_FAILED", "failed to write config template")
		}

		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("init.written", map[string]interface{}{"path": path}))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}
