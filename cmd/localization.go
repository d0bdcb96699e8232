package cmd

import (
	"github.com/huanfeng/apprebrand/internal/i18n"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// applyCommandLocalization updates command and flag descriptions after i18n is initialized.
func applyCommandLocalization() {
	rootCmd.Short = i18n.T("cmd.root.short")
	rootCmd.Long = i18n.T("cmd.root.long")
	localizeFlags(rootCmd.PersistentFlags())

	for _, c := range []*cobra.Command{rebrandCmd, doctorCmd, initCmd, cleanCmd, versionCmd} {
		c.Short = i18n.T("cmd." + c.Name() + ".short")
		c.Long = i18n.T("cmd." + c.Name() + ".long")
		localizeFlags(c.Flags())
	}
}

// localizeFlags looks up flags.<name>; flags without a message keep their usage
func localizeFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		id := "flags." + f.Name
		if msg := i18n.T(id); msg != id {
			f.Usage = msg
		}
	})
}
