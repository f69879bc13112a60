package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "repowatch",
		Short: "A GitHub commit monitor with chat notifications",
		Long: `Repowatch periodically polls GitHub repositories for new commits on
tracked branches and broadcasts a notification to subscribed chat groups
whenever new commits appear, optionally followed by a short generated
remark about the commit.`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.repowatch/repowatch.toml or ./repowatch.toml)")
}
