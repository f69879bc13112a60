package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/olekukonko/tablewriter" // Using a table library for nice output
	"github.com/spf13/cobra"

	"github.com/tannerhall/repowatch/internal/config"
	"github.com/tannerhall/repowatch/internal/logging"
)

// targetsCmd represents the targets command
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List configured repositories and subscribers",
	Long: `Loads the current configuration and prints the repositories that would
be monitored and the chat groups that would receive notifications.
Entries missing required fields are flagged as invalid; the monitor
skips those at runtime.

This command is primarily for visibility and debugging configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		listTargets(cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func listTargets(configPath string) {
	cfg, err := config.NewProvider(configPath, logging.NewNop()).Snapshot()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	fmt.Println("\n--- Monitored Repositories ---")
	if len(cfg.Monitor.Repositories) == 0 {
		fmt.Println("No repositories configured (monitor.repositories is empty).")
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Owner", "Repo", "Branch", "Status"})
		table.SetBorder(false)

		for _, target := range cfg.Monitor.Repositories {
			status := "ok"
			if err := target.Validate(); err != nil {
				status = "invalid (missing owner or repo)"
			}
			table.Append([]string{target.Owner, target.Repo, target.Branch, status})
		}
		table.Render()
	}

	fmt.Println("\n--- Notification Subscribers ---")
	if len(cfg.Monitor.Subscribers) == 0 {
		fmt.Println("No subscribers configured (monitor.subscribers is empty).")
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Group ID", "Platform", "Status"})
		table.SetBorder(false)

		for _, sub := range cfg.Monitor.Subscribers {
			status := "ok"
			if err := sub.Validate(); err != nil {
				status = "invalid (missing group_id)"
			}
			table.Append([]string{sub.GroupID, sub.Platform, status})
		}
		table.Render()
	}

	fmt.Printf("\nPoll interval: %s  Commentary: %v  History sink: %s\n",
		cfg.PollInterval(), cfg.Global.EnableCommentary, cfg.History.Sink)
}
