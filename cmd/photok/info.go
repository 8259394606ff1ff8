package main

import (
	"time"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show one entry's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	entry, err := vaultClient.Entries.Get(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(entry)
		return nil
	}

	printInfo("ID:      %s", entry.ID)
	printInfo("Name:    %s", entry.Name)
	printInfo("Kind:    %s", entry.Kind)
	printInfo("Size:    %s (%d bytes)", formatBytes(entry.PlaintextSize), entry.PlaintextSize)
	printInfo("Created: %s", entry.CreatedAt.Local().Format(time.RFC1123))
	return nil
}
