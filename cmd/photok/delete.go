package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an entry from the vault",
	Long: `Delete removes an entry's ciphertext and its index record.

The ciphertext goes first; if that fails the entry stays fully
usable. Deleting needs no passphrase, it removes data without reading
it.`,
	Example: `  photok delete 6a1f...
  photok delete --force 6a1f...`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false,
		"Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	entry, err := vaultClient.Entries.Get(id)
	if err != nil {
		return err
	}

	if !deleteForce && !jsonOutput {
		fmt.Fprintf(os.Stderr, "Delete %q (%s, %s)? [y/N]: ",
			entry.Name, entry.Kind, formatBytes(entry.PlaintextSize))

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
		default:
			printInfo("Aborted.")
			return nil
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := vaultClient.Entries.Delete(ctx, id); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"id":      id,
		})
		return nil
	}

	printSuccess("Deleted %s (%s)", entry.Name, id)
	return nil
}
