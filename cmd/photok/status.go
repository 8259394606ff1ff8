package main

import (
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	status := vaultClient.Session.Status()

	count := 0
	if status.Initialized {
		var err error
		count, err = vaultClient.Entries.Count()
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"vault":        cfg.Vault.Path,
			"initialized":  status.Initialized,
			"unlocked":     status.Unlocked,
			"kdf_version":  status.KDFVersion,
			"created_at":   status.CreatedAt,
			"entries":      count,
			"lock_timeout": cfg.Security.LockTimeout.String(),
			"index_type":   cfg.Storage.IndexType,
		})
		return nil
	}

	printInfo("Vault:        %s", cfg.Vault.Path)
	if !status.Initialized {
		printWarning("Not initialized. Run 'photok init' first.")
		return nil
	}

	printInfo("Entries:      %d", count)
	printInfo("Index:        %s", cfg.Storage.IndexType)
	printInfo("KDF version:  %d", status.KDFVersion)
	printInfo("Created:      %s", status.CreatedAt.Local().Format(time.RFC1123))
	printInfo("Lock timeout: %s", cfg.Security.LockTimeout)
	return nil
}
