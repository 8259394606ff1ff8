package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert the entry index to another backend",
	Long: `Migrate copies every entry record into a fresh index of the target
backend, written next to the current index file.

The current index stays in use until storage.index_type is changed in
the config. Re-running a migration is safe; records already in the
target are skipped. Ciphertext blobs are not touched.`,
	Example: `  photok migrate --to json
  photok migrate --to sqlite`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var migrateTo string

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrateTo, "to", "",
		"Target index backend (sqlite or json)")
	_ = migrateCmd.MarkFlagRequired("to")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	migrated, targetPath, err := vaultClient.MigrateIndex(migrateTo)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":  true,
			"migrated": migrated,
			"index":    targetPath,
		})
		return nil
	}

	printSuccess("Migrated %d entries to %s", migrated, targetPath)
	printInfo("Set storage.index_type to %q to start using it.", migrateTo)
	return nil
}
