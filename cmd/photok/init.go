package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault",
	Long: `Init creates the vault key file.

A random master key is generated and wrapped with a key derived from
the passphrase. The passphrase itself is never stored; without it the
vault contents are unrecoverable.`,
	Example: `  photok init
  photok init --vault ~/private/photos`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initPassphrase string

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initPassphrase, "passphrase", "p", "",
		"Vault passphrase (will prompt if not provided)")
}

func runInit(cmd *cobra.Command, args []string) error {
	passphrase := initPassphrase
	if passphrase == "" {
		first, err := promptPassphrase("New passphrase: ")
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		second, err := promptPassphrase("Repeat passphrase: ")
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		if first != second {
			return fmt.Errorf("passphrases do not match")
		}
		passphrase = first
	}

	if err := vaultClient.Session.Initialize(passphrase); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"vault":   cfg.Vault.Path,
		})
		return nil
	}

	printSuccess("Vault initialized at %s", cfg.Vault.Path)
	printInfo("Keep the passphrase safe; entries cannot be decrypted without it.")
	return nil
}
