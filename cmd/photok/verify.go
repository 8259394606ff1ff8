package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sr093906/photok/internal/models"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [<id>...]",
	Short: "Check entry integrity",
	Long: `Verify decrypts entries to completion, discarding the plaintext,
and reports any whose authentication tag does not match.

A failed entry is corrupted or tampered with; re-running verify will
not fix it. With no arguments every entry is checked.`,
	Example: `  photok verify
  photok verify 6a1f... 9c42...`,
	RunE: runVerify,
}

var verifyPassphrase string

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyPassphrase, "passphrase", "p", "",
		"Vault passphrase (will prompt if not provided)")
}

type verifyResult struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := unlockVault(verifyPassphrase); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ids := args
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		entries, err := vaultClient.Entries.List()
		if err != nil {
			return err
		}
		for _, entry := range entries {
			ids = append(ids, entry.ID)
			names[entry.ID] = entry.Name
		}
	}

	results := make([]verifyResult, 0, len(ids))
	failed := 0

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := vaultClient.Entries.Verify(ctx, id)
		if err == nil {
			results = append(results, verifyResult{ID: id, Name: names[id], OK: true})
			if !jsonOutput {
				printSuccess("%s ok", id)
			}
			continue
		}

		failed++
		results = append(results, verifyResult{ID: id, Name: names[id], Error: err.Error()})
		if !jsonOutput {
			if errors.Is(err, models.ErrAuthenticationFailed) {
				printError("%s FAILED: authentication tag mismatch", id)
			} else {
				printError("%s FAILED: %v", id, err)
			}
		}
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": failed == 0,
			"checked": len(ids),
			"failed":  failed,
			"entries": results,
		})
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d entries failed verification", failed, len(ids))
	}
	if !jsonOutput && len(ids) == 0 {
		printInfo("Vault is empty.")
	}
	return nil
}
