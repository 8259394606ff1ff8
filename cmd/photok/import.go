package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sr093906/photok/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Encrypt files into the vault",
	Long: `Import encrypts each file into a new vault entry.

The media kind (photo or video) is detected from the file content.
Source files are left untouched unless --remove is given.`,
	Example: `  photok import holiday.jpg
  photok import --remove clip.mp4 photo1.jpg photo2.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var (
	importPassphrase string
	importRemove     bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importPassphrase, "passphrase", "p", "",
		"Vault passphrase (will prompt if not provided)")
	importCmd.Flags().BoolVar(&importRemove, "remove", false,
		"Remove source files after a successful import")
}

type importResult struct {
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := unlockVault(importPassphrase); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results := make([]importResult, 0, len(args))
	failed := 0

	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := importFile(ctx, path)
		if err != nil {
			failed++
			results = append(results, importResult{Source: path, Error: err.Error()})
			if !jsonOutput {
				printWarning("%s: %v", path, err)
			}
			continue
		}

		results = append(results, importResult{
			Source: path,
			ID:     entry.ID,
			Kind:   string(entry.Kind),
			Size:   entry.PlaintextSize,
		})
		if !jsonOutput {
			printSuccess("Imported %s as %s (%s, %s)",
				filepath.Base(path), entry.ID, entry.Kind, formatBytes(entry.PlaintextSize))
		}

		if importRemove {
			if err := os.Remove(path); err != nil {
				printWarning("Source %s not removed: %v", path, err)
			}
		}
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":  failed == 0,
			"imported": len(args) - failed,
			"failed":   failed,
			"entries":  results,
		})
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}

func importFile(ctx context.Context, path string) (*models.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return vaultClient.Entries.Import(ctx, f, filepath.Base(path))
}
