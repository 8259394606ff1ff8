package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Decrypt an entry out of the vault",
	Long: `Export decrypts an entry and writes the plaintext to a file or to
standard output.

With --offset the stream starts that many plaintext bytes in. The
skipped bytes are still decrypted and authenticated; the cost grows
with the offset.`,
	Example: `  photok export 6a1f... -o holiday.jpg
  photok export 6a1f... --offset 1048576 -o tail.mp4
  photok export 6a1f... > holiday.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportPassphrase string
	exportOutput     string
	exportOffset     int64
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportPassphrase, "passphrase", "p", "",
		"Vault passphrase (will prompt if not provided)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"Destination file (default: stdout)")
	exportCmd.Flags().Int64Var(&exportOffset, "offset", 0,
		"Start offset in plaintext bytes")
}

func runExport(cmd *cobra.Command, args []string) error {
	if jsonOutput && exportOutput == "" {
		return fmt.Errorf("--json requires --output; plaintext and JSON cannot share stdout")
	}

	if err := unlockVault(exportPassphrase); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var dst io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.OpenFile(exportOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		dst = f
	}

	n, err := vaultClient.Entries.Export(ctx, args[0], dst, exportOffset)
	if err != nil {
		if exportOutput != "" {
			_ = os.Remove(exportOutput)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"id":      args[0],
			"output":  exportOutput,
			"offset":  exportOffset,
			"bytes":   n,
		})
		return nil
	}

	if exportOutput != "" {
		printSuccess("Exported %s (%s)", exportOutput, formatBytes(n))
	}
	return nil
}
