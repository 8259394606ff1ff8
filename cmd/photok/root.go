package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sr093906/photok/internal/client"
	"github.com/sr093906/photok/internal/config"
	"github.com/sr093906/photok/internal/events"
)

var rootCmd = &cobra.Command{
	Use:   "photok",
	Short: "Encrypted photo and video vault",
	Long: `Photok stores photos and videos as authenticated encrypted blobs.

Entries are imported into the vault and read back through decrypting
streams. A stream can start at any plaintext offset; the skipped bytes
still pass through the integrity check, so playback from the middle of
a video is as trustworthy as reading from the start.`,
	SilenceUsage:      true,
	PersistentPreRunE: initClient,
}

var (
	cfgFile    string
	vaultPath  string
	verbose    bool
	jsonOutput bool

	cfg         *config.Config
	logger      *events.Logger
	vaultClient *client.Client
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default: ./photok.json, ~/.config/photok/photok.json)")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "",
		"Vault directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
}

// initClient loads configuration and wires the vault client before
// any command runs.
func initClient(cmd *cobra.Command, args []string) error {
	loaded, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if vaultPath != "" {
		cfg.Vault.Path = vaultPath
		cfg.Vault.KeyFile = ""
		cfg.Storage.DataDir = filepath.Join(vaultPath, "blobs")
		if cfg.Storage.IndexType == "json" {
			cfg.Storage.IndexPath = filepath.Join(vaultPath, "index.json")
		} else {
			cfg.Storage.IndexPath = filepath.Join(vaultPath, "index.db")
		}
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	vaultClient, err = client.New(cfg, logger)
	if err != nil {
		return err
	}
	return nil
}

// shutdown drains the deferred-close pool and locks the session. It
// runs after every command, success or not.
func shutdown() {
	if vaultClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := vaultClient.Close(ctx); err != nil && logger != nil {
		logger.WithError(err).Warn("Shutdown did not complete cleanly")
	}
}

// unlockVault opens the session, prompting for the passphrase when it
// was not passed as a flag.
func unlockVault(passphrase string) error {
	if passphrase == "" {
		var err error
		passphrase, err = promptPassphrase("Passphrase: ")
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
	}
	return vaultClient.Session.Unlock(passphrase)
}

func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read without echo
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}
	return string(passphrase), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			printWarning("Interrupted, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// Output helpers

func printSuccess(format string, args ...interface{}) {
	color.Green("✓ "+format, args...)
}

func printError(format string, args ...interface{}) {
	color.Red("✗ "+format, args...)
}

func printWarning(format string, args ...interface{}) {
	color.Yellow("! "+format, args...)
}

func printInfo(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for u := n / unit; u >= unit; u /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
