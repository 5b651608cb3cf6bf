// Package cli implements the utcp CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/utcp/internal/codec"
	"github.com/rcliao/utcp/internal/config"
	"github.com/rcliao/utcp/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	logLevel   string

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "utcp",
	Short: "Reversible text compression for LLM context windows",
	Long: "utcp wraps documents in self-describing envelopes: dictionaries, references and\n" +
		"indentation shorthand that an LLM can expand, and that utcp decodes back byte for byte.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(config.Path(configPath))
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if _, err := config.ParseLevel(cfg.LogLevel); err != nil {
			return err
		}
		if formatFlag != "json" && formatFlag != "text" {
			return fmt.Errorf("unknown format %q (use json or text)", formatFlag)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Catalog path (default: $UTCP_DB, config db, or ~/.utcp/catalog.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $UTCP_CONFIG or ~/.utcp/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func getConfig() *config.Config {
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg
}

func getDBPath() string {
	return getConfig().DBPath(dbPath)
}

func openStore() (*store.SQLiteStore, error) {
	c, err := store.ParseCompression(getConfig().Catalog.Compression)
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(getDBPath(), c)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: getConfig().SlogLevel()}))
}

func jsonOutput() bool {
	return formatFlag == "json"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	if category := codec.Classify(err); category != "internal" {
		fmt.Fprintf(os.Stderr, "error: %s (%s): %v\n", msg, category, err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	}
	os.Exit(1)
}
