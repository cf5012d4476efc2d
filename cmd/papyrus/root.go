package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/cli"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/kinds/structure"
)

var rootCmd = &cobra.Command{
	Use:   "papyrus",
	Short: "Papyrus keeps diagrams in sync with their UML models",
	Long: `Papyrus renders diagrams from declarative descriptions over a UML model and turns
diagram edits (creation, deletion, reconnection, direct edit, drop) into model changes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("kind", structure.ID, "Diagram kind: "+strings.Join(cli.KindNames(), ", "))
	flags.String("description", "", "YAML description replacing the built-in one of the kind")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
}

func loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

func engineOptions(cmd *cobra.Command) cli.Options {
	kind, _ := cmd.Flags().GetString("kind")
	desc, _ := cmd.Flags().GetString("description")
	opts := cli.Options{Kind: kind, DescriptionPath: desc}
	if f := cmd.Flags().Lookup("redis"); f != nil {
		opts.RedisAddr = f.Value.String()
	}
	if f := cmd.Flags().Lookup("sqlite"); f != nil {
		opts.SQLitePath = f.Value.String()
	}
	if f := cmd.Flags().Lookup("encryption-key"); f != nil {
		opts.EncryptionKey = f.Value.String()
	}
	return opts
}
