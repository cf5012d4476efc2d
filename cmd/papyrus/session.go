package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	papyrus "github.com/PapyGame/PapyrusWebBackend-sub011"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/cli"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long: `List, inspect, and remove the sessions kept in a Redis or SQLite store.
Stored sessions are decoded with the metamodel of --kind.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		engine, closeStore, err := sessionEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeStore()) }()

		ids, err := engine.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No stored sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Sessions:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

// inspection is the printed form of a session.
type inspection struct {
	Model   *model.Model    `json:"model"`
	Diagram *domain.Diagram `json:"diagram"`
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the model and diagram of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		engine, closeStore, err := sessionEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeStore()) }()

		s, err := engine.Session(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(inspection{Model: s.Model, Diagram: s.Diagram}, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		engine, closeStore, err := sessionEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeStore()) }()

		var errs []error
		for _, id := range args {
			if err := engine.Close(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
	flags := sessionCmd.PersistentFlags()
	flags.String("redis", "", "Redis address of the session store (host:port)")
	flags.String("sqlite", "", "SQLite file of the session store")
	flags.String("encryption-key", "", "Hex encoded AES-256 key the sessions were stored with")
}

// sessionEngine opens the configured store behind an engine of --kind.
func sessionEngine(cmd *cobra.Command) (*papyrus.Engine, cli.Closer, error) {
	logger, err := loggerFor(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts := engineOptions(cmd)
	if !opts.Persistent() {
		return nil, nil, errors.New("session commands need --redis or --sqlite")
	}
	return cli.CreateEngine(opts, logger)
}
