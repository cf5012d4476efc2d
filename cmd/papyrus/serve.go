package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/cli"
	httpAdapter "github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/http"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the engine behind a JSON API over HTTP. Sessions are kept in memory unless
--redis or --sqlite is given; with Redis, replicas share sessions and serialize edits
through a distributed lock. With --watch, the --description file is reloaded whenever it
changes; a description that fails validation is reported and the previous one kept.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		logger, err := loggerFor(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		opts := engineOptions(cmd)
		opts.Hooks = metrics.Hooks()
		watch, _ := cmd.Flags().GetBool("watch")
		if watch && opts.DescriptionPath == "" {
			return errors.New("--watch needs a --description file")
		}
		store, err := cli.OpenStore(opts)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, store.Close()) }()
		editor, err := cli.NewReloader(cli.FromOptions(opts, store, logger))
		if err != nil {
			return err
		}
		engine := editor.Engine()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		if watch {
			go func() {
				if err := cli.WatchDescription(ctx, opts.DescriptionPath, editor, logger); err != nil {
					logger.Error("Description watcher stopped", "err", err)
				}
			}()
		}

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(editor, engine.Kind().Metamodel,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithMetrics(reg),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Papyrus Server on %s (kind %s)\n", srv.Addr, engine.Kind().Name)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", ctx.Signal())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Papyrus Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared sessions (host:port)")
	serveCmd.Flags().String("sqlite", "", "SQLite file for persistent sessions")
	serveCmd.Flags().String("encryption-key", "", "Hex encoded AES-256 key encrypting stored sessions")
	serveCmd.Flags().Bool("watch", false, "Reload the --description file when it changes")
}
