package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wirehttp/internal/app"
	"wirehttp/internal/config"
	"wirehttp/internal/handlers"
	"wirehttp/internal/manifest"
	"wirehttp/internal/router"
	"wirehttp/internal/server"
	"wirehttp/internal/storage"
)

var (
	serveHost      string
	servePort      int
	serveDirectory string
	serveManifest  string
	serveJournal   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start wirehttp and serve until interrupted.

Flags override WIREHTTP_* environment variables, which override
.wirehttp/config.json.

Examples:
  wirehttp serve --directory /tmp/files
  wirehttp serve --port 8080 --manifest routes.toml --journal`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveDirectory, "directory", "", "Directory served under /file/")
	serveCmd.Flags().StringVar(&serveManifest, "manifest", "", "TOML manifest of canned routes")
	serveCmd.Flags().BoolVar(&serveJournal, "journal", false, "Record served requests in the SQLite journal")
}

// applyServeFlags copies explicitly set flags over cfg
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("directory") {
		cfg.Server.Directory = serveDirectory
	}
	if flags.Changed("manifest") {
		cfg.Routes.Manifest = serveManifest
	}
	if flags.Changed("journal") {
		cfg.Journal.Enabled = serveJournal
	}
}

// buildRouter assembles the route table cfg describes
func buildRouter(cfg *config.Config) (*router.Router, error) {
	var m *manifest.File
	if cfg.Routes.Manifest != "" {
		var err error
		m, err = manifest.Load(resolvePath(cfg.Routes.Manifest))
		if err != nil {
			return nil, err
		}
	}

	r := router.New(handlers.NotFound, app.NewContext(resolvePath(cfg.Server.Directory)))
	if err := handlers.Register(r, m); err != nil {
		return nil, err
	}
	return r, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	result, err := config.LoadConfigWithDetails(rootFlag)
	if err != nil {
		return err
	}
	cfg := result.Config
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	if result.UsedDefaults {
		logger.Debug("No config file, using defaults", nil)
	} else {
		logger.Debug("Loaded config", map[string]interface{}{"path": result.ConfigPath})
	}

	r, err := buildRouter(cfg)
	if err != nil {
		return err
	}

	var journal server.Journal
	if cfg.Journal.Enabled {
		db, err := storage.Open(resolvePath(cfg.Journal.Path), logger)
		if err != nil {
			return err
		}
		defer db.Close()
		journal = db
	}

	srv := server.New(cfg, r, logger, journal)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-srv.Ready():
		fmt.Fprintf(cmd.OutOrStdout(), "wirehttp listening on %s (serving %s)\n", srv.Addr(), cfg.Server.Directory)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
	case err := <-serverErr:
		return err
	}

	select {
	case err := <-serverErr:
		logger.Error("Server error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
		<-serverErr

		stats := r.Context().Stats()
		logger.Info("Server stopped gracefully", map[string]interface{}{
			"filesServed": stats.FilesServed,
			"filesStored": stats.FilesStored,
			"bytesServed": stats.BytesServed,
			"bytesStored": stats.BytesStored,
		})
	}
	return nil
}
