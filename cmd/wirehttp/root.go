package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wirehttp/internal/config"
	"wirehttp/internal/logging"
	"wirehttp/internal/version"
)

var (
	// rootFlag is the project root holding .wirehttp/
	rootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "wirehttp",
	Short: "wirehttp - a minimal HTTP/1.1 server",
	Long: `wirehttp serves one HTTP/1.1 request per TCP connection from a fixed route
table: echo, user-agent, file read and write, plus canned routes loaded
from a TOML manifest.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

func init() {
	rootCmd.SetVersionTemplate("wirehttp version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Project root; config is read from <root>/.wirehttp/config.json")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the config under --root and validates it
func loadConfig() (*config.LoadResult, error) {
	result, err := config.LoadConfigWithDetails(rootFlag)
	if err != nil {
		return nil, err
	}
	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// resolvePath anchors a relative path at --root
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootFlag, p)
}

// newLogger builds the logger described by cfg. The closer is nil unless
// logging goes to a file.
func newLogger(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}

	out, closer, err := logging.OpenOutput(resolvePath(cfg.Logging.File), cfg.Logging.MaxSize, cfg.Logging.MaxBackups)
	if err != nil {
		return nil, nil, err
	}

	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  level,
		Output: out,
	}), closer, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
