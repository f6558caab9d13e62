package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wirehttp/internal/version"
)

var routesFormat string

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the route table",
	Long: `List the routes serve would register, in match order.

Examples:
  wirehttp routes
  wirehttp routes --format toml > routes.snapshot.toml`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVar(&routesFormat, "format", "human", "Output format (human, json, toml, yaml)")
	routesCmd.Flags().StringVar(&serveManifest, "manifest", "", "TOML manifest of canned routes")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(routesFormat, FormatHuman, FormatJSON, FormatTOML, FormatYAML)
	if err != nil {
		return err
	}

	result, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := result.Config
	applyServeFlags(cmd, cfg)

	r, err := buildRouter(cfg)
	if err != nil {
		return err
	}

	out, err := FormatResponse(&RoutesResponse{
		Version: version.Version,
		Routes:  r.Routes(),
	}, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
