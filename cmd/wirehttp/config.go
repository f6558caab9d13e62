package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"wirehttp/internal/config"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wirehttp configuration",
	Long:  "View and manage wirehttp configuration stored in .wirehttp/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after WIREHTTP_* environment overrides.

Examples:
  wirehttp config show
  wirehttp config show --format json`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(configFormat, FormatHuman, FormatJSON)
	if err != nil {
		return err
	}

	result, err := config.LoadConfigWithDetails(rootFlag)
	if err != nil {
		return err
	}

	resp, err := newConfigShowResponse(result)
	if err != nil {
		return err
	}
	out, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func newConfigShowResponse(result *config.LoadResult) (*ConfigShowResponse, error) {
	data, err := json.Marshal(result.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		Config:       m,
	}, nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.Path(rootFlag)
	if fileExists(path) {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.DefaultConfig().Save(rootFlag); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
