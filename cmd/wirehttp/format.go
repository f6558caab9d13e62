package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"wirehttp/internal/router"
	"wirehttp/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatTOML  OutputFormat = "toml"
	FormatYAML  OutputFormat = "yaml"
)

// RoutesResponse is the output of `wirehttp routes`
type RoutesResponse struct {
	Version string             `json:"version" yaml:"version" toml:"version"`
	Routes  []router.RouteInfo `json:"routes" yaml:"routes" toml:"route"`
}

// JournalResponse is the output of `wirehttp journal`
type JournalResponse struct {
	Path    string            `json:"path"`
	Total   int64             `json:"total"`
	Summary []storage.Summary `json:"summary,omitempty"`
	Recent  []storage.Entry   `json:"recent,omitempty"`
}

// ConfigShowResponse is the output of `wirehttp config show`
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	Config       map[string]interface{} `json:"config"`
}

// parseFormat accepts s if it is one of allowed
func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	names := make([]string, 0, len(allowed))
	for _, f := range allowed {
		if OutputFormat(strings.ToLower(s)) == f {
			return f, nil
		}
		names = append(names, string(f))
	}
	return "", fmt.Errorf("unsupported format: %s (want %s)", s, strings.Join(names, ", "))
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatTOML:
		data, err := gotoml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal TOML: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(data), nil
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *RoutesResponse:
		return formatRoutesHuman(v), nil
	case *JournalResponse:
		return formatJournalHuman(v), nil
	case *ConfigShowResponse:
		return formatConfigHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatRoutesHuman(resp *RoutesResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "wirehttp v%s: %d routes, first match wins\n\n", resp.Version, len(resp.Routes))

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMETHOD\tPATTERN\tKIND")
	for i, r := range resp.Routes {
		kind := "static"
		if r.Wildcard {
			kind = "wildcard"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Method, r.Pattern, kind)
	}
	tw.Flush()
	return b.String()
}

func formatJournalHuman(resp *JournalResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Journal: %s (%d requests)\n", resp.Path, resp.Total)
	if resp.Total == 0 {
		return b.String()
	}

	if len(resp.Summary) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COUNT\tSTATUS\tMETHOD\tTARGET\tAVG MS\tLAST SEEN")
		for _, s := range resp.Summary {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.2f\t%s\n",
				s.Count, s.Status, s.Method, s.Target, s.AvgDuration, s.LastSeen.Local().Format("2006-01-02 15:04:05"))
		}
		tw.Flush()
	}

	if len(resp.Recent) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSTATUS\tMETHOD\tTARGET\tDURATION\tREMOTE")
		for _, e := range resp.Recent {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
				e.RecordedAt.Local().Format("2006-01-02 15:04:05"), e.Status, e.Method, e.Target, e.Duration, e.Remote)
		}
		tw.Flush()
	}
	return b.String()
}

func formatConfigHuman(resp *ConfigShowResponse) string {
	var b strings.Builder
	b.WriteString("wirehttp configuration\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
	if resp.UsedDefaults {
		b.WriteString("Source: defaults (no config file)\n\n")
	} else {
		fmt.Fprintf(&b, "Source: %s\n\n", resp.ConfigPath)
	}

	flat := make(map[string]interface{})
	flatten("", resp.Config, flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %v\n", k, flat[k])
	}
	return b.String()
}

// flatten turns nested maps into dotted keys
func flatten(prefix string, m map[string]interface{}, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}
