package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"wirehttp/internal/config"
)

func withRoot(t *testing.T, root string) {
	t.Helper()
	prev := rootFlag
	rootFlag = root
	t.Cleanup(func() { rootFlag = prev })
}

func TestApplyServeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&serveHost, "host", "", "")
	cmd.Flags().IntVar(&servePort, "port", 0, "")
	cmd.Flags().StringVar(&serveDirectory, "directory", "", "")
	cmd.Flags().BoolVar(&serveJournal, "journal", false, "")

	if err := cmd.Flags().Set("port", "9000"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("journal", "true"); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Host = "0.0.0.0"
	applyServeFlags(cmd, cfg)

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal should be enabled by the flag")
	}
	// Unset flags leave config values alone.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want config value", cfg.Server.Host)
	}
	if cfg.Server.Directory != "." {
		t.Errorf("Directory = %q, want default", cfg.Server.Directory)
	}
}

func TestResolvePath(t *testing.T) {
	withRoot(t, "/srv/project")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs/file", "/abs/file"},
		{"routes.toml", filepath.Join("/srv/project", "routes.toml")},
		{".wirehttp/journal.db", filepath.Join("/srv/project", ".wirehttp", "journal.db")},
	}
	for _, tt := range tests {
		if got := resolvePath(tt.in); got != tt.want {
			t.Errorf("resolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildRouter(t *testing.T) {
	root := t.TempDir()
	withRoot(t, root)

	manifest := `
[[route]]
path = "/health"
body = "ok"
`
	if err := os.WriteFile(filepath.Join(root, "routes.toml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Routes.Manifest = "routes.toml"

	r, err := buildRouter(cfg)
	if err != nil {
		t.Fatalf("buildRouter() error = %v", err)
	}
	routes := r.Routes()
	if len(routes) != 6 {
		t.Fatalf("got %d routes, want 6", len(routes))
	}
	if routes[0].Pattern != "/echo/{text}" || routes[5].Pattern != "/health" {
		t.Errorf("route order = %+v", routes)
	}
	if r.Context().Directory() != root {
		t.Errorf("Directory() = %q, want %q", r.Context().Directory(), root)
	}
}

func TestBuildRouter_BadManifest(t *testing.T) {
	root := t.TempDir()
	withRoot(t, root)
	if err := os.WriteFile(filepath.Join(root, "routes.toml"), []byte("[[route]]\npath = \"no-slash\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Routes.Manifest = "routes.toml"
	if _, err := buildRouter(cfg); err == nil {
		t.Error("buildRouter() should reject an invalid manifest")
	}
}
