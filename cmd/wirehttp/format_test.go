package main

import (
	"strings"
	"testing"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"wirehttp/internal/router"
	"wirehttp/internal/storage"
)

func sampleRoutes() *RoutesResponse {
	return &RoutesResponse{
		Version: "0.3.0",
		Routes: []router.RouteInfo{
			{ID: "GET/echo/{text}", Method: "GET", Pattern: "/echo/{text}", Wildcard: true},
			{ID: "GET/", Method: "GET", Pattern: "/"},
		},
	}
}

func TestFormatResponse_JSON(t *testing.T) {
	result, err := FormatResponse(sampleRoutes(), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"pattern": "/echo/{text}"`) {
		t.Errorf("JSON output missing pattern:\n%s", result)
	}
	if !strings.Contains(result, `"wildcard": true`) {
		t.Errorf("JSON output missing wildcard flag:\n%s", result)
	}
}

func TestFormatResponse_TOML(t *testing.T) {
	result, err := FormatResponse(sampleRoutes(), FormatTOML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "[[route]]") {
		t.Errorf("TOML output should use [[route]] tables:\n%s", result)
	}

	var decoded RoutesResponse
	if err := gotoml.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("TOML output does not decode: %v", err)
	}
	if len(decoded.Routes) != 2 || decoded.Routes[0].Pattern != "/echo/{text}" {
		t.Errorf("decoded routes = %+v", decoded.Routes)
	}
}

func TestFormatResponse_YAML(t *testing.T) {
	result, err := FormatResponse(sampleRoutes(), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded RoutesResponse
	if err := yaml.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("YAML output does not decode: %v", err)
	}
	if decoded.Version != "0.3.0" || len(decoded.Routes) != 2 || !decoded.Routes[0].Wildcard {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(sampleRoutes(), "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := parseFormat("JSON", FormatHuman, FormatJSON); err != nil || f != FormatJSON {
		t.Errorf("parseFormat(JSON) = %q, %v", f, err)
	}
	if _, err := parseFormat("toml", FormatHuman, FormatJSON); err == nil {
		t.Error("toml should be rejected when not allowed")
	}
}

func TestFormatRoutesHuman(t *testing.T) {
	result, err := FormatResponse(sampleRoutes(), FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"2 routes", "/echo/{text}", "wildcard", "static"} {
		if !strings.Contains(result, want) {
			t.Errorf("human output missing %q:\n%s", want, result)
		}
	}
	// Listing keeps registration order.
	if strings.Index(result, "/echo/{text}") > strings.Index(result, "static") {
		t.Errorf("routes out of order:\n%s", result)
	}
}

func TestFormatJournalHuman(t *testing.T) {
	resp := &JournalResponse{
		Path:  ".wirehttp/journal.db",
		Total: 3,
		Summary: []storage.Summary{
			{Method: "GET", Target: "/echo/a", Status: 200, Count: 2, AvgDuration: 1.5, LastSeen: time.Now()},
			{Method: "GET", Target: "/nope", Status: 404, Count: 1, LastSeen: time.Now()},
		},
	}

	result, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"3 requests", "/echo/a", "404", "1.50"} {
		if !strings.Contains(result, want) {
			t.Errorf("human output missing %q:\n%s", want, result)
		}
	}

	empty, _ := FormatResponse(&JournalResponse{Path: "j.db"}, FormatHuman)
	if strings.Contains(empty, "COUNT") {
		t.Errorf("empty journal should not print a table:\n%s", empty)
	}
}

func TestFormatConfigHuman(t *testing.T) {
	resp := &ConfigShowResponse{
		UsedDefaults: true,
		Config: map[string]interface{}{
			"version": 1,
			"server":  map[string]interface{}{"port": 4221, "host": "127.0.0.1"},
		},
	}

	result, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "server.port = 4221") || !strings.Contains(result, "defaults") {
		t.Errorf("human config output:\n%s", result)
	}
	if strings.Index(result, "server.host") > strings.Index(result, "server.port") {
		t.Errorf("keys should be sorted:\n%s", result)
	}
}
