// Package manifest loads canned routes from a TOML file.
//
//	version = 1
//
//	[[route]]
//	method = "GET"
//	path = "/health"
//	status = 200
//	content_type = "text/plain"
//	body = "ok"
package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"wirehttp/internal/wire"
)

// CurrentVersion is the manifest schema version
const CurrentVersion = 1

// File is the root of a manifest
type File struct {
	Version int     `toml:"version"`
	Routes  []Route `toml:"route"`
}

// Route is one canned response bound to a method and path pattern
type Route struct {
	Method      string            `toml:"method"`
	Path        string            `toml:"path"`
	Status      int               `toml:"status"`
	ContentType string            `toml:"content_type"`
	Body        string            `toml:"body"`
	Headers     map[string]string `toml:"headers"`
}

// Load reads and validates a manifest file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	f, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates manifest text, filling in defaults
func Parse(data string) (*File, error) {
	f := &File{Version: CurrentVersion}
	md, err := toml.Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest key %q", undecoded[0].String())
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks every route and applies defaults in place
func (f *File) Validate() error {
	if f.Version != CurrentVersion {
		return fmt.Errorf("unsupported manifest version %d", f.Version)
	}

	for i := range f.Routes {
		r := &f.Routes[i]
		if r.Method == "" {
			r.Method = wire.MethodGet.String()
		}
		if _, err := wire.ParseMethod(r.Method); err != nil {
			return fmt.Errorf("route[%d]: %w", i, err)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route[%d]: path %q must start with /", i, r.Path)
		}
		if r.Status == 0 {
			r.Status = wire.StatusOK.Code()
		}
		if _, err := wire.StatusFromCode(r.Status); err != nil {
			return fmt.Errorf("route[%d] (%s): %w", i, r.Path, err)
		}
		if r.ContentType == "" {
			r.ContentType = "text/plain"
		}
	}
	return nil
}

// Response builds the canned response for the route
func (r Route) Response() *wire.Response {
	// Validate guarantees the code is known.
	status, _ := wire.StatusFromCode(r.Status)

	headers := wire.Headers(r.Headers).Clone()
	headers["Content-Type"] = r.ContentType
	headers[wire.ContentLength] = strconv.Itoa(len(r.Body))

	return wire.NewResponse(status, headers, []byte(r.Body))
}

// ParsedMethod returns the method; Validate guarantees it is known
func (r Route) ParsedMethod() wire.Method {
	m, _ := wire.ParseMethod(r.Method)
	return m
}
