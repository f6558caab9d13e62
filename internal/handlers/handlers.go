// Package handlers implements the routes wirehttp serves.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"wirehttp/internal/app"
	"wirehttp/internal/manifest"
	"wirehttp/internal/router"
	"wirehttp/internal/wire"
)

const (
	contentTypeText   = "text/plain"
	contentTypeBinary = "application/octet-stream"
)

// ErrMissingUserAgent is returned by UserAgent when the header is absent
var ErrMissingUserAgent = errors.New("User-Agent header required")

// Register adds the built-in routes, then any canned routes from m (which may
// be nil), to r. Registration stops at the first error.
func Register(r *router.Router, m *manifest.File) error {
	builtin := []struct {
		method  wire.Method
		pattern string
		handler router.HandlerFunc
	}{
		{wire.MethodGet, "/echo/{text}", Echo},
		{wire.MethodGet, "/", Root},
		{wire.MethodGet, "/user-agent", UserAgent},
		{wire.MethodGet, "/file/{file_path}", ReadFile},
		{wire.MethodPost, "/file/{file_path}", WriteFile},
	}
	for _, b := range builtin {
		if err := r.Add(b.method, b.pattern, b.handler); err != nil {
			return err
		}
	}

	if m == nil {
		return nil
	}
	for _, route := range m.Routes {
		if err := r.Add(route.ParsedMethod(), route.Path, Canned(route)); err != nil {
			return fmt.Errorf("manifest route %s %s: %w", route.Method, route.Path, err)
		}
	}
	return nil
}

// NotFound is the default handler
func NotFound(_ *wire.Request, _ string, _ *app.Context) (*wire.Response, error) {
	return wire.NotFound(), nil
}

// Root answers 200 with no headers and no body
func Root(_ *wire.Request, _ string, _ *app.Context) (*wire.Response, error) {
	return wire.OK(nil, nil), nil
}

// Echo answers with the captured text, gzip-encoded when the client accepts it
func Echo(req *wire.Request, text string, _ *app.Context) (*wire.Response, error) {
	body := []byte(text)
	headers := wire.Headers{"Content-Type": contentTypeText}

	if acceptsGzip(req) {
		compressed, err := gzipBytes(body)
		if err != nil {
			return nil, err
		}
		body = compressed
		headers["Content-Encoding"] = "gzip"
	}

	headers[wire.ContentLength] = strconv.Itoa(len(body))
	return wire.OK(headers, body), nil
}

// UserAgent answers with the request's User-Agent header
func UserAgent(req *wire.Request, _ string, _ *app.Context) (*wire.Response, error) {
	ua, ok := req.Header("User-Agent")
	if !ok {
		return nil, ErrMissingUserAgent
	}

	resp := wire.OK(wire.Headers{
		"Content-Type":     contentTypeText,
		wire.ContentLength: strconv.Itoa(len(ua)),
	}, nil)
	resp.Write([]byte(ua))
	return resp, nil
}

// ReadFile serves a file from the context's directory
func ReadFile(_ *wire.Request, name string, ctx *app.Context) (*wire.Response, error) {
	path, ok := resolve(ctx.Directory(), name)
	if !ok {
		return wire.NotFound(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || isDirErr(path) {
			return wire.NotFound(), nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	ctx.RecordServed(int64(len(data)))

	return wire.OK(wire.Headers{
		"Content-Type":     contentTypeBinary,
		wire.ContentLength: strconv.Itoa(len(data)),
	}, data), nil
}

// WriteFile stores the request body in the context's directory
func WriteFile(req *wire.Request, name string, ctx *app.Context) (*wire.Response, error) {
	path, ok := resolve(ctx.Directory(), name)
	if !ok {
		return wire.NotFound(), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create parent of %s: %w", name, err)
	}
	if err := os.WriteFile(path, req.Body, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	ctx.RecordStored(int64(len(req.Body)))

	return wire.Created(nil, nil), nil
}

// Canned returns a handler that always answers with the manifest route's response
func Canned(route manifest.Route) router.HandlerFunc {
	return func(_ *wire.Request, _ string, _ *app.Context) (*wire.Response, error) {
		return route.Response(), nil
	}
}

// resolve joins name onto dir and rejects results outside dir
func resolve(dir, name string) (string, bool) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	path := filepath.Join(root, filepath.FromSlash(name))
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return path, true
}

func isDirErr(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func acceptsGzip(req *wire.Request) bool {
	accept, ok := req.Header("Accept-Encoding")
	if !ok {
		return false
	}
	for _, enc := range strings.Split(accept, ",") {
		token, _, _ := strings.Cut(enc, ";")
		if strings.TrimSpace(token) == "gzip" {
			return true
		}
	}
	return false
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
