package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"wirehttp/internal/app"
	"wirehttp/internal/config"
	"wirehttp/internal/handlers"
	"wirehttp/internal/logging"
	"wirehttp/internal/router"
	"wirehttp/internal/storage"
	"wirehttp/internal/wire"
)

type memJournal struct {
	mu      sync.Mutex
	entries []storage.Entry
}

func (j *memJournal) Record(e storage.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) all() []storage.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]storage.Entry(nil), j.entries...)
}

type testServer struct {
	*Server
	logs    *bytes.Buffer
	journal *memJournal
	done    chan error
}

func startServer(t *testing.T, r *router.Router) *testServer {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	cfg.Server.MaxRequestBytes = 4096

	logs := &bytes.Buffer{}
	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.DebugLevel, Output: logs})
	journal := &memJournal{}

	ts := &testServer{
		Server:  New(cfg, r, logger, journal),
		logs:    logs,
		journal: journal,
		done:    make(chan error, 1),
	}
	go func() { ts.done <- ts.Start() }()

	select {
	case <-ts.Ready():
	case err := <-ts.done:
		t.Fatalf("Start() error = %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	return ts
}

// stop shuts the server down so logs and journal are safe to read
func (ts *testServer) stop(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := <-ts.done; !errors.Is(err, ErrServerClosed) {
		t.Errorf("Start() returned %v, want ErrServerClosed", err)
	}
}

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("write error = %v", err)
	}
	got, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	return string(got)
}

// sameResponse reports whether two raw responses carry the same status,
// header set and body.
func sameResponse(t *testing.T, got, want string) bool {
	t.Helper()
	w, err := wire.ParseResponse([]byte(want))
	if err != nil {
		t.Fatalf("ParseResponse(%q) error = %v", want, err)
	}
	g, err := wire.ParseResponse([]byte(got))
	if err != nil {
		return false
	}
	return g.Status() == w.Status() && reflect.DeepEqual(g.Headers, w.Headers) && bytes.Equal(g.Body, w.Body)
}

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	r := router.New(handlers.NotFound, app.NewContext(t.TempDir()))
	if err := handlers.Register(r, nil); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return r
}

func TestServer_RoundTrip(t *testing.T) {
	ts := startServer(t, newRouter(t))

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"root", "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n", "HTTP/1.1 200 OK\r\n\r\n"},
		{"echo", "GET /echo/abc HTTP/1.1\r\n\r\n", "HTTP/1.1 200 OK\r\nContent-Length: 3\r\nContent-Type: text/plain\r\n\r\nabc"},
		{"user agent", "GET /user-agent HTTP/1.1\r\nUser-Agent: curl/8.0\r\n\r\n", "HTTP/1.1 200 OK\r\nContent-Length: 8\r\nContent-Type: text/plain\r\n\r\ncurl/8.0"},
		{"not found", "GET /missing HTTP/1.1\r\n\r\n", "HTTP/1.1 404 Not Found\r\n\r\n"},
		{"handler error", "GET /user-agent HTTP/1.1\r\n\r\n", "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{"post body", "POST /file/f HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello", "HTTP/1.1 201 Created\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundTrip(t, ts.Addr(), tt.raw); !sameResponse(t, got, tt.want) {
				t.Errorf("response = %q, want %q", got, tt.want)
			}
		})
	}

	ts.stop(t)

	entries := ts.journal.all()
	if len(entries) != len(tests) {
		t.Fatalf("journal has %d entries, want %d", len(entries), len(tests))
	}
	ids := make(map[string]bool)
	for _, e := range entries {
		if e.ID == "" || ids[e.ID] {
			t.Errorf("entry id %q is empty or repeated", e.ID)
		}
		ids[e.ID] = true
	}
}

func TestServer_BodyAcrossWrites(t *testing.T) {
	r := newRouter(t)
	ts := startServer(t, r)
	defer ts.stop(t)

	conn, err := net.Dial("tcp", ts.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	_, _ = io.WriteString(conn, "POST /file/split HTTP/1.1\r\nContent-Length: 10\r\n\r\n01234")
	time.Sleep(50 * time.Millisecond)
	_, _ = io.WriteString(conn, "56789")

	got, _ := io.ReadAll(conn)
	if string(got) != "HTTP/1.1 201 Created\r\n\r\n" {
		t.Errorf("response = %q", got)
	}

	resp := roundTrip(t, ts.Addr(), "GET /file/split HTTP/1.1\r\n\r\n")
	if !strings.HasSuffix(resp, "\r\n\r\n0123456789") {
		t.Errorf("stored body = %q", resp)
	}
}

func TestServer_MalformedRequestClosesWithoutResponse(t *testing.T) {
	ts := startServer(t, newRouter(t))

	for _, raw := range []string{
		"PUT / HTTP/1.1\r\n\r\n",
		"GET / HTTP/1.0\r\n\r\n",
		"GET /\r\n\r\n",
		"GET / HTTP/1.1\r\nBadHeader\r\n\r\n",
	} {
		if got := roundTrip(t, ts.Addr(), raw); got != "" {
			t.Errorf("%q got response %q, want none", raw, got)
		}
	}

	ts.stop(t)

	if n := strings.Count(ts.logs.String(), "Malformed request"); n != 4 {
		t.Errorf("logged %d malformed requests, want 4", n)
	}
	if len(ts.journal.all()) != 0 {
		t.Error("malformed requests should not be journaled")
	}
}

func TestServer_EmptyConnection(t *testing.T) {
	ts := startServer(t, newRouter(t))

	conn, err := net.Dial("tcp", ts.Addr())
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()

	ts.stop(t)

	if strings.Contains(ts.logs.String(), "Failed to read request") {
		t.Errorf("an empty connection should not be a warning: %s", ts.logs.String())
	}
}

func TestServer_TooLarge(t *testing.T) {
	ts := startServer(t, newRouter(t))

	raw := "POST /file/big HTTP/1.1\r\nContent-Length: 10000\r\n\r\n" + strings.Repeat("x", 10000)
	conn, err := net.Dial("tcp", ts.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	_, _ = io.WriteString(conn, raw)

	got, _ := io.ReadAll(conn)
	if len(got) != 0 {
		t.Errorf("oversized request got response %q", got)
	}

	ts.stop(t)
	if !strings.Contains(ts.logs.String(), "REQUEST_TOO_LARGE") {
		t.Errorf("logs should mention REQUEST_TOO_LARGE: %s", ts.logs.String())
	}
}

func TestServer_PanicBecomes500(t *testing.T) {
	r := router.New(handlers.NotFound, app.NewContext(t.TempDir()))
	err := r.Get("/boom", func(*wire.Request, string, *app.Context) (*wire.Response, error) {
		panic("kaboom")
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := startServer(t, r)

	got := roundTrip(t, ts.Addr(), "GET /boom HTTP/1.1\r\n\r\n")
	if got != "HTTP/1.1 500 Internal Server Error\r\n\r\n" {
		t.Errorf("response = %q", got)
	}

	// The server keeps serving after a panic.
	if got := roundTrip(t, ts.Addr(), "GET /other HTTP/1.1\r\n\r\n"); got != "HTTP/1.1 404 Not Found\r\n\r\n" {
		t.Errorf("response after panic = %q", got)
	}

	ts.stop(t)
	if !strings.Contains(ts.logs.String(), "kaboom") {
		t.Error("panic should be logged")
	}
}

func TestServer_Concurrent(t *testing.T) {
	ts := startServer(t, newRouter(t))

	var wg sync.WaitGroup
	errs := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.Dial("tcp", ts.Addr())
			if err != nil {
				errs <- err.Error()
				return
			}
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
			_, _ = io.WriteString(conn, "GET /echo/hi HTTP/1.1\r\n\r\n")
			got, _ := io.ReadAll(conn)
			if !strings.HasSuffix(string(got), "\r\n\r\nhi") {
				errs <- string(got)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent request failed: %q", e)
	}

	ts.stop(t)
	if n := len(ts.journal.all()); n != 20 {
		t.Errorf("journal has %d entries, want 20", n)
	}
}

func TestShutdown_ClosesStalledConnections(t *testing.T) {
	ts := startServer(t, newRouter(t))

	conn, err := net.Dial("tcp", ts.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	// Half a request keeps the handler blocked in read.
	_, _ = io.WriteString(conn, "GET / HTTP/1.1\r\n")
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := ts.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
	if err := <-ts.done; !errors.Is(err, ErrServerClosed) {
		t.Errorf("Start() returned %v", err)
	}
}
