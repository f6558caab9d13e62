package server

import (
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	werrors "wirehttp/internal/errors"
	"wirehttp/internal/framing"
	"wirehttp/internal/logging"
	"wirehttp/internal/storage"
	"wirehttp/internal/wire"
)

// handle serves exactly one request on conn and closes it
func (s *Server) handle(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	id := uuid.New().String()
	remote := conn.RemoteAddr().String()
	logger := s.logger.With(map[string]interface{}{
		"connID": id,
		"remote": remote,
	})
	start := time.Now()

	raw, err := framing.ReadRequest(conn, s.opts)
	if err != nil {
		if werrors.CodeOf(err) == werrors.ConnectionClosed {
			logger.Debug("Connection closed before request", nil)
			return
		}
		logger.Warn("Failed to read request", map[string]interface{}{
			"error": err.Error(),
			"code":  string(werrors.CodeOf(err)),
		})
		return
	}

	req, err := wire.ParseRequest(raw)
	if err != nil {
		// Malformed requests are dropped without a response.
		if !werrors.IsParseError(err) {
			logger.Error("Failed to parse request", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		logger.Warn("Malformed request", map[string]interface{}{
			"error": err.Error(),
			"code":  string(werrors.CodeOf(err)),
			"bytes": len(raw),
		})
		return
	}

	resp := s.execute(req, logger)

	if _, err := resp.WriteTo(conn); err != nil {
		logger.Warn("Failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	duration := time.Since(start)
	logger.Info("Request served", map[string]interface{}{
		"method":     req.Method().String(),
		"target":     req.Target(),
		"status":     resp.Status().Code(),
		"duration":   duration.String(),
		"durationMs": duration.Milliseconds(),
	})

	if s.journal == nil {
		return
	}
	entry := storage.Entry{
		ID:         id,
		Remote:     remote,
		Method:     req.Method().String(),
		Target:     req.Target(),
		Status:     resp.Status().Code(),
		Duration:   duration,
		RecordedAt: start,
	}
	if err := s.journal.Record(entry); err != nil {
		logger.Error("Failed to journal request", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// execute dispatches req, turning a handler panic into a bare 500
func (s *Server) execute(req *wire.Request, logger *logging.Logger) (resp *wire.Response) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered", map[string]interface{}{
				"error":  fmt.Sprintf("%v", p),
				"stack":  string(debug.Stack()),
				"target": req.Target(),
			})
			resp = wire.InternalServerError()
		}
	}()
	return s.router.Execute(req.Method(), req.Target(), req)
}
