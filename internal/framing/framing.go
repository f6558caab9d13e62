// Package framing reads one request's worth of bytes off a stream.
package framing

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	werrors "wirehttp/internal/errors"
	"wirehttp/internal/wire"
)

// DefaultBufferSize is the size of each read from the stream
const DefaultBufferSize = 1024

var headerTerminator = []byte("\r\n\r\n")

// Options tunes ReadRequest
type Options struct {
	// BufferSize is the size of each read. Zero means DefaultBufferSize.
	BufferSize int
	// MaxBytes caps the accumulated request size. Zero means no cap.
	MaxBytes int
}

// ReadRequest accumulates bytes from r until the header block is complete and,
// when the head declares Content-Length, until that many body bytes follow.
// Bytes past the complete request are dropped. A peer that closes early ends
// the read; whatever arrived is returned and left for the parser to judge. Closing before any byte arrives is an error.
func ReadRequest(r io.Reader, opts Options) ([]byte, error) {
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	buf := make([]byte, size)
	var acc []byte
	headEnd := -1
	want := -1 // total bytes expected once the head is known

	for {
		n, err := r.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
		}

		if headEnd < 0 {
			// The marker may straddle two reads, so rescan a little before the new bytes.
			from := len(acc) - n - len(headerTerminator) + 1
			if from < 0 {
				from = 0
			}
			if i := bytes.Index(acc[from:], headerTerminator); i >= 0 {
				headEnd = from + i + len(headerTerminator)
				want = headEnd
				if length, ok := wire.DeclaredBodyLength(string(acc[:headEnd])); ok {
					want = headEnd + length
				}
			}
		}

		// Until the head is complete the cap applies to what arrived; after
		// that it applies to the request size the head declares.
		if opts.MaxBytes > 0 {
			if (headEnd < 0 && len(acc) > opts.MaxBytes) || want > opts.MaxBytes {
				return nil, werrors.Newf(werrors.RequestTooLarge,
					"request exceeds %d bytes", opts.MaxBytes)
			}
		}

		if headEnd >= 0 && len(acc) >= want {
			return acc[:want], nil
		}

		// A zero-length read counts as the peer closing.
		if n == 0 && err == nil {
			err = io.EOF
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(acc) == 0 {
					return nil, werrors.New(werrors.ConnectionClosed, "peer closed before sending a request", nil)
				}
				return acc, nil
			}
			return nil, fmt.Errorf("read request: %w", err)
		}
	}
}
