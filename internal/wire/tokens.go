// Package wire holds the HTTP/1.1 message model: the protocol token
// taxonomies, request and response values, and their text encoding.
package wire

import (
	"strings"

	werrors "wirehttp/internal/errors"
)

// Version is the protocol version carried in a start-line
type Version int

const (
	// HTTP11 is HTTP/1.1, the only supported version
	HTTP11 Version = iota
)

// String returns the wire token for the version
func (v Version) String() string {
	switch v {
	case HTTP11:
		return "HTTP/1.1"
	}
	return "HTTP/?"
}

// ParseVersion converts a wire token to a Version
func ParseVersion(token string) (Version, error) {
	switch token {
	case "HTTP/1.1":
		return HTTP11, nil
	}
	return 0, werrors.Newf(werrors.UnsupportedVersion, "unsupported version %q", token)
}

// Method is a request method
type Method int

const (
	// MethodGet is GET
	MethodGet Method = iota
	// MethodPost is POST
	MethodPost
)

var methodTokens = map[Method]string{
	MethodGet:  "GET",
	MethodPost: "POST",
}

// String returns the wire token for the method
func (m Method) String() string {
	if tok, ok := methodTokens[m]; ok {
		return tok
	}
	return "UNKNOWN"
}

// ParseMethod converts a wire token to a Method. Tokens are case-sensitive.
func ParseMethod(token string) (Method, error) {
	switch token {
	case "GET":
		return MethodGet, nil
	case "POST":
		return MethodPost, nil
	}
	supported := make([]string, 0, len(methodTokens))
	for _, m := range Methods() {
		supported = append(supported, m.String())
	}
	return 0, werrors.Newf(werrors.UnknownMethod, "unknown method %q (supported: %s)",
		token, strings.Join(supported, ", "))
}

// Methods lists every supported method in declaration order
func Methods() []Method {
	return []Method{MethodGet, MethodPost}
}
