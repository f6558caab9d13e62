package wire

import (
	"strconv"
	"strings"

	werrors "wirehttp/internal/errors"
)

const (
	crlf             = "\r\n"
	headerTerminator = "\r\n\r\n"
	headerSeparator  = ": "
)

// ParseRequest parses raw request bytes into a Request
func ParseRequest(raw []byte) (*Request, error) {
	startLine, headers, body, err := parseMessage(string(raw))
	if err != nil {
		return nil, err
	}

	line, err := ParseRequestLine(startLine)
	if err != nil {
		return nil, err
	}

	return &Request{Line: line, Headers: headers, Body: body}, nil
}

// ParseResponse parses raw response bytes into a Response
func ParseResponse(raw []byte) (*Response, error) {
	startLine, headers, body, err := parseMessage(string(raw))
	if err != nil {
		return nil, err
	}

	line, err := ParseStatusLine(startLine)
	if err != nil {
		return nil, err
	}

	return &Response{Line: line, Headers: headers, Body: body}, nil
}

// ParseRequestLine parses "METHOD SP TARGET SP VERSION"
func ParseRequestLine(raw string) (RequestLine, error) {
	fields := strings.Split(raw, " ")
	if len(fields) != 3 {
		return RequestLine{}, werrors.Newf(werrors.MalformedStartLine,
			"request line has %d fields, want 3", len(fields))
	}

	method, err := ParseMethod(fields[0])
	if err != nil {
		return RequestLine{}, err
	}
	version, err := ParseVersion(fields[2])
	if err != nil {
		return RequestLine{}, err
	}

	return RequestLine{Method: method, Target: fields[1], Version: version}, nil
}

// ParseStatusLine parses "VERSION SP CODE SP REASON". The reason may contain
// spaces and must be the phrase that belongs to the code.
func ParseStatusLine(raw string) (StatusLine, error) {
	fields := strings.SplitN(raw, " ", 3)
	if len(fields) != 3 {
		return StatusLine{}, werrors.Newf(werrors.MalformedStartLine,
			"status line has %d fields, want 3", len(fields))
	}

	version, err := ParseVersion(fields[0])
	if err != nil {
		return StatusLine{}, err
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return StatusLine{}, werrors.New(werrors.MalformedStartLine, "status code is not a number", err)
	}
	status, err := StatusFromCode(code)
	if err != nil {
		return StatusLine{}, err
	}
	if fields[2] != status.Reason() {
		return StatusLine{}, werrors.Newf(werrors.MalformedStartLine,
			"reason %q does not belong to status %d", fields[2], code)
	}

	return StatusLine{Version: version, Status: status}, nil
}

// ParseHeaders parses a CRLF-separated header block without its terminator.
// Every line must contain ": "; the first occurrence splits name from value.
func ParseHeaders(block string) (Headers, error) {
	headers := Headers{}
	if block == "" {
		return headers, nil
	}

	for _, line := range strings.Split(block, crlf) {
		name, value, ok := strings.Cut(line, headerSeparator)
		if !ok {
			return nil, werrors.Newf(werrors.MalformedHeader, "header line %q has no %q", line, headerSeparator)
		}
		headers[name] = value
	}
	return headers, nil
}

// ParseContentLength parses a Content-Length value. Only ASCII digits are
// accepted and the result must fit in an int.
func ParseContentLength(value string) (int, error) {
	if value == "" {
		return 0, werrors.New(werrors.InvalidContentLength, "empty Content-Length", nil)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, werrors.Newf(werrors.InvalidContentLength, "Content-Length %q is not a non-negative integer", value)
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, werrors.New(werrors.InvalidContentLength, "Content-Length out of range", err)
	}
	return n, nil
}

// parseMessage splits raw into start-line, headers and body. The body is only
// read when Content-Length is present, and bytes past it are ignored.
func parseMessage(raw string) (string, Headers, []byte, error) {
	startLine, remaining, ok := strings.Cut(raw, crlf)
	if !ok {
		return "", nil, nil, werrors.New(werrors.MissingStartLine, "no CRLF after start-line", nil)
	}

	// Nothing after the start-line, or an immediate blank line: no headers, no body.
	if remaining == "" || strings.HasPrefix(remaining, crlf) {
		return startLine, Headers{}, nil, nil
	}

	block, rest, ok := strings.Cut(remaining, headerTerminator)
	if !ok {
		return "", nil, nil, werrors.New(werrors.UnterminatedHeaders, "header block has no blank line", nil)
	}

	headers, err := ParseHeaders(block)
	if err != nil {
		return "", nil, nil, err
	}

	var body []byte
	if value, ok := headers[ContentLength]; ok {
		n, err := ParseContentLength(value)
		if err != nil {
			return "", nil, nil, err
		}
		if len(rest) < n {
			return "", nil, nil, werrors.Newf(werrors.TruncatedBody,
				"Content-Length is %d but only %d body bytes arrived", n, len(rest))
		}
		body = []byte(rest[:n])
	}

	return startLine, headers, body, nil
}

// DeclaredBodyLength reports the Content-Length declared by a raw message
// head (start-line plus header block, terminator optional). It is lenient:
// any parse problem reports false and is left for the full parse to surface.
func DeclaredBodyLength(head string) (int, bool) {
	_, remaining, ok := strings.Cut(head, crlf)
	if !ok {
		return 0, false
	}
	block, _, _ := strings.Cut(remaining, headerTerminator)

	// Later lines override earlier ones, as in ParseHeaders.
	value, found := "", false
	for _, line := range strings.Split(block, crlf) {
		name, v, ok := strings.Cut(line, headerSeparator)
		if ok && name == ContentLength {
			value, found = v, true
		}
	}
	if !found {
		return 0, false
	}
	n, err := ParseContentLength(value)
	if err != nil {
		return 0, false
	}
	return n, true
}
