package wire

import (
	"bytes"
	"io"
	"sort"
)

// Bytes serializes the request to wire format
func (r *Request) Bytes() []byte {
	return serialize(r.Line.String(), r.Headers, r.Body)
}

// Bytes serializes the response to wire format
func (r *Response) Bytes() []byte {
	return serialize(r.Line.String(), r.Headers, r.Body)
}

// WriteTo writes the serialized response to w
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// serialize renders "<start-line>\r\n<name>: <value>\r\n...\r\n<body>".
// Header names are emitted in sorted order; callers must not rely on it.
func serialize(startLine string, headers Headers, body []byte) []byte {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString(startLine)
	buf.WriteString(crlf)
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteString(headerSeparator)
		buf.WriteString(headers[name])
		buf.WriteString(crlf)
	}
	buf.WriteString(crlf)
	buf.Write(body)
	return buf.Bytes()
}
