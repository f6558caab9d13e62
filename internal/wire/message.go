package wire

import (
	"strconv"
)

// ContentLength is the header that bounds a message body
const ContentLength = "Content-Length"

// Headers maps header names to values. Names are case-sensitive and unique.
type Headers map[string]string

// Clone returns a copy of h
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// RequestLine is the start-line of a request
type RequestLine struct {
	Method  Method
	Target  string
	Version Version
}

// String renders the request line without its CRLF
func (l RequestLine) String() string {
	return l.Method.String() + " " + l.Target + " " + l.Version.String()
}

// StatusLine is the start-line of a response
type StatusLine struct {
	Version Version
	Status  Status
}

// String renders the status line without its CRLF
func (l StatusLine) String() string {
	return l.Version.String() + " " + strconv.Itoa(l.Status.Code()) + " " + l.Status.Reason()
}

// Request is an HTTP request. A nil Body means no body was sent; a non-nil
// empty Body means Content-Length: 0.
type Request struct {
	Line    RequestLine
	Headers Headers
	Body    []byte
}

// Response is an HTTP response. Body follows the same nil convention as Request.
type Response struct {
	Line    StatusLine
	Headers Headers
	Body    []byte
}

// NewRequest creates a request with the given line, headers and body
func NewRequest(line RequestLine, headers Headers, body []byte) *Request {
	if headers == nil {
		headers = Headers{}
	}
	return &Request{Line: line, Headers: headers, Body: body}
}

// NewResponse creates an HTTP/1.1 response with the given status
func NewResponse(status Status, headers Headers, body []byte) *Response {
	if headers == nil {
		headers = Headers{}
	}
	return &Response{
		Line:    StatusLine{Version: HTTP11, Status: status},
		Headers: headers,
		Body:    body,
	}
}

// OK creates a 200 response
func OK(headers Headers, body []byte) *Response {
	return NewResponse(StatusOK, headers, body)
}

// Created creates a 201 response
func Created(headers Headers, body []byte) *Response {
	return NewResponse(StatusCreated, headers, body)
}

// NotFound creates a 404 response with no headers and no body
func NotFound() *Response {
	return NewResponse(StatusNotFound, nil, nil)
}

// InternalServerError creates a 500 response with no headers and no body
func InternalServerError() *Response {
	return NewResponse(StatusInternalServerError, nil, nil)
}

// Write replaces the response body
func (r *Response) Write(body []byte) {
	r.Body = body
}

// Status is shorthand for r.Line.Status
func (r *Response) Status() Status {
	return r.Line.Status
}

// Method is shorthand for r.Line.Method
func (r *Request) Method() Method {
	return r.Line.Method
}

// Target is shorthand for r.Line.Target
func (r *Request) Target() string {
	return r.Line.Target
}

// Header returns the value of the named header and whether it was present
func (r *Request) Header(name string) (string, bool) {
	v, ok := r.Headers[name]
	return v, ok
}
