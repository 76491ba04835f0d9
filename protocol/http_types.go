package protocol

import "strings"

// HttpMethod represents HTTP request methods
type HttpMethod int

const (
	MethodGet HttpMethod = iota
	MethodPost
)

func (m HttpMethod) String() string {
	if m == MethodPost {
		return "POST"
	}
	return "GET"
}

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// HttpRequest represents an HTTP request
type HttpRequest struct {
	Method  HttpMethod
	Path    string
	Headers []HttpHeader
	Body    []byte
}

// HttpResponse represents an HTTP response. Body is owned by the caller.
type HttpResponse struct {
	StatusCode    int
	StatusMessage string
	Headers       []HttpHeader
	Body          []byte
	// ContentLength is -1 when the response was not sent with a
	// Content-Length header.
	ContentLength int
	Chunked       bool
}

// Header returns the first value of the header named key, compared
// case-insensitively.
func (r *HttpResponse) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}
