package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nczempin/sysock/errors"
	"github.com/nczempin/sysock/transport"
)

var crlf = []byte("\r\n")

const (
	// DefaultReadTimeout bounds each underlying read of a response.
	DefaultReadTimeout = 10 * time.Second

	maxHeaderLines = 100

	// maxLineBytes rejects overlong lines once ReadText has returned them;
	// it does not bound what ReadText buffers while looking for CRLF.
	maxLineBytes = 8 << 10
)

// Http1Protocol implements HTTP/1.1 protocol over a transport. The status
// line, headers and chunk sizes are read with ReadText, bodies with
// ReadBinary.
type Http1Protocol struct {
	transport   transport.Transport
	buffer      []byte
	readTimeout time.Duration
}

// NewHttp1Protocol creates a new HTTP/1.1 protocol handler. A
// non-positive readTimeout selects DefaultReadTimeout.
func NewHttp1Protocol(t transport.Transport, readTimeout time.Duration) *Http1Protocol {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Http1Protocol{
		transport:   t,
		buffer:      make([]byte, 0, 1024),
		readTimeout: readTimeout,
	}
}

// Connect establishes a connection to ep
func (p *Http1Protocol) Connect(ep transport.Endpoint, timeout time.Duration) error {
	return p.transport.Connect(ep, timeout)
}

// Disconnect closes the connection
func (p *Http1Protocol) Disconnect() {
	p.transport.Disconnect()
}

// buildRequest formats an HTTP request into the internal buffer
func (p *Http1Protocol) buildRequest(req *HttpRequest) {
	p.buffer = p.buffer[:0]

	p.buffer = fmt.Appendf(p.buffer, "%s %s HTTP/1.1\r\n", req.Method, req.Path)
	for _, header := range req.Headers {
		p.buffer = fmt.Appendf(p.buffer, "%s: %s\r\n", header.Key, header.Value)
	}
	p.buffer = append(p.buffer, crlf...)

	if req.Method == MethodPost && len(req.Body) > 0 {
		p.buffer = append(p.buffer, req.Body...)
	}
}

// PerformRequest sends req and reads one complete response.
func (p *Http1Protocol) PerformRequest(req *HttpRequest) (*HttpResponse, error) {
	p.buildRequest(req)

	if err := p.transport.Write(p.buffer); err != nil {
		return nil, err
	}

	resp, err := p.readStatusLine()
	if err != nil {
		return nil, err
	}
	if err := p.readHeaders(resp); err != nil {
		return nil, err
	}
	if err := p.readBody(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *Http1Protocol) readLine() ([]byte, error) {
	line, err := p.transport.ReadText(crlf, p.readTimeout)
	if err != nil {
		return nil, err
	}
	if len(line) > maxLineBytes {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorMessageTooLarge,
			fmt.Sprintf("line of %d bytes exceeds %d", len(line), maxLineBytes),
		)
	}
	return bytes.TrimSuffix(line, crlf), nil
}

// readStatusLine parses "HTTP/1.1 200 OK"
func (p *Http1Protocol) readStatusLine() (*HttpResponse, error) {
	line, err := p.readLine()
	if err != nil {
		return nil, err
	}

	statusParts := bytes.SplitN(line, []byte(" "), 3)
	if len(statusParts) < 2 || !bytes.HasPrefix(statusParts[0], []byte("HTTP/")) {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status line %q", line),
		)
	}

	statusCode, err := strconv.Atoi(string(statusParts[1]))
	if err != nil || statusCode < 100 || statusCode > 999 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status code: %s", statusParts[1]),
		)
	}

	resp := &HttpResponse{StatusCode: statusCode, ContentLength: -1}
	if len(statusParts) == 3 {
		resp.StatusMessage = string(statusParts[2])
	}
	return resp, nil
}

func (p *Http1Protocol) readHeaders(resp *HttpResponse) error {
	for i := 0; ; i++ {
		if i == maxHeaderLines {
			return errors.NewProtocolError(
				errors.ProtocolErrorMessageTooLarge,
				fmt.Sprintf("more than %d header lines", maxHeaderLines),
			)
		}

		line, err := p.readLine()
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}

		key, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || len(bytes.TrimSpace(key)) == 0 {
			return errors.NewProtocolError(
				errors.ProtocolErrorInvalidHeader,
				fmt.Sprintf("malformed header line %q", line),
			)
		}
		header := HttpHeader{
			Key:   string(bytes.TrimSpace(key)),
			Value: string(bytes.TrimSpace(value)),
		}
		resp.Headers = append(resp.Headers, header)

		switch {
		case strings.EqualFold(header.Key, "Content-Length"):
			length, err := strconv.Atoi(header.Value)
			if err != nil || length < 0 {
				return errors.NewProtocolError(
					errors.ProtocolErrorInvalidHeader,
					fmt.Sprintf("invalid Content-Length %q", header.Value),
				)
			}
			resp.ContentLength = length
		case strings.EqualFold(header.Key, "Transfer-Encoding"):
			resp.Chunked = strings.Contains(strings.ToLower(header.Value), "chunked")
		}
	}
}

func (p *Http1Protocol) readBody(resp *HttpResponse) error {
	switch {
	case resp.StatusCode < 200 || resp.StatusCode == 204 || resp.StatusCode == 304:
		resp.Body = []byte{}
		return nil
	case resp.Chunked:
		return p.readChunkedBody(resp)
	case resp.ContentLength >= 0:
		body, _, err := p.transport.ReadBinary(resp.ContentLength, p.readTimeout)
		if err != nil {
			return incomplete(err)
		}
		resp.Body = body
		return nil
	default:
		return errors.NewProtocolError(
			errors.ProtocolErrorIncompleteResponse,
			"response body has neither Content-Length nor chunked encoding",
		)
	}
}

func (p *Http1Protocol) readChunkedBody(resp *HttpResponse) error {
	body := []byte{}
	for {
		line, err := p.readLine()
		if err != nil {
			return err
		}
		sizeField, _, _ := bytes.Cut(line, []byte(";"))
		size, err := strconv.ParseInt(string(bytes.TrimSpace(sizeField)), 16, 32)
		if err != nil || size < 0 {
			return errors.NewProtocolError(
				errors.ProtocolErrorInvalidChunkedEncoding,
				fmt.Sprintf("invalid chunk size %q", line),
			)
		}

		if size == 0 {
			// Trailer section ends with an empty line.
			for {
				trailer, err := p.readLine()
				if err != nil {
					return err
				}
				if len(trailer) == 0 {
					resp.Body = body
					return nil
				}
			}
		}

		chunk, _, err := p.transport.ReadBinary(int(size)+len(crlf), p.readTimeout)
		if err != nil {
			return incomplete(err)
		}
		if !bytes.HasSuffix(chunk, crlf) {
			return errors.NewProtocolError(
				errors.ProtocolErrorInvalidChunkedEncoding,
				"chunk data not followed by CRLF",
			)
		}
		body = append(body, chunk[:size]...)
	}
}

// incomplete reports a body cut short by the peer as IncompleteResponse
// and passes every other error through.
func incomplete(err error) error {
	if errors.IsEndOfStream(err) {
		return errors.NewProtocolError(
			errors.ProtocolErrorIncompleteResponse,
			"connection closed before complete response received",
		)
	}
	return err
}
