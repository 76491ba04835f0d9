package client

import (
	"strings"
	"time"

	"github.com/nczempin/sysock/errors"
	"github.com/nczempin/sysock/protocol"
	"github.com/nczempin/sysock/transport"
)

// HttpClient provides a high-level HTTP client API
type HttpClient struct {
	protocol *protocol.Http1Protocol
}

// NewHttpClient creates a new HTTP client with the given protocol
func NewHttpClient(proto *protocol.Http1Protocol) *HttpClient {
	return &HttpClient{
		protocol: proto,
	}
}

// Connect establishes a connection to ep
func (c *HttpClient) Connect(ep transport.Endpoint, timeout time.Duration) error {
	return c.protocol.Connect(ep, timeout)
}

// Disconnect closes the connection
func (c *HttpClient) Disconnect() {
	c.protocol.Disconnect()
}

// Get performs a GET request
func (c *HttpClient) Get(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	if len(req.Body) > 0 {
		return nil, errors.NewInvalidArgumentError("GET request cannot have a body")
	}
	req.Method = protocol.MethodGet
	return c.protocol.PerformRequest(req)
}

// Post performs a POST request
func (c *HttpClient) Post(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	if err := c.validatePostRequest(req); err != nil {
		return nil, err
	}
	req.Method = protocol.MethodPost
	return c.protocol.PerformRequest(req)
}

// validatePostRequest validates that a POST request has required fields
func (c *HttpClient) validatePostRequest(req *protocol.HttpRequest) error {
	if len(req.Body) == 0 {
		return errors.NewInvalidArgumentError("POST request must have a body")
	}

	for _, header := range req.Headers {
		if strings.EqualFold(header.Key, "Content-Length") {
			return nil
		}
	}
	return errors.NewInvalidArgumentError("POST request must have Content-Length header")
}
