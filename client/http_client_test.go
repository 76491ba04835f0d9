package client

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sockerrors "github.com/nczempin/sysock/errors"
	"github.com/nczempin/sysock/protocol"
	"github.com/nczempin/sysock/transport"
)

const testTimeout = 2 * time.Second

// setupTestServer creates a simple HTTP test server
func setupTestServer(t *testing.T, handler func(net.Conn)) (transport.Endpoint, func()) {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err, "failed to create listener")

	addr := listener.Addr().(*net.TCPAddr)
	ep, err := transport.NewEndpoint(addr.IP, uint16(addr.Port))
	require.NoError(t, err)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	return ep, func() { listener.Close() }
}

// respondWith reads the request head and sends response.
func respondWith(response string) func(net.Conn) {
	return func(conn net.Conn) {
		buf := make([]byte, 1024)
		conn.Read(buf)
		conn.Write([]byte(response))
	}
}

func newTestClient(t *testing.T) *HttpClient {
	t.Helper()

	trans, err := transport.NewSysTransport()
	require.NoError(t, err, "failed to create transport")
	t.Cleanup(trans.Destroy)

	return NewHttpClient(protocol.NewHttp1Protocol(trans, testTimeout))
}

func TestHttpClient_Get(t *testing.T) {
	responseBody := "Hello, World!"
	response := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n%s", len(responseBody), responseBody)

	ep, cleanup := setupTestServer(t, respondWith(response))
	defer cleanup()

	client := newTestClient(t)
	require.NoError(t, client.Connect(ep, testTimeout))
	defer client.Disconnect()

	resp, err := client.Get(&protocol.HttpRequest{
		Path:    "/test",
		Headers: []protocol.HttpHeader{{Key: "Host", Value: "localhost"}},
	})
	require.NoError(t, err, "GET request failed")

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, responseBody, string(resp.Body))
}

func TestHttpClient_Get_HugeContentLength(t *testing.T) {
	response := "HTTP/1.1 200 OK\r\nContent-Length: 4611686018427387904\r\n\r\nhi"

	ep, cleanup := setupTestServer(t, respondWith(response))
	defer cleanup()

	client := newTestClient(t)
	require.NoError(t, client.Connect(ep, testTimeout))
	defer client.Disconnect()

	var (
		resp *protocol.HttpResponse
		err  error
	)
	require.NotPanics(t, func() {
		resp, err = client.Get(&protocol.HttpRequest{Path: "/"})
	})
	require.Error(t, err)
	assert.Nil(t, resp)

	var se *sockerrors.SocketError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, sockerrors.ProtocolErrorIncompleteResponse, se.ProtocolErr)
}

func TestHttpClient_Get_Chunked(t *testing.T) {
	ep, cleanup := setupTestServer(t, func(conn net.Conn) {
		buf := make([]byte, 1024)
		conn.Read(buf)
		for _, part := range []string{
			"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n",
			"4\r\nWiki\r\n",
			"5\r\npedia\r\n",
			"0\r\n\r\n",
		} {
			conn.Write([]byte(part))
			time.Sleep(5 * time.Millisecond)
		}
	})
	defer cleanup()

	client := newTestClient(t)
	require.NoError(t, client.Connect(ep, testTimeout))
	defer client.Disconnect()

	resp, err := client.Get(&protocol.HttpRequest{Path: "/wiki"})
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", string(resp.Body))
}

func TestHttpClient_Post(t *testing.T) {
	responseBody := "Created"
	response := fmt.Sprintf("HTTP/1.1 201 Created\r\nContent-Length: %d\r\n\r\n%s", len(responseBody), responseBody)

	ep, cleanup := setupTestServer(t, respondWith(response))
	defer cleanup()

	client := newTestClient(t)
	require.NoError(t, client.Connect(ep, testTimeout))
	defer client.Disconnect()

	postBody := []byte("test data")
	resp, err := client.Post(&protocol.HttpRequest{
		Path: "/create",
		Headers: []protocol.HttpHeader{
			{Key: "Host", Value: "localhost"},
			{Key: "Content-Length", Value: fmt.Sprintf("%d", len(postBody))},
		},
		Body: postBody,
	})
	require.NoError(t, err, "POST request failed")

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Created", resp.StatusMessage)
	assert.Equal(t, responseBody, string(resp.Body))
}

func TestHttpClient_GetWithBody_ReturnsError(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Get(&protocol.HttpRequest{
		Path: "/test",
		Body: []byte("should not have body"),
	})
	assert.Error(t, err, "expected error for GET request with body")
}

func TestHttpClient_PostWithoutContentLength_ReturnsError(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Post(&protocol.HttpRequest{
		Path:    "/test",
		Body:    []byte("test body"),
		Headers: []protocol.HttpHeader{{Key: "Host", Value: "localhost"}},
	})
	assert.Error(t, err, "expected error for POST request without Content-Length")
}

func TestHttpClient_PostWithoutBody_ReturnsError(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Post(&protocol.HttpRequest{Path: "/test"})
	assert.Error(t, err)
}
