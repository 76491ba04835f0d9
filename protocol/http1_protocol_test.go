package protocol

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sockerrors "github.com/nczempin/sysock/errors"
	"github.com/nczempin/sysock/transport"
)

// scriptedTransport replays a canned response and records what was written.
type scriptedTransport struct {
	response []byte
	written  bytes.Buffer
}

func (s *scriptedTransport) Connect(transport.Endpoint, time.Duration) error { return nil }

func (s *scriptedTransport) Disconnect() {}

func (s *scriptedTransport) Write(data []byte) error {
	s.written.Write(data)
	return nil
}

func (s *scriptedTransport) ReadText(terminator []byte, _ time.Duration) ([]byte, error) {
	i := bytes.Index(s.response, terminator)
	if i < 0 {
		s.response = nil
		return nil, sockerrors.NewTransportError(sockerrors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}
	end := i + len(terminator)
	line := append([]byte(nil), s.response[:end]...)
	s.response = s.response[end:]
	return line, nil
}

func (s *scriptedTransport) ReadBinary(n int, _ time.Duration) ([]byte, int, error) {
	if n > len(s.response) {
		s.response = nil
		return nil, 0, sockerrors.NewTransportError(sockerrors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}
	data := append([]byte{}, s.response[:n]...)
	s.response = s.response[n:]
	return data, n, nil
}

func perform(t *testing.T, response string, req *HttpRequest) (*HttpResponse, *scriptedTransport, error) {
	t.Helper()
	st := &scriptedTransport{response: []byte(response)}
	resp, err := NewHttp1Protocol(st, time.Second).PerformRequest(req)
	return resp, st, err
}

func TestHttp1Protocol_BuildRequest(t *testing.T) {
	req := &HttpRequest{
		Method: MethodPost,
		Path:   "/submit",
		Headers: []HttpHeader{
			{Key: "Host", Value: "localhost"},
			{Key: "Content-Length", Value: "4"},
		},
		Body: []byte("data"),
	}

	_, st, err := perform(t, "HTTP/1.1 204 No Content\r\n\r\n", req)
	require.NoError(t, err)
	assert.Equal(t,
		"POST /submit HTTP/1.1\r\nHost: localhost\r\nContent-Length: 4\r\n\r\ndata",
		st.written.String())
}

func TestHttp1Protocol_ContentLength(t *testing.T) {
	resp, st, err := perform(t,
		"HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 13\r\n\r\nHello, World!",
		&HttpRequest{Path: "/"})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.StatusMessage)
	assert.Equal(t, 13, resp.ContentLength)
	assert.Equal(t, "Hello, World!", string(resp.Body))
	assert.Equal(t, "text/plain", resp.Header("content-type"))
	assert.Empty(t, st.response)
}

func TestHttp1Protocol_Chunked(t *testing.T) {
	resp, _, err := perform(t,
		"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"+
			"5\r\nHello\r\n"+
			"8;ext=1\r\n, World!\r\n"+
			"0\r\nX-Trailer: yes\r\n\r\n",
		&HttpRequest{Path: "/"})
	require.NoError(t, err)

	assert.True(t, resp.Chunked)
	assert.Equal(t, -1, resp.ContentLength)
	assert.Equal(t, "Hello, World!", string(resp.Body))
}

func TestHttp1Protocol_NoBodyStatus(t *testing.T) {
	resp, _, err := perform(t, "HTTP/1.1 304 Not Modified\r\nETag: x\r\n\r\n", &HttpRequest{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, 304, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestHttp1Protocol_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     sockerrors.ProtocolError
	}{
		{name: "bad status line", response: "SPDY/3 200 OK\r\n\r\n", want: sockerrors.ProtocolErrorInvalidStatusLine},
		{name: "bad status code", response: "HTTP/1.1 abc OK\r\n\r\n", want: sockerrors.ProtocolErrorInvalidStatusLine},
		{name: "bad header", response: "HTTP/1.1 200 OK\r\nnocolon\r\n\r\n", want: sockerrors.ProtocolErrorInvalidHeader},
		{name: "bad content length", response: "HTTP/1.1 200 OK\r\nContent-Length: -3\r\n\r\n", want: sockerrors.ProtocolErrorInvalidHeader},
		{name: "bad chunk size", response: "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n", want: sockerrors.ProtocolErrorInvalidChunkedEncoding},
		{name: "chunk without crlf", response: "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n2\r\nabcd", want: sockerrors.ProtocolErrorInvalidChunkedEncoding},
		{name: "truncated body", response: "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort", want: sockerrors.ProtocolErrorIncompleteResponse},
		{name: "truncated chunk", response: "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nab", want: sockerrors.ProtocolErrorIncompleteResponse},
		{name: "undelimited body", response: "HTTP/1.1 200 OK\r\n\r\nbody", want: sockerrors.ProtocolErrorIncompleteResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _, err := perform(t, tt.response, &HttpRequest{Path: "/"})
			require.Error(t, err)
			assert.Nil(t, resp)

			var se *sockerrors.SocketError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, sockerrors.ErrorProtocol, se.Type)
			assert.Equal(t, tt.want, se.ProtocolErr)
		})
	}
}

func TestHttp1Protocol_TransportErrorPassesThrough(t *testing.T) {
	resp, _, err := perform(t, "HTTP/1.1 200 OK\r\nContent-", &HttpRequest{Path: "/"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, sockerrors.IsEndOfStream(err))
}
