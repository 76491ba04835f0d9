package transport

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nczempin/sysock/errors"
)

type waitDir int

const (
	waitRead waitDir = iota
	waitWrite
	waitError
)

// SysTransport implements Transport over a non-blocking IPv4 TCP socket.
// Every blocking operation is a readiness wait followed by a single
// non-blocking system call. A SysTransport must not be used from more
// than one goroutine at a time.
type SysTransport struct {
	fd      int
	rb      *readBuffer
	backend ioBackend
	opts    options
	id      uuid.UUID
	ep      Endpoint
	log     *zap.Logger
}

var _ Transport = (*SysTransport)(nil)

// NewSysTransport creates a disconnected transport.
func NewSysTransport(opts ...Option) (*SysTransport, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	backend, err := newBackend(o.backend)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	l := o.logger
	if l == nil {
		l = Logger()
	}

	return &SysTransport{
		fd:      invalidSocket,
		rb:      newReadBuffer(o.bufferSize),
		backend: backend,
		opts:    o,
		id:      id,
		log:     l.With(zap.Stringer("conn_id", id), zap.Stringer("backend", o.backend)),
	}, nil
}

// ID identifies the transport in log output.
func (t *SysTransport) ID() uuid.UUID { return t.id }

// Backend reports which I/O backend the transport uses.
func (t *SysTransport) Backend() BackendKind { return t.backend.kind() }

// Connected reports whether the transport holds an open socket.
func (t *SysTransport) Connected() bool { return t.fd != invalidSocket }

// Buffered returns the number of received bytes not yet returned by a read.
func (t *SysTransport) Buffered() int { return t.rb.pos }

// Endpoint returns the peer of the current or most recent connection.
func (t *SysTransport) Endpoint() Endpoint { return t.ep }

// Connect establishes a TCP connection to ep. A failed connect leaves
// the transport disconnected with no socket to clean up.
func (t *SysTransport) Connect(ep Endpoint, timeout time.Duration) error {
	if t.Connected() {
		t.log.Warn("connect on a connected transport, dropping previous connection",
			zap.Stringer("endpoint", t.ep))
		t.Disconnect()
	}
	t.rb.reset()
	t.ep = ep

	fd, err := openStream()
	if err != nil {
		return t.connectError(errors.TransportErrorSocketCreateFailure, "failed to create socket", err)
	}

	if err := setNonblock(fd); err != nil {
		closeSocket(fd)
		return t.connectError(errors.TransportErrorSocketCreateFailure, "failed to set non-blocking mode", err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if t.opts.noDelay {
		if err := setNoDelay(fd); err != nil {
			closeSocket(fd)
			return t.connectError(errors.TransportErrorSocketCreateFailure, "failed to set TCP_NODELAY", err)
		}
	}

	pending, err := startConnect(fd, ep)
	if err == nil && pending {
		err = waitReady(fd, waitWrite, timeout)
	}
	if err != nil {
		closeSocket(fd)
		if err == errTimedOut {
			return t.connectError(errors.TransportErrorTimeout, fmt.Sprintf("connect to %s timed out after %v", ep, timeout), err)
		}
		return t.connectError(errors.TransportErrorSocketConnectFailure, fmt.Sprintf("failed to connect to %s", ep), err)
	}

	t.fd = fd
	t.log.Debug("connected", zap.Stringer("endpoint", ep))
	return nil
}

func (t *SysTransport) connectError(kind errors.TransportError, msg string, err error) error {
	t.log.Debug("connect failed", zap.Stringer("endpoint", t.ep), zap.Error(err))
	if se, ok := err.(*errors.SocketError); ok {
		return se
	}
	return errors.NewTransportError(kind, msg, err)
}

// Disconnect closes the socket if one is open. It never fails.
func (t *SysTransport) Disconnect() {
	if !t.Connected() {
		return
	}
	closeSocket(t.fd)
	t.fd = invalidSocket
	t.rb.reset()
	t.log.Debug("disconnected", zap.Stringer("endpoint", t.ep))
}

// Destroy disconnects and releases backend resources such as an
// io_uring instance. The transport cannot be reused afterwards.
func (t *SysTransport) Destroy() {
	t.Disconnect()
	if err := t.backend.close(); err != nil {
		t.log.Debug("backend close failed", zap.Error(err))
	}
}

// Write sends all of data. There is no deadline unless WithWriteTimeout
// was given: a peer that stops reading stalls Write once the kernel send
// buffer is full.
func (t *SysTransport) Write(data []byte) error {
	if !t.Connected() {
		return errors.NewTransportError(errors.TransportErrorNotConnected, "write on disconnected transport", errBadHandle)
	}

	for ofs := 0; ofs < len(data); {
		n, err := t.backend.send(t.fd, data[ofs:])
		switch {
		case err != nil && (wouldBlock(err) || interrupted(err)):
			if werr := waitReady(t.fd, waitWrite, t.opts.writeTimeout); werr != nil {
				return t.ioError(errors.TransportErrorSocketWriteFailure, "wait for send buffer", werr)
			}
			continue
		case err != nil:
			return t.ioError(errors.TransportErrorSocketWriteFailure, "write failed", err)
		case n <= 0:
			return errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "send made no progress", io.ErrShortWrite)
		}
		ofs += n
	}
	return nil
}

// ReadText reads until terminator appears in the received stream and
// returns everything up to and including it. Bytes received past the
// terminator stay buffered for the next read. The timeout applies to
// each underlying read, so a peer that keeps trickling data without the
// terminator keeps ReadText waiting. An empty terminator matches as
// soon as any data is buffered and returns an empty slice.
func (t *SysTransport) ReadText(terminator []byte, timeout time.Duration) ([]byte, error) {
	if !t.Connected() {
		return nil, errors.NewTransportError(errors.TransportErrorNotConnected, "read on disconnected transport", errBadHandle)
	}

	out := make([]byte, 0, t.rb.capacity())
	for {
		if t.rb.empty() {
			if err := t.fill(t.rb.capacity(), timeout); err != nil {
				return nil, err
			}
		}

		// Search from far enough back to catch a terminator split
		// across two fills.
		prev := len(out)
		out = append(out, t.rb.bytes()...)
		from := prev
		if len(terminator) > 1 {
			from = max(prev-(len(terminator)-1), 0)
		}
		if i := bytes.Index(out[from:], terminator); i >= 0 {
			end := from + i + len(terminator)
			t.rb.consume(end - prev)
			return out[:end:end], nil
		}
		t.rb.reset()
	}
}

// ReadBinary reads exactly expectedSize bytes. Bytes left buffered by an
// earlier ReadText are returned first.
func (t *SysTransport) ReadBinary(expectedSize int, timeout time.Duration) ([]byte, int, error) {
	if !t.Connected() {
		return nil, 0, errors.NewTransportError(errors.TransportErrorNotConnected, "read on disconnected transport", errBadHandle)
	}
	if expectedSize < 0 {
		return nil, 0, errors.NewInvalidArgumentError(fmt.Sprintf("negative read size %d", expectedSize))
	}

	// expectedSize may come from the peer; grow with the data instead of
	// reserving it up front.
	out := make([]byte, 0, min(expectedSize, t.rb.capacity()))
	for len(out) < expectedSize {
		if t.rb.empty() {
			if err := t.fill(min(t.rb.capacity(), expectedSize-len(out)), timeout); err != nil {
				return nil, 0, err
			}
		}
		n := min(t.rb.pos, expectedSize-len(out))
		out = append(out, t.rb.bytes()[:n]...)
		t.rb.consume(n)
	}
	return out, len(out), nil
}

// fill performs one timeout-bounded read of at most n bytes into the
// empty read-ahead buffer.
func (t *SysTransport) fill(n int, timeout time.Duration) error {
	got, err := t.readOnce(t.rb.data[:n], timeout)
	if err != nil {
		return err
	}
	t.rb.pos = got
	if ce := t.log.Check(zap.DebugLevel, "read"); ce != nil {
		ce.Write(zap.Int("bytes", got))
	}
	return nil
}

// readOnce waits for read readiness and issues a single receive. A
// zero-byte receive means the peer closed the connection.
func (t *SysTransport) readOnce(p []byte, timeout time.Duration) (int, error) {
	for {
		if err := waitReady(t.fd, waitRead, timeout); err != nil {
			return 0, t.ioError(errors.TransportErrorSocketReadFailure, "wait for data", err)
		}

		n, err := t.backend.recv(t.fd, p)
		switch {
		case err != nil && (wouldBlock(err) || interrupted(err)):
			// Spurious readiness; wait again.
			continue
		case err != nil:
			return 0, t.ioError(errors.TransportErrorSocketReadFailure, "read failed", err)
		case n == 0:
			return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
		}
		return n, nil
	}
}

// ioError classifies a raw error from a wait or a system call.
func (t *SysTransport) ioError(kind errors.TransportError, msg string, err error) error {
	if se, ok := err.(*errors.SocketError); ok {
		return se
	}
	switch {
	case err == errTimedOut:
		return errors.NewTransportError(errors.TransportErrorTimeout, msg, err)
	case isPeerReset(err):
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, msg, err)
	}
	return errors.NewTransportError(kind, msg, err)
}
