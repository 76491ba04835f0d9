package transport

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nczempin/sysock/errors"
)

// DefaultBufferSize is the read-ahead buffer capacity used when
// WithBufferSize is not given.
const DefaultBufferSize = 4096

// BackendKind selects how the single non-blocking recv/send after a
// readiness wait is issued.
type BackendKind int

const (
	// BackendSyscall issues recv/send directly.
	BackendSyscall BackendKind = iota
	// BackendIOUring submits recv/send through github.com/iceber/iouring-go.
	BackendIOUring
	// BackendRing submits read/write through github.com/godzie44/go-uring.
	BackendRing
)

func (k BackendKind) String() string {
	switch k {
	case BackendSyscall:
		return "syscall"
	case BackendIOUring:
		return "iouring"
	case BackendRing:
		return "ring"
	default:
		return fmt.Sprintf("backend(%d)", int(k))
	}
}

// ParseBackendKind is the inverse of BackendKind.String.
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "syscall":
		return BackendSyscall, nil
	case "iouring", "io_uring":
		return BackendIOUring, nil
	case "ring", "uring":
		return BackendRing, nil
	default:
		return BackendSyscall, errors.NewInvalidArgumentError(fmt.Sprintf("unknown backend %q", s))
	}
}

type options struct {
	bufferSize   int
	backend      BackendKind
	logger       *zap.Logger
	writeTimeout time.Duration
	noDelay      bool
}

func defaultOptions() options {
	return options{
		bufferSize:   DefaultBufferSize,
		backend:      BackendSyscall,
		writeTimeout: -1,
		noDelay:      true,
	}
}

// Option configures a SysTransport.
type Option func(*options)

// WithBufferSize sets the read-ahead buffer capacity. Values below 1 are
// ignored.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithBackend selects the I/O backend.
func WithBackend(kind BackendKind) Option {
	return func(o *options) {
		o.backend = kind
	}
}

// WithLogger sets the logger used by this transport instead of the
// package logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWriteTimeout bounds each wait for send-buffer space during Write.
// A negative value, the default, waits without a deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// WithNoDelay toggles TCP_NODELAY on connect. It is on by default.
func WithNoDelay(on bool) Option {
	return func(o *options) {
		o.noDelay = on
	}
}
