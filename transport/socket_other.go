//go:build !unix

package transport

import (
	"syscall"
	"time"

	"github.com/nczempin/sysock/errors"
)

const invalidSocket = -1

var (
	errTimedOut  error = syscall.ETIMEDOUT
	errBadHandle error = syscall.EBADF
)

var errNoSockets = errors.NewTransportError(
	errors.TransportErrorUnsupported,
	"readiness-polled sockets are not implemented on this platform",
	nil,
)

func openStream() (int, error) { return invalidSocket, errNoSockets }

func setNonblock(int) error { return errNoSockets }

func setNoDelay(int) error { return errNoSockets }

func startConnect(int, Endpoint) (bool, error) { return false, errNoSockets }

func socketError(int) error { return errNoSockets }

func closeSocket(int) {}

func wouldBlock(error) bool { return false }

func interrupted(error) bool { return false }

func isPeerReset(error) bool { return false }

func waitReady(int, waitDir, time.Duration) error { return errNoSockets }

type syscallBackend struct{}

func (syscallBackend) kind() BackendKind { return BackendSyscall }

func (syscallBackend) recv(int, []byte) (int, error) { return 0, errNoSockets }

func (syscallBackend) send(int, []byte) (int, error) { return 0, errNoSockets }

func (syscallBackend) close() error { return nil }
