//go:build unix

package transport

import (
	"golang.org/x/sys/unix"
)

const invalidSocket = -1

var (
	errTimedOut  error = unix.ETIMEDOUT
	errBadHandle error = unix.EBADF
)

func openStream() (int, error) {
	return unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
}

func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

func setNoDelay(fd int) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
}

// startConnect issues a non-blocking connect. pending is true when the
// handshake is still in progress and the caller must wait for write
// readiness.
func startConnect(fd int, ep Endpoint) (pending bool, err error) {
	sa := &unix.SockaddrInet4{Port: int(ep.Port), Addr: ep.IP}
	for {
		err = unix.Connect(fd, sa)
		switch err {
		case nil:
			return false, nil
		case unix.EINTR:
			continue
		case unix.EINPROGRESS, unix.EAGAIN:
			return true, nil
		default:
			return false, err
		}
	}
}

// socketError returns the pending SO_ERROR of fd, or nil.
func socketError(fd int) error {
	soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if soerr != 0 {
		return unix.Errno(soerr)
	}
	return nil
}

func closeSocket(fd int) {
	_ = unix.Close(fd)
}

func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

func interrupted(err error) bool {
	return err == unix.EINTR
}

func isPeerReset(err error) bool {
	return err == unix.ECONNRESET || err == unix.EPIPE
}

// syscallBackend performs recv/send with plain system calls.
type syscallBackend struct{}

func (syscallBackend) kind() BackendKind { return BackendSyscall }

func (syscallBackend) recv(fd int, p []byte) (int, error) {
	n, _, err := unix.Recvfrom(fd, p, 0)
	return n, err
}

func (syscallBackend) send(fd int, p []byte) (int, error) {
	return unix.SendmsgN(fd, p, nil, nil, 0)
}

func (syscallBackend) close() error { return nil }
