//go:build unix

package transport

import (
	"time"

	"golang.org/x/sys/unix"
)

// waitReady blocks until fd is ready for dir or timeout elapses.
// A negative timeout waits without a deadline. Readiness is resolved
// through SO_ERROR so that a writable socket with a failed connect
// reports the connect error.
func waitReady(fd int, dir waitDir, timeout time.Duration) error {
	var events int16
	switch dir {
	case waitRead:
		events = unix.POLLIN
	case waitWrite:
		events = unix.POLLOUT
	case waitError:
		events = unix.POLLPRI
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	for {
		n, err := unix.Poll(fds, pollTimeout(timeout))
		switch {
		case err == unix.EINTR:
			if timeout >= 0 {
				if timeout = time.Until(deadline); timeout < 0 {
					timeout = 0
				}
			}
			continue
		case err != nil:
			return err
		case n == 0:
			return unix.ETIMEDOUT
		case fds[0].Revents&unix.POLLNVAL != 0:
			return unix.EBADF
		}
		return socketError(fd)
	}
}

// pollTimeout converts d to poll(2) milliseconds, rounding up.
func pollTimeout(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > time.Duration(maxPollMillis) {
		return maxPollMillis
	}
	return int(ms)
}

const maxPollMillis = 1<<31 - 1
