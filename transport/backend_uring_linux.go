//go:build linux

package transport

import (
	"github.com/godzie44/go-uring/uring"
	"github.com/nczempin/sysock/errors"
)

// ringBackend queues read/write operations on a godzie44/go-uring ring
// and reaps one completion per call.
type ringBackend struct {
	ring *uring.Ring
}

func newRingBackend() (*ringBackend, error) {
	ring, err := uring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	return &ringBackend{ring: ring}, nil
}

func (b *ringBackend) kind() BackendKind { return BackendRing }

// Offsets are ignored for sockets.
func (b *ringBackend) recv(fd int, p []byte) (int, error) {
	return b.do(uring.Read(uintptr(fd), p, 0), "read")
}

func (b *ringBackend) send(fd int, p []byte) (int, error) {
	return b.do(uring.Write(uintptr(fd), p, 0), "write")
}

func (b *ringBackend) do(op uring.Operation, name string) (int, error) {
	if err := b.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue "+name+" request",
			err,
		)
	}
	if _, err := b.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+name+" request",
			err,
		)
	}

	var (
		cqe *uring.CQEvent
		err error
	)
	for {
		cqe, err = b.ring.WaitCQEvents(1)
		if err == nil || !interrupted(err) {
			break
		}
	}
	if err != nil {
		return 0, err
	}
	defer b.ring.SeenCQE(cqe)

	if err := cqe.Error(); err != nil {
		return 0, err
	}
	return int(cqe.Res), nil
}

func (b *ringBackend) close() error {
	if b.ring == nil {
		return nil
	}
	err := b.ring.Close()
	b.ring = nil
	return err
}
