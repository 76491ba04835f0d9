//go:build linux

package transport

import (
	"github.com/iceber/iouring-go"
	"github.com/nczempin/sysock/errors"
)

// iouringBackend submits recv/send through an io_uring instance owned by
// one transport. The socket stays non-blocking, so a request submitted
// after a readiness wait completes without parking in the kernel.
type iouringBackend struct {
	iour *iouring.IOURing
}

func newIOUringBackend() (*iouringBackend, error) {
	// Create io_uring instance with queue depth of 32
	iour, err := iouring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	return &iouringBackend{iour: iour}, nil
}

func (b *iouringBackend) kind() BackendKind { return BackendIOUring }

func (b *iouringBackend) recv(fd int, p []byte) (int, error) {
	return b.submit(iouring.Recv(fd, p, 0), "recv")
}

func (b *iouringBackend) send(fd int, p []byte) (int, error) {
	return b.submit(iouring.Send(fd, p, 0), "send")
}

func (b *iouringBackend) submit(prep iouring.PrepRequest, op string) (int, error) {
	ch := make(chan iouring.Result, 1)
	if _, err := b.iour.SubmitRequest(prep, ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+op+" request",
			err,
		)
	}
	result := <-ch
	return result.ReturnInt()
}

func (b *iouringBackend) close() error {
	if b.iour == nil {
		return nil
	}
	err := b.iour.Close()
	b.iour = nil
	return err
}
