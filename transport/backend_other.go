//go:build !linux

package transport

import "github.com/nczempin/sysock/errors"

func newBackend(kind BackendKind) (ioBackend, error) {
	if kind == BackendIOUring || kind == BackendRing {
		return nil, errors.NewTransportError(
			errors.TransportErrorUnsupported,
			kind.String()+" backend requires linux",
			nil,
		)
	}
	return syscallBackend{}, nil
}
