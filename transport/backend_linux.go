//go:build linux

package transport

func newBackend(kind BackendKind) (ioBackend, error) {
	switch kind {
	case BackendIOUring:
		return newIOUringBackend()
	case BackendRing:
		return newRingBackend()
	default:
		return syscallBackend{}, nil
	}
}
