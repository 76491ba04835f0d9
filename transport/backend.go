package transport

// ioBackend performs the single non-blocking recv or send that follows a
// readiness wait. Implementations return raw OS errors.
type ioBackend interface {
	kind() BackendKind
	recv(fd int, p []byte) (int, error)
	send(fd int, p []byte) (int, error)
	close() error
}
