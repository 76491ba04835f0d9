package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nczempin/sysock/errors"
)

// Transport defines the interface for framed socket I/O.
// Implementations are owned by a single caller and are not safe for
// concurrent use.
type Transport interface {
	// Connect establishes a connection to ep, waiting at most timeout
	// for the handshake to complete.
	Connect(ep Endpoint, timeout time.Duration) error

	// Write sends all of data to the connected peer.
	Write(data []byte) error

	// ReadText reads until terminator has been received and returns the
	// bytes up to and including it. Each underlying read waits at most
	// timeout.
	ReadText(terminator []byte, timeout time.Duration) ([]byte, error)

	// ReadBinary reads exactly expectedSize bytes. The returned size is
	// always len(data).
	ReadBinary(expectedSize int, timeout time.Duration) ([]byte, int, error)

	// Disconnect closes the connection. It is safe to call repeatedly.
	Disconnect()
}

// Endpoint is a pre-resolved IPv4 address and port.
// IP is in network byte order, Port in host order.
type Endpoint struct {
	IP   [4]byte
	Port uint16
}

// NewEndpoint builds an Endpoint from an IPv4 address.
func NewEndpoint(ip net.IP, port uint16) (Endpoint, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return Endpoint{}, errors.NewInvalidArgumentError(fmt.Sprintf("not an IPv4 address: %v", ip))
	}
	var ep Endpoint
	copy(ep.IP[:], ip4)
	ep.Port = port
	return ep, nil
}

// ParseEndpoint parses a literal "a.b.c.d:port". Host names are rejected;
// resolving them is the caller's job.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, errors.NewInvalidArgumentError(fmt.Sprintf("invalid endpoint %q: %v", s, err))
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, errors.NewInvalidArgumentError(fmt.Sprintf("invalid port %q", portStr))
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return Endpoint{}, errors.NewInvalidArgumentError(fmt.Sprintf("invalid IPv4 address %q", host))
	}
	return NewEndpoint(ip, uint16(port))
}

func (ep Endpoint) String() string {
	return net.JoinHostPort(net.IP(ep.IP[:]).String(), strconv.Itoa(int(ep.Port)))
}
