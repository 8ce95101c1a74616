package transport

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/driftlane/netchan/pkg/logging"
	"go.uber.org/zap"
)

// Config carries the addressing and framing limits a UDPConn is built
// from.
type Config struct {
	// ListenAddr is the local address to bind, e.g. ":9000" or "".
	ListenAddr string
	// RemoteAddr is the fixed peer this connection exchanges datagrams
	// with — the channel core is built around one logical connection per
	// peer, not a multiplexing listener.
	RemoteAddr string
	// ReadBufferSize bounds the largest datagram ReadDatagram can return.
	ReadBufferSize int
}

// DefaultReadBufferSize comfortably covers a fragment-sized payload plus
// the datagram and packet-ack headers.
const DefaultReadBufferSize = 2048

// UDPConn is a Conn backed by a real UDP socket fixed to one remote peer:
// a channel connection talks to exactly one peer, so there is no
// multiplexing listener here, just one bound socket and one resolved
// remote address.
type UDPConn struct {
	conn       *net.UDPConn
	remoteAddr *net.UDPAddr
	bufferSize int
}

var _ Conn = (*UDPConn)(nil)

// NewUDPConn binds ListenAddr and resolves RemoteAddr as the fixed peer.
func NewUDPConn(cfg Config) (*UDPConn, error) {
	listenAddr, err := ResolveUDPTarget(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen: %w", err)
	}
	remoteAddr, err := ResolveUDPTarget(cfg.RemoteAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: resolve remote addr: %w", err)
	}

	bufferSize := cfg.ReadBufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultReadBufferSize
	}

	logging.Info("udp transport listening",
		zap.String("local", listenAddr.String()),
		zap.String("remote", remoteAddr.String()))

	return &UDPConn{conn: conn, remoteAddr: remoteAddr, bufferSize: bufferSize}, nil
}

// ResolveUDPTarget resolves an address string that may be an IP:port, a
// bare ":port", or empty (binds all interfaces on an ephemeral port). It
// only accepts literal IPs, not hostnames: a channel connection has
// exactly one fixed peer, so there is no load-balancing concern that would
// call for DNS resolution here.
func ResolveUDPTarget(addr string) (*net.UDPAddr, error) {
	if addr == "" {
		return &net.UDPAddr{IP: net.IPv4zero, Port: 0}, nil
	}
	ap, err := netip.ParseAddrPort(addr)
	if err == nil {
		return net.UDPAddrFromAddrPort(ap), nil
	}
	// Accept ":port" with no host.
	host, port, splitErr := net.SplitHostPort(addr)
	if splitErr != nil {
		return nil, fmt.Errorf("transport: invalid address %q: %w", addr, err)
	}
	if host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return nil, fmt.Errorf("transport: address %q is not a literal IP", addr)
		}
		p, convErr := netip.ParseAddrPort(net.JoinHostPort(ip.String(), port))
		if convErr != nil {
			return nil, fmt.Errorf("transport: invalid port in %q: %w", addr, convErr)
		}
		return net.UDPAddrFromAddrPort(p), nil
	}
	p, convErr := netip.ParseAddrPort(net.JoinHostPort("0.0.0.0", port))
	if convErr != nil {
		return nil, fmt.Errorf("transport: invalid port in %q: %w", addr, convErr)
	}
	return net.UDPAddrFromAddrPort(p), nil
}

func (c *UDPConn) WriteDatagram(b []byte) error {
	_, err := c.conn.WriteToUDP(b, c.remoteAddr)
	return err
}

func (c *UDPConn) ReadDatagram() ([]byte, error) {
	buf := make([]byte, c.bufferSize)
	n, _, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *UDPConn) Close() error {
	return c.conn.Close()
}
