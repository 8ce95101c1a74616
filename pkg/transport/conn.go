// Package transport provides the collaborators the channel core relies on
// but does not implement itself: a Conn abstraction over a lossy datagram
// medium with two concrete implementations (in-memory loopback and real
// UDP), datagram bin-packing of multiple channel containers into one
// frame, and a minimal sliding-window packet-ack layer that turns peer
// acknowledgement of whole datagrams into per-message
// notify_message_delivered calls.
package transport

import "errors"

// ErrClosed is returned by LoopbackConn: by ReadDatagram once this end is
// closed and its queue is empty, and by WriteDatagram once the peer end is
// closed. UDPConn returns the net package's own errors instead.
var ErrClosed = errors.New("transport: connection closed")

// Conn is the boundary the channel core's owning connection logic talks
// to: opaque datagrams in, opaque datagrams out. Both LoopbackConn and
// UDPConn implement it.
type Conn interface {
	// WriteDatagram sends one complete datagram. Delivery is not guaranteed;
	// reliability lives above this layer in the channel core.
	WriteDatagram(b []byte) error

	// ReadDatagram blocks until one datagram arrives or the connection closes.
	ReadDatagram() ([]byte, error)

	Close() error
}
