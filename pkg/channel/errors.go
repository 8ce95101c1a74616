package channel

import "errors"

// ErrAckMismatch indicates a delivery notification's fragment shape does
// not match the stored message (single vs. fragmented) — a protocol-layer
// bug or tampering. The transport should log and close the connection.
var ErrAckMismatch = errors.New("channel: ack fragment shape does not match stored message")

// ErrDirectionViolation indicates the application tried to send on a
// channel whose declared direction forbids it from this endpoint.
var ErrDirectionViolation = errors.New("channel: send not permitted in this direction")
