package channel

import "github.com/driftlane/netchan/pkg/message"

// AckSource is implemented by receivers whose mode requires acknowledging
// every accepted message-id/fragment-id back to the sender (the two
// reliable variants). The transport layer drains these and folds them into
// its outbound packet-ack bookkeeping.
type AckSource interface {
	DrainAcks() []message.MessageAck
}
