package channel

import (
	"time"

	"github.com/driftlane/netchan/pkg/message"
)

// Sender buffers application payloads and decides what goes into the next
// outgoing packet. Every mode variant (pkg/channel/senders) implements it.
type Sender interface {
	// BufferSend queues bytes for eventual transmission. Returns
	// *fragment.ErrMessageTooLarge if bytes cannot be fragmented within the
	// configured size.
	BufferSend(bytes []byte) error

	// CollectMessagesToSend decides, based on current_time, which buffered
	// or unacked items belong in the next send_packet call.
	CollectMessagesToSend()

	// SendPacket drains and returns the to-send queues. Ownership of the
	// returned items transfers to the caller.
	SendPacket() ([]message.SingleData, []message.FragmentData)

	// NotifyMessageDelivered informs a reliable sender that ack has reached
	// the peer. No-op on unreliable senders.
	NotifyMessageDelivered(ack message.MessageAck) error

	// HasMessagesToSend reports whether the to-send queues are non-empty.
	HasMessagesToSend() bool

	// Update advances current_time by delta.
	Update(delta time.Duration)
}

// Receiver intakes inbound containers and yields messages to the
// application per its mode's ordering/dedup rules.
type Receiver interface {
	// BufferRecv intakes one container, running fragment reassembly and
	// mode-specific ordering/dedup logic.
	BufferRecv(c message.MessageContainer) error

	// ReadMessage pops the next deliverable message, if any.
	ReadMessage() (message.SingleData, bool)

	// Update advances current_time by delta and runs time-based
	// maintenance (fragment reassembly discard).
	Update(delta time.Duration)
}
