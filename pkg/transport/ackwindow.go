package transport

import (
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// PacketID identifies one outbound datagram, independently of the
// MessageId space any channel assigns inside it. It wraps the same way.
type PacketID = wireid.ID

// AckWindow is a concrete packet-level ack protocol: a sliding-window
// record of which MessageAcks rode in each sent datagram, so that when the
// peer acks a PacketID the transport can fan that out into the right
// channel senders' notify_message_delivered calls.
type AckWindow struct {
	// sent maps an outstanding PacketID to the (channelIndex, ack) pairs
	// that datagram carried.
	sent map[PacketID][]SentAck

	nextPacketID PacketID
}

// SentAck is one message's contribution to a sent datagram, tagged with
// the registry channel index it belongs to so AckDatagram can route the
// delivery notification to the right sender.
type SentAck struct {
	ChannelIndex int
	Ack          message.MessageAck
}

// NewAckWindow builds an empty AckWindow.
func NewAckWindow() *AckWindow {
	return &AckWindow{sent: make(map[PacketID][]SentAck)}
}

// RecordSent assigns the next PacketID to a just-sent datagram and records
// the acks it carried, returning the assigned id so the caller can stamp
// it into the datagram's header.
func (w *AckWindow) RecordSent(acks []SentAck) PacketID {
	id := w.nextPacketID
	w.nextPacketID = w.nextPacketID.Next()
	if len(acks) > 0 {
		w.sent[id] = acks
	}
	return id
}

// AckDatagram reports the acks that datagram id carried, removing it from
// the window. Acking the same id twice (a duplicate peer ack) returns nil
// the second time — already delivered, nothing left to notify.
func (w *AckWindow) AckDatagram(id PacketID) []SentAck {
	acks, ok := w.sent[id]
	if !ok {
		return nil
	}
	delete(w.sent, id)
	return acks
}

// Outstanding reports how many sent datagrams are still awaiting an ack,
// for tests and metrics.
func (w *AckWindow) Outstanding() int {
	return len(w.sent)
}
