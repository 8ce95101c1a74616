package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftlane/netchan/pkg/message"
)

func TestAckWindowRecordsAndResolvesAcks(t *testing.T) {
	w := NewAckWindow()
	id := w.RecordSent([]SentAck{
		{ChannelIndex: 0, Ack: message.AckForSingle(message.MessageID(1))},
		{ChannelIndex: 1, Ack: message.AckForFragment(message.MessageID(2), 0)},
	})
	require.Equal(t, 1, w.Outstanding())

	acks := w.AckDatagram(id)
	require.Len(t, acks, 2)
	require.Zero(t, w.Outstanding())
}

func TestAckWindowDuplicateAckIsNoop(t *testing.T) {
	w := NewAckWindow()
	id := w.RecordSent([]SentAck{{ChannelIndex: 0, Ack: message.AckForSingle(message.MessageID(1))}})

	require.Len(t, w.AckDatagram(id), 1)
	require.Nil(t, w.AckDatagram(id)) // already removed
}

func TestAckWindowEmptyDatagramNotTracked(t *testing.T) {
	w := NewAckWindow()
	w.RecordSent(nil)
	require.Zero(t, w.Outstanding())
}

func TestAckWindowPacketIDsWrap(t *testing.T) {
	w := NewAckWindow()
	// Advance nextPacketID past the wrap boundary by recording many sends.
	var last PacketID
	for i := 0; i < 70000; i++ {
		last = w.RecordSent([]SentAck{{ChannelIndex: 0, Ack: message.AckForSingle(message.MessageID(0))}})
	}
	require.NotZero(t, w.Outstanding())
	acks := w.AckDatagram(last)
	require.Len(t, acks, 1)
}
