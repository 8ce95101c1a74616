package senders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/message"
)

func TestUnorderedUnreliableSenderHasNoIDs(t *testing.T) {
	s := NewUnorderedUnreliable(1200)
	require.NoError(t, s.BufferSend([]byte("hello")))
	require.True(t, s.HasMessagesToSend())

	singles, frags := s.SendPacket()
	require.Len(t, singles, 1)
	require.Empty(t, frags)
	require.False(t, singles[0].HasID)
	require.False(t, s.HasMessagesToSend())
}

func TestUnorderedUnreliableSenderFragmentsLargePayload(t *testing.T) {
	s := NewUnorderedUnreliable(4)
	require.NoError(t, s.BufferSend([]byte("abcdefgh")))
	singles, frags := s.SendPacket()
	require.Empty(t, singles)
	require.Len(t, frags, 2)
	require.Equal(t, frags[0].MessageID, frags[1].MessageID)
}

func TestSequencedUnreliableSenderAssignsIncreasingIDs(t *testing.T) {
	s := NewSequencedUnreliable(1200)
	require.NoError(t, s.BufferSend([]byte("a")))
	require.NoError(t, s.BufferSend([]byte("b")))
	singles, _ := s.SendPacket()
	require.Len(t, singles, 2)
	require.True(t, singles[0].HasID)
	require.EqualValues(t, 0, *singles[0].ID)
	require.EqualValues(t, 1, *singles[1].ID)
}

// TestReliableSenderResendTiming checks the resend timing table:
// rtt=100ms, factor=1.5, so resend_delay=150ms.
func TestReliableSenderResendTiming(t *testing.T) {
	settings := channel.ReliableSettings{RTTResendFactor: 1.5}
	s := NewReliableSender(settings, 1200)
	s.SetCurrentRTTMillis(100)

	require.NoError(t, s.BufferSend([]byte("payload")))

	// t=0ms
	s.CollectMessagesToSend()
	singles, _ := s.SendPacket()
	require.Len(t, singles, 1)

	// t=100ms: resend_delay (150ms) hasn't elapsed yet.
	s.Update(100 * time.Millisecond)
	s.CollectMessagesToSend()
	singles, _ = s.SendPacket()
	require.Empty(t, singles)

	// t=200ms (100ms further): 150ms has elapsed since last send at t=0ms.
	s.Update(100 * time.Millisecond)
	s.CollectMessagesToSend()
	singles, _ = s.SendPacket()
	require.Len(t, singles, 1)

	require.NoError(t, s.NotifyMessageDelivered(message.AckForSingle(message.MessageID(0))))
	require.Zero(t, s.Unacked())

	// t=400ms: nothing unacked, collect produces nothing.
	s.Update(200 * time.Millisecond)
	s.CollectMessagesToSend()
	singles, _ = s.SendPacket()
	require.Empty(t, singles)
}

func TestReliableSenderFragmentedAckMismatch(t *testing.T) {
	s := NewReliableSender(channel.ReliableSettings{RTTResendFactor: 1.5}, 4)
	require.NoError(t, s.BufferSend([]byte("abcdefgh"))) // splits into 2 fragments

	err := s.NotifyMessageDelivered(message.AckForSingle(message.MessageID(0)))
	require.ErrorIs(t, err, channel.ErrAckMismatch)
}

func TestReliableSenderSingleAckMismatch(t *testing.T) {
	s := NewReliableSender(channel.ReliableSettings{RTTResendFactor: 1.5}, 1200)
	require.NoError(t, s.BufferSend([]byte("small")))

	err := s.NotifyMessageDelivered(message.AckForFragment(message.MessageID(0), 0))
	require.ErrorIs(t, err, channel.ErrAckMismatch)
}

func TestReliableSenderFragmentedAcksAllBeforeRemoval(t *testing.T) {
	s := NewReliableSender(channel.ReliableSettings{RTTResendFactor: 1.5}, 4)
	require.NoError(t, s.BufferSend([]byte("abcdefgh"))) // 2 fragments
	require.Equal(t, 1, s.Unacked())

	require.NoError(t, s.NotifyMessageDelivered(message.AckForFragment(message.MessageID(0), 0)))
	require.Equal(t, 1, s.Unacked()) // still unacked: one fragment remains

	require.NoError(t, s.NotifyMessageDelivered(message.AckForFragment(message.MessageID(0), 0))) // idempotent
	require.Equal(t, 1, s.Unacked())

	require.NoError(t, s.NotifyMessageDelivered(message.AckForFragment(message.MessageID(0), 1)))
	require.Zero(t, s.Unacked())
}

func TestUnorderedAndOrderedReliableSendersShareBehavior(t *testing.T) {
	settings := channel.ReliableSettings{RTTResendFactor: 1.5}
	u := NewUnorderedReliable(settings, 1200)
	o := NewOrderedReliable(settings, 1200)

	require.NoError(t, u.BufferSend([]byte("x")))
	require.NoError(t, o.BufferSend([]byte("x")))
	u.CollectMessagesToSend()
	o.CollectMessagesToSend()
	us, _ := u.SendPacket()
	os, _ := o.SendPacket()
	require.Len(t, us, 1)
	require.Len(t, os, 1)
}
