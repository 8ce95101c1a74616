package fragment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlane/netchan/pkg/message"
)

func TestSenderSplitsEvenly(t *testing.T) {
	s := NewSender(4)
	frags, err := s.Build(message.MessageID(1), []byte("abcdefgh"))
	require.NoError(t, err)
	require.Len(t, frags, 2)
	require.Equal(t, uint8(2), frags[0].NumFragments)
	require.Equal(t, []byte("abcd"), frags[0].Bytes)
	require.Equal(t, []byte("efgh"), frags[1].Bytes)
}

func TestSenderSplitsRemainder(t *testing.T) {
	s := NewSender(4)
	frags, err := s.Build(message.MessageID(1), []byte("abcdefghi"))
	require.NoError(t, err)
	require.Len(t, frags, 3)
	require.Equal(t, []byte("i"), frags[2].Bytes)
}

func TestSenderRejectsOversized(t *testing.T) {
	s := NewSender(1)
	_, err := s.Build(message.MessageID(1), make([]byte, MaxFragments+1))
	require.Error(t, err)
	var tooLarge *ErrMessageTooLarge
	require.ErrorAs(t, err, &tooLarge)
}

func TestSenderAcceptsExactCap(t *testing.T) {
	s := NewSender(1)
	frags, err := s.Build(message.MessageID(1), make([]byte, MaxFragments))
	require.NoError(t, err)
	require.Len(t, frags, MaxFragments)
}

func TestReceiverRoundTrip(t *testing.T) {
	s := NewSender(4)
	payload := []byte("hello fragmented world")
	frags, err := s.Build(message.MessageID(9), payload)
	require.NoError(t, err)

	r := NewReceiver()
	now := time.Unix(0, 0)
	var out []byte
	for i, f := range frags {
		got, err := r.Receive(f, now)
		require.NoError(t, err)
		if i < len(frags)-1 {
			require.Nil(t, got)
		} else {
			out = got
		}
	}
	require.Equal(t, payload, out)
	require.Zero(t, r.Pending())
}

func TestReceiverOutOfOrder(t *testing.T) {
	s := NewSender(8)
	payload := []byte("out of order reassembly")
	frags, err := s.Build(message.MessageID(2), payload)
	require.NoError(t, err)

	r := NewReceiver()
	now := time.Unix(0, 0)
	order := []int{2, 0, 1}
	if len(frags) < 3 {
		t.Fatalf("expected at least 3 fragments, got %d", len(frags))
	}
	var out []byte
	for i, idx := range order {
		got, err := r.Receive(frags[idx], now)
		require.NoError(t, err)
		if i < len(order)-1 {
			require.Nil(t, got)
		} else {
			out = got
		}
	}
	require.Equal(t, payload, out)
}

func TestReceiverDuplicateIsIdempotent(t *testing.T) {
	s := NewSender(4)
	frags, err := s.Build(message.MessageID(3), []byte("abcdefgh"))
	require.NoError(t, err)

	r := NewReceiver()
	now := time.Unix(0, 0)
	_, err = r.Receive(frags[0], now)
	require.NoError(t, err)
	_, err = r.Receive(frags[0], now) // duplicate
	require.NoError(t, err)
	require.Equal(t, 1, r.Pending())

	got, err := r.Receive(frags[1], now)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdefgh"), got)
}

func TestReceiverPartialSetProducesNoOutput(t *testing.T) {
	s := NewSender(4)
	frags, err := s.Build(message.MessageID(4), []byte("abcdefgh"))
	require.NoError(t, err)

	r := NewReceiver()
	got, err := r.Receive(frags[0], time.Unix(0, 0))
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, r.Pending())
}

func TestReceiverMismatchedNumFragmentsErrors(t *testing.T) {
	r := NewReceiver()
	now := time.Unix(0, 0)
	_, err := r.Receive(message.FragmentData{MessageID: 5, FragmentIdx: 0, NumFragments: 3, Bytes: []byte("a")}, now)
	require.NoError(t, err)

	_, err = r.Receive(message.FragmentData{MessageID: 5, FragmentIdx: 1, NumFragments: 4, Bytes: []byte("b")}, now)
	require.ErrorIs(t, err, ErrInvalidFragment)
	require.Zero(t, r.Pending())
}

func TestReceiverRejectsOutOfRangeIndex(t *testing.T) {
	r := NewReceiver()
	_, err := r.Receive(message.FragmentData{MessageID: 6, FragmentIdx: 3, NumFragments: 3, Bytes: []byte("a")}, time.Unix(0, 0))
	require.ErrorIs(t, err, ErrInvalidFragment)
}

func TestCleanupEvictsStaleReassembly(t *testing.T) {
	s := NewSender(4)
	frags, err := s.Build(message.MessageID(7), []byte("abcdefgh"))
	require.NoError(t, err)

	r := NewReceiver()
	start := time.Unix(0, 0)
	_, err = r.Receive(frags[0], start)
	require.NoError(t, err)
	require.Equal(t, 1, r.Pending())

	// Still within the window: survives cleanup.
	r.Cleanup(start.Add(DiscardAfter - time.Second).Add(-DiscardAfter))
	require.Equal(t, 1, r.Pending())

	// Past the window: evicted.
	r.Cleanup(start.Add(DiscardAfter + time.Millisecond))
	require.Zero(t, r.Pending())

	// The evicted reassembly started fresh: completing it now requires every
	// fragment again, not just the remainder.
	got, err := r.Receive(frags[1], start.Add(DiscardAfter+time.Millisecond))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMaxPendingBoundsReassemblies(t *testing.T) {
	r := NewReceiver()
	r.MaxPending = 1
	now := time.Unix(0, 0)

	_, err := r.Receive(message.FragmentData{MessageID: 1, FragmentIdx: 0, NumFragments: 2, Bytes: []byte("a")}, now)
	require.NoError(t, err)
	require.Equal(t, 1, r.Pending())

	got, err := r.Receive(message.FragmentData{MessageID: 2, FragmentIdx: 0, NumFragments: 2, Bytes: []byte("b")}, now)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, r.Pending()) // second message dropped, not tracked
}
