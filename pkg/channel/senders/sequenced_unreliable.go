package senders

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// SequencedUnreliableSender assigns a monotonically increasing MessageId to
// every payload so the receiver can discard stale arrivals, but retains no
// state past the next send_packet call: there is no resend.
type SequencedUnreliableSender struct {
	fragmenter *fragment.Sender
	nextID     wireid.ID

	singles   []message.SingleData
	fragments []message.FragmentData
}

var _ channel.Sender = (*SequencedUnreliableSender)(nil)

// NewSequencedUnreliable builds a SequencedUnreliableSender splitting
// payloads above fragmentSize.
func NewSequencedUnreliable(fragmentSize int) *SequencedUnreliableSender {
	return &SequencedUnreliableSender{fragmenter: fragment.NewSender(fragmentSize)}
}

func (s *SequencedUnreliableSender) BufferSend(bytes []byte) error {
	id := s.nextID
	s.nextID = s.nextID.Next()

	if len(bytes) <= s.fragmenter.FragmentSize {
		s.singles = append(s.singles, message.NewSingleData(id, bytes))
		return nil
	}
	frags, err := s.fragmenter.Build(id, bytes)
	if err != nil {
		return err
	}
	s.fragments = append(s.fragments, frags...)
	return nil
}

// CollectMessagesToSend is a no-op: nothing is retained to resend.
func (s *SequencedUnreliableSender) CollectMessagesToSend() {}

func (s *SequencedUnreliableSender) SendPacket() ([]message.SingleData, []message.FragmentData) {
	singles, frags := s.singles, s.fragments
	s.singles, s.fragments = nil, nil
	return singles, frags
}

// NotifyMessageDelivered is a no-op: unreliable channels track no acks.
func (s *SequencedUnreliableSender) NotifyMessageDelivered(message.MessageAck) error { return nil }

func (s *SequencedUnreliableSender) HasMessagesToSend() bool {
	return len(s.singles) > 0 || len(s.fragments) > 0
}

// Update is a no-op: this sender tracks no time-dependent state.
func (s *SequencedUnreliableSender) Update(time.Duration) {}
