// Package senders implements the four channel.Sender mode variants:
// UnorderedUnreliable, SequencedUnreliable, UnorderedReliable and
// OrderedReliable. The two reliable variants share a ReliableSender.
package senders

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// UnorderedUnreliableSender never retains state: every buffered payload is
// handed to the transport on the next send_packet and then forgotten.
// Oversized payloads still split into fragments, tagged with a locally
// synthesized MessageId used only to group them at the receiver — it
// carries no ordering meaning.
type UnorderedUnreliableSender struct {
	fragmenter  *fragment.Sender
	nextGroupID wireid.ID

	singles   []message.SingleData
	fragments []message.FragmentData
}

var _ channel.Sender = (*UnorderedUnreliableSender)(nil)

// NewUnorderedUnreliable builds an UnorderedUnreliableSender splitting
// payloads above fragmentSize.
func NewUnorderedUnreliable(fragmentSize int) *UnorderedUnreliableSender {
	return &UnorderedUnreliableSender{fragmenter: fragment.NewSender(fragmentSize)}
}

func (s *UnorderedUnreliableSender) BufferSend(bytes []byte) error {
	if len(bytes) <= s.fragmenter.FragmentSize {
		s.singles = append(s.singles, message.NewSingleDataNoID(bytes))
		return nil
	}
	groupID := s.nextGroupID
	s.nextGroupID = s.nextGroupID.Next()
	frags, err := s.fragmenter.Build(groupID, bytes)
	if err != nil {
		return err
	}
	s.fragments = append(s.fragments, frags...)
	return nil
}

// CollectMessagesToSend is a no-op: nothing is retained to resend.
func (s *UnorderedUnreliableSender) CollectMessagesToSend() {}

func (s *UnorderedUnreliableSender) SendPacket() ([]message.SingleData, []message.FragmentData) {
	singles, frags := s.singles, s.fragments
	s.singles, s.fragments = nil, nil
	return singles, frags
}

// NotifyMessageDelivered is a no-op: unreliable channels track no acks.
func (s *UnorderedUnreliableSender) NotifyMessageDelivered(message.MessageAck) error { return nil }

func (s *UnorderedUnreliableSender) HasMessagesToSend() bool {
	return len(s.singles) > 0 || len(s.fragments) > 0
}

// Update is a no-op: this sender tracks no time-dependent state.
func (s *UnorderedUnreliableSender) Update(time.Duration) {}
