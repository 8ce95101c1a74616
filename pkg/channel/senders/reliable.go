package senders

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// fragmentAck tracks delivery of one fragment of a fragmented unacked message.
type fragmentAck struct {
	data     message.FragmentData
	acked    bool
	lastSent *time.Time
}

// unackedMessage is either a whole small message or every fragment of a
// large one, held until the peer acknowledges it (or them).
type unackedMessage struct {
	// single is valid when fragments == nil.
	singleBytes []byte
	singleSent  *time.Time

	fragments []fragmentAck // nil for a Single message
}

func (u *unackedMessage) isFragmented() bool { return u.fragments != nil }

// ReliableSender retransmits every buffered message until explicitly
// acked. UnorderedReliableSender and OrderedReliableSender both embed one;
// they differ only on the receiving side.
type ReliableSender struct {
	settings channel.ReliableSettings

	order  []wireid.ID // unacked message ids, oldest first
	byID   map[wireid.ID]*unackedMessage
	nextID wireid.ID

	singlesToSend   []message.SingleData
	fragmentsToSend []message.FragmentData
	idsToSend       map[message.MessageAck]struct{}

	fragmenter *fragment.Sender

	currentRTTMillis float64
	now              time.Time
}

// NewReliableSender builds a ReliableSender with the given settings,
// splitting payloads above fragmentSize.
func NewReliableSender(settings channel.ReliableSettings, fragmentSize int) *ReliableSender {
	return &ReliableSender{
		settings:   settings,
		byID:       make(map[wireid.ID]*unackedMessage),
		idsToSend:  make(map[message.MessageAck]struct{}),
		fragmenter: fragment.NewSender(fragmentSize),
	}
}

// SetCurrentRTTMillis updates the RTT estimate the resend delay is derived
// from. The transport layer owns RTT measurement; the core only consumes it.
func (s *ReliableSender) SetCurrentRTTMillis(rtt float64) {
	s.currentRTTMillis = rtt
}

func (s *ReliableSender) resendDelay() time.Duration {
	millis := s.settings.RTTResendFactor * s.currentRTTMillis
	return time.Duration(millis) * time.Millisecond
}

func (s *ReliableSender) shouldSend(lastSent *time.Time) bool {
	if lastSent == nil {
		return true
	}
	return s.now.Sub(*lastSent) > s.resendDelay()
}

// BufferSend queues bytes as a new unacked message, assigning it the next
// MessageId, splitting into fragments if bytes exceeds the fragment size.
func (s *ReliableSender) BufferSend(bytes []byte) error {
	id := s.nextID
	s.nextID = s.nextID.Next()

	if len(bytes) <= s.fragmenter.FragmentSize {
		s.byID[id] = &unackedMessage{singleBytes: bytes}
	} else {
		frags, err := s.fragmenter.Build(id, bytes)
		if err != nil {
			return err
		}
		acks := make([]fragmentAck, len(frags))
		for i, f := range frags {
			acks[i] = fragmentAck{data: f}
		}
		s.byID[id] = &unackedMessage{fragments: acks}
	}
	s.order = append(s.order, id)
	return nil
}

// CollectMessagesToSend walks unacked messages oldest-id-first and enqueues
// every fragment/single never sent, or last sent longer than resendDelay
// ago. A per-call dedup set keeps one (id, fragment) pair from being
// enqueued twice within the same collection pass.
func (s *ReliableSender) CollectMessagesToSend() {
	for _, id := range s.order {
		msg, ok := s.byID[id]
		if !ok {
			continue // already acked and removed
		}
		if msg.isFragmented() {
			for i := range msg.fragments {
				f := &msg.fragments[i]
				if f.acked || !s.shouldSend(f.lastSent) {
					continue
				}
				ack := message.AckForFragment(id, f.data.FragmentIdx)
				if _, already := s.idsToSend[ack]; already {
					continue
				}
				s.fragmentsToSend = append(s.fragmentsToSend, f.data.Clone())
				s.idsToSend[ack] = struct{}{}
				sent := s.now
				f.lastSent = &sent
			}
			continue
		}
		if !s.shouldSend(msg.singleSent) {
			continue
		}
		ack := message.AckForSingle(id)
		if _, already := s.idsToSend[ack]; already {
			continue
		}
		s.singlesToSend = append(s.singlesToSend, message.NewSingleData(id, msg.singleBytes))
		s.idsToSend[ack] = struct{}{}
		sent := s.now
		msg.singleSent = &sent
	}
}

// SendPacket drains and returns the to-send queues built by the most
// recent CollectMessagesToSend.
func (s *ReliableSender) SendPacket() ([]message.SingleData, []message.FragmentData) {
	singles, frags := s.singlesToSend, s.fragmentsToSend
	s.singlesToSend, s.fragmentsToSend = nil, nil
	for k := range s.idsToSend {
		delete(s.idsToSend, k)
	}
	return singles, frags
}

// NotifyMessageDelivered removes an acked message, or marks one fragment of
// a fragmented message acked (removing the whole entry once every fragment
// is acked). Returns channel.ErrAckMismatch if ack's fragment shape
// disagrees with the stored message.
func (s *ReliableSender) NotifyMessageDelivered(ack message.MessageAck) error {
	msg, ok := s.byID[ack.MessageID]
	if !ok {
		return nil // already delivered and removed; acks may arrive more than once
	}
	if msg.isFragmented() {
		if !ack.HasFragment {
			return channel.ErrAckMismatch
		}
		if int(ack.FragmentIdx) >= len(msg.fragments) {
			return channel.ErrAckMismatch
		}
		if msg.fragments[ack.FragmentIdx].acked {
			return nil // idempotent
		}
		msg.fragments[ack.FragmentIdx].acked = true
		for i := range msg.fragments {
			if !msg.fragments[i].acked {
				return nil
			}
		}
		s.remove(ack.MessageID)
		return nil
	}
	if ack.HasFragment {
		return channel.ErrAckMismatch
	}
	s.remove(ack.MessageID)
	return nil
}

func (s *ReliableSender) remove(id wireid.ID) {
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *ReliableSender) HasMessagesToSend() bool {
	return len(s.singlesToSend) > 0 || len(s.fragmentsToSend) > 0
}

func (s *ReliableSender) Update(delta time.Duration) {
	s.now = s.now.Add(delta)
}

// Unacked reports the number of messages still awaiting delivery, for
// tests and metrics.
func (s *ReliableSender) Unacked() int {
	return len(s.order)
}
