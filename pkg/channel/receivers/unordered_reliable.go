package receivers

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// UnorderedReliableReceiver delivers every distinct message-id exactly
// once, in whatever order it arrives, and re-acks duplicates so a sender
// that never saw the first ack can still stop retransmitting.
type UnorderedReliableReceiver struct {
	reassembler *fragment.Receiver
	delivered   map[wireid.ID]struct{}

	out  []message.SingleData
	acks []message.MessageAck
	now  time.Time
}

var _ channel.Receiver = (*UnorderedReliableReceiver)(nil)
var _ channel.AckSource = (*UnorderedReliableReceiver)(nil)

// NewUnorderedReliable builds an UnorderedReliableReceiver.
func NewUnorderedReliable() *UnorderedReliableReceiver {
	return &UnorderedReliableReceiver{
		reassembler: fragment.NewReceiver(),
		delivered:   make(map[wireid.ID]struct{}),
	}
}

func (r *UnorderedReliableReceiver) BufferRecv(c message.MessageContainer) error {
	switch c.Kind {
	case message.KindSingle:
		id := *c.Single.ID
		r.acks = append(r.acks, message.AckForSingle(id))
		r.intake(id, c.Single)
		return nil
	case message.KindFragment:
		r.acks = append(r.acks, message.AckForFragment(c.Fragment.MessageID, c.Fragment.FragmentIdx))
		bytes, err := r.reassembler.Receive(c.Fragment, r.now)
		if err != nil {
			return err
		}
		if bytes != nil {
			id := c.Fragment.MessageID
			r.intake(id, message.NewSingleData(id, bytes))
		}
		return nil
	default:
		return nil
	}
}

func (r *UnorderedReliableReceiver) intake(id wireid.ID, s message.SingleData) {
	if _, dup := r.delivered[id]; dup {
		return // duplicate delivery after the first: silently absorbed, already re-acked above
	}
	r.delivered[id] = struct{}{}
	r.out = append(r.out, s)
}

func (r *UnorderedReliableReceiver) ReadMessage() (message.SingleData, bool) {
	if len(r.out) == 0 {
		return message.SingleData{}, false
	}
	next := r.out[0]
	r.out = r.out[1:]
	return next, true
}

// DrainAcks returns and clears the acks accumulated since the last call.
func (r *UnorderedReliableReceiver) DrainAcks() []message.MessageAck {
	acks := r.acks
	r.acks = nil
	return acks
}

func (r *UnorderedReliableReceiver) Update(delta time.Duration) {
	r.now = r.now.Add(delta)
	r.reassembler.Cleanup(r.now.Add(-channel.DefaultDiscardAfter))
}
