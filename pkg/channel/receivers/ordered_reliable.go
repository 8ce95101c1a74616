package receivers

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// OrderedReliableReceiver delivers exactly one message per id in strict,
// gap-free increasing order, buffering out-of-order arrivals until the
// gap is filled.
type OrderedReliableReceiver struct {
	reassembler  *fragment.Receiver
	nextExpected wireid.ID
	pending      map[wireid.ID]message.SingleData

	out  []message.SingleData
	acks []message.MessageAck
	now  time.Time
}

var _ channel.Receiver = (*OrderedReliableReceiver)(nil)
var _ channel.AckSource = (*OrderedReliableReceiver)(nil)

// NewOrderedReliable builds an OrderedReliableReceiver.
func NewOrderedReliable() *OrderedReliableReceiver {
	return &OrderedReliableReceiver{
		reassembler: fragment.NewReceiver(),
		pending:     make(map[wireid.ID]message.SingleData),
	}
}

func (r *OrderedReliableReceiver) BufferRecv(c message.MessageContainer) error {
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

func (r *OrderedReliableReceiver) intake(id wireid.ID, s message.SingleData) {
	switch {
	case wireid.Less(id, r.nextExpected):
		return // duplicate/stale: already delivered, re-acked above, nothing else to do
	case id == r.nextExpected:
		r.out = append(r.out, s)
		r.nextExpected = r.nextExpected.Next()
		r.drainContiguous()
	default: // id > nextExpected
		if _, dup := r.pending[id]; !dup {
			r.pending[id] = s
		}
	}
}

func (r *OrderedReliableReceiver) drainContiguous() {
	for {
		next, ok := r.pending[r.nextExpected]
		if !ok {
			return
		}
		delete(r.pending, r.nextExpected)
		r.out = append(r.out, next)
		r.nextExpected = r.nextExpected.Next()
	}
}

func (r *OrderedReliableReceiver) ReadMessage() (message.SingleData, bool) {
	if len(r.out) == 0 {
		return message.SingleData{}, false
	}
	next := r.out[0]
	r.out = r.out[1:]
	return next, true
}

// DrainAcks returns and clears the acks accumulated since the last call.
func (r *OrderedReliableReceiver) DrainAcks() []message.MessageAck {
	acks := r.acks
	r.acks = nil
	return acks
}

func (r *OrderedReliableReceiver) Update(delta time.Duration) {
	r.now = r.now.Add(delta)
	r.reassembler.Cleanup(r.now.Add(-channel.DefaultDiscardAfter))
}
