// Package receivers implements the four channel.Receiver mode variants:
// UnorderedUnreliable, SequencedUnreliable, UnorderedReliable and
// OrderedReliable.
package receivers

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
)

// UnorderedUnreliableReceiver delivers messages in arrival order with no
// dedup and no gap detection; fragments are reassembled first.
type UnorderedUnreliableReceiver struct {
	reassembler *fragment.Receiver
	out         []message.SingleData
	now         time.Time
}

var _ channel.Receiver = (*UnorderedUnreliableReceiver)(nil)

// NewUnorderedUnreliable builds an UnorderedUnreliableReceiver.
func NewUnorderedUnreliable() *UnorderedUnreliableReceiver {
	return &UnorderedUnreliableReceiver{reassembler: fragment.NewReceiver()}
}

func (r *UnorderedUnreliableReceiver) BufferRecv(c message.MessageContainer) error {
	switch c.Kind {
	case message.KindSingle:
		r.out = append(r.out, c.Single)
		return nil
	case message.KindFragment:
		bytes, err := r.reassembler.Receive(c.Fragment, r.now)
		if err != nil {
			return err
		}
		if bytes != nil {
			r.out = append(r.out, message.NewSingleDataNoID(bytes))
		}
		return nil
	default:
		return nil
	}
}

func (r *UnorderedUnreliableReceiver) ReadMessage() (message.SingleData, bool) {
	if len(r.out) == 0 {
		return message.SingleData{}, false
	}
	next := r.out[0]
	r.out = r.out[1:]
	return next, true
}

func (r *UnorderedUnreliableReceiver) Update(delta time.Duration) {
	r.now = r.now.Add(delta)
	r.reassembler.Cleanup(r.now.Add(-channel.DefaultDiscardAfter))
}
