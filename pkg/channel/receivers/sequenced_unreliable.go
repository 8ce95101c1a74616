package receivers

import (
	"time"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/fragment"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/wireid"
)

// SequencedUnreliableReceiver drops any arrival that is not strictly newer
// (cyclic order) than the most recent one it has delivered.
type SequencedUnreliableReceiver struct {
	reassembler    *fragment.Receiver
	haveMostRecent bool
	mostRecentID   wireid.ID

	out []message.SingleData
	now time.Time
}

var _ channel.Receiver = (*SequencedUnreliableReceiver)(nil)

// NewSequencedUnreliable builds a SequencedUnreliableReceiver.
func NewSequencedUnreliable() *SequencedUnreliableReceiver {
	return &SequencedUnreliableReceiver{reassembler: fragment.NewReceiver()}
}

func (r *SequencedUnreliableReceiver) BufferRecv(c message.MessageContainer) error {
	switch c.Kind {
	case message.KindSingle:
		r.intake(*c.Single.ID, c.Single)
		return nil
	case message.KindFragment:
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

func (r *SequencedUnreliableReceiver) intake(id wireid.ID, s message.SingleData) {
	if r.haveMostRecent && !wireid.Greater(id, r.mostRecentID) {
		return // stale: not strictly newer than what we already delivered
	}
	r.mostRecentID = id
	r.haveMostRecent = true
	r.out = append(r.out, s)
}

func (r *SequencedUnreliableReceiver) ReadMessage() (message.SingleData, bool) {
	if len(r.out) == 0 {
		return message.SingleData{}, false
	}
	next := r.out[0]
	r.out = r.out[1:]
	return next, true
}

func (r *SequencedUnreliableReceiver) Update(delta time.Duration) {
	r.now = r.now.Add(delta)
	r.reassembler.Cleanup(r.now.Add(-channel.DefaultDiscardAfter))
}
