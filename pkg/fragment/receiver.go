package fragment

import (
	"errors"
	"time"

	"github.com/driftlane/netchan/pkg/message"
)

// DiscardAfter is how long a reassembly may sit incomplete before Cleanup
// evicts it.
const DiscardAfter = 3 * time.Second

// DefaultMaxPending bounds the number of concurrent in-flight reassemblies
// per Receiver, as defense in depth against a peer opening many partial
// messages without ever completing them.
const DefaultMaxPending = 1024

// ErrInvalidFragment is returned when a fragment's NumFragments disagrees
// with an already in-flight reassembly for the same MessageID, or when its
// FragmentIdx is out of range.
var ErrInvalidFragment = errors.New("fragment: invalid fragment for in-flight reassembly")

type reassembly struct {
	numFragments uint8
	received     *bitset
	slots        [][]byte
	receivedN    int
	lastUpdated  time.Time
}

// Receiver reassembles fragments into complete payloads. It is owned
// exclusively by one channel receiver and is not safe for concurrent use:
// each connection drives its receivers from a single goroutine, so no
// internal locking is needed here.
type Receiver struct {
	MaxPending int
	incoming   map[message.MessageID]*reassembly
}

// NewReceiver builds a Receiver with DefaultMaxPending in-flight reassemblies.
func NewReceiver() *Receiver {
	return &Receiver{
		MaxPending: DefaultMaxPending,
		incoming:   make(map[message.MessageID]*reassembly),
	}
}

// Receive intakes one fragment at time now. It returns the reassembled
// payload once every fragment of its message has arrived, nil otherwise.
// Duplicate fragments are idempotent: re-delivering an already-seen
// fragment neither errors nor double-counts.
func (r *Receiver) Receive(f message.FragmentData, now time.Time) ([]byte, error) {
	if f.NumFragments == 0 || f.FragmentIdx >= f.NumFragments {
		return nil, ErrInvalidFragment
	}

	entry, ok := r.incoming[f.MessageID]
	if !ok {
		if len(r.incoming) >= r.MaxPending {
			return nil, nil // drop silently; defense in depth, not a protocol error
		}
		entry = &reassembly{
			numFragments: f.NumFragments,
			received:     newBitset(f.NumFragments),
			slots:        make([][]byte, f.NumFragments),
			lastUpdated:  now,
		}
		r.incoming[f.MessageID] = entry
	} else if entry.numFragments != f.NumFragments {
		delete(r.incoming, f.MessageID)
		return nil, ErrInvalidFragment
	}

	entry.lastUpdated = now
	if !entry.received.get(f.FragmentIdx) {
		entry.received.set(f.FragmentIdx)
		entry.slots[f.FragmentIdx] = f.Bytes
		entry.receivedN++
	}

	if entry.receivedN < int(entry.numFragments) {
		return nil, nil
	}

	delete(r.incoming, f.MessageID)
	total := 0
	for _, slot := range entry.slots {
		total += len(slot)
	}
	out := make([]byte, 0, total)
	for _, slot := range entry.slots {
		out = append(out, slot...)
	}
	return out, nil
}

// Cleanup evicts any reassembly whose last fragment arrived before
// cutoff — callers pass now.Add(-DiscardAfter).
func (r *Receiver) Cleanup(cutoff time.Time) {
	for id, entry := range r.incoming {
		if entry.lastUpdated.Before(cutoff) {
			delete(r.incoming, id)
		}
	}
}

// Pending reports the number of in-flight reassemblies, for tests and metrics.
func (r *Receiver) Pending() int {
	return len(r.incoming)
}
