// Package fragment splits oversized messages into numbered FragmentData
// slices and reassembles them on the receiving side, with time-based
// discard of abandoned in-flight reassemblies.
package fragment

import (
	"fmt"

	"github.com/driftlane/netchan/pkg/message"
)

// MaxFragments is the hard cap on fragments per message: FragmentIdx and
// NumFragments are single bytes on the wire.
const MaxFragments = 255

// ErrMessageTooLarge is returned when a payload needs more than
// MaxFragments fragments at the configured fragment size.
type ErrMessageTooLarge struct {
	Size         int
	FragmentSize int
}

func (e *ErrMessageTooLarge) Error() string {
	return fmt.Sprintf("fragment: payload of %d bytes exceeds the %d-fragment cap at fragment size %d",
		e.Size, MaxFragments, e.FragmentSize)
}

// Sender splits a payload into FragmentData slices of at most FragmentSize
// bytes each.
type Sender struct {
	FragmentSize int
}

// NewSender builds a Sender with the given per-fragment payload size.
func NewSender(fragmentSize int) *Sender {
	if fragmentSize <= 0 {
		panic("fragment: fragmentSize must be positive")
	}
	return &Sender{FragmentSize: fragmentSize}
}

// Build splits bytes into ceil(len/FragmentSize) fragments numbered
// 0..NumFragments-1, all tagged with id. Returns ErrMessageTooLarge if that
// would exceed MaxFragments.
func (s *Sender) Build(id message.MessageID, bytes []byte) ([]message.FragmentData, error) {
	numFragments := (len(bytes) + s.FragmentSize - 1) / s.FragmentSize
	if numFragments == 0 {
		numFragments = 1 // an empty payload still gets one (empty) fragment
	}
	if numFragments > MaxFragments {
		return nil, &ErrMessageTooLarge{Size: len(bytes), FragmentSize: s.FragmentSize}
	}

	fragments := make([]message.FragmentData, numFragments)
	for i := 0; i < numFragments; i++ {
		start := i * s.FragmentSize
		end := start + s.FragmentSize
		if end > len(bytes) {
			end = len(bytes)
		}
		fragments[i] = message.FragmentData{
			MessageID:    id,
			FragmentIdx:  message.FragmentID(i),
			NumFragments: uint8(numFragments),
			Bytes:        bytes[start:end],
		}
	}
	return fragments, nil
}
