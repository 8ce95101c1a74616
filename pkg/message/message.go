// Package message defines the channel layer's wire-level message types:
// a complete small message (SingleData), one slice of an oversized message
// (FragmentData), the tagged container over the two (MessageContainer), and
// the delivery-acknowledgement tuple (MessageAck).
//
// Each container begins with a leading flag byte carrying the
// Single/Fragment discriminator and, for Single, the has-id bit;
// multi-byte fields are little-endian; payloads are length-prefixed with a
// 4-byte length.
package message

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/driftlane/netchan/pkg/wireid"
)

// MessageID is the wrapping 16-bit id a reliable/sequenced sender assigns
// to a message on a given channel.
type MessageID = wireid.ID

// FragmentID indexes one fragment of a split message; num_fragments is
// capped at 255, so a byte is always enough.
type FragmentID = uint8

const (
	flagFragment byte = 1 << 0
	flagHasID    byte = 1 << 1
)

// SingleData is a complete, unfragmented message. ID is present iff the
// owning channel mode requires ordering or acknowledgement; unordered
// unreliable messages carry no id.
type SingleData struct {
	ID    *MessageID
	Bytes []byte
	HasID bool
}

// NewSingleData builds a SingleData with an id.
func NewSingleData(id MessageID, bytes []byte) SingleData {
	return SingleData{ID: &id, Bytes: bytes, HasID: true}
}

// NewSingleDataNoID builds a SingleData with no id (unordered-unreliable).
func NewSingleDataNoID(bytes []byte) SingleData {
	return SingleData{Bytes: bytes, HasID: false}
}

// Clone returns a SingleData sharing the underlying byte slice — cheap,
// since the to-send items handed to the transport are just references to
// the canonical bytes a reliable sender retains.
func (s SingleData) Clone() SingleData {
	out := SingleData{Bytes: s.Bytes, HasID: s.HasID}
	if s.ID != nil {
		id := *s.ID
		out.ID = &id
	}
	return out
}

// FragmentData is one slice of a message too large for a single datagram.
// All fragments of one message share MessageID; FragmentIdx < NumFragments.
type FragmentData struct {
	MessageID    MessageID
	FragmentIdx  FragmentID
	NumFragments uint8
	Bytes        []byte
}

// Clone returns a FragmentData sharing the underlying byte slice.
func (f FragmentData) Clone() FragmentData {
	return FragmentData{
		MessageID:    f.MessageID,
		FragmentIdx:  f.FragmentIdx,
		NumFragments: f.NumFragments,
		Bytes:        f.Bytes,
	}
}

// ContainerKind discriminates MessageContainer's two variants.
type ContainerKind uint8

const (
	KindSingle ContainerKind = iota
	KindFragment
)

// MessageContainer is the tagged union a receiver intakes from the
// transport: either a complete Single message or one Fragment.
type MessageContainer struct {
	Kind     ContainerKind
	Single   SingleData
	Fragment FragmentData
}

// SingleContainer wraps a SingleData as a container.
func SingleContainer(s SingleData) MessageContainer {
	return MessageContainer{Kind: KindSingle, Single: s}
}

// FragmentContainer wraps a FragmentData as a container.
func FragmentContainer(f FragmentData) MessageContainer {
	return MessageContainer{Kind: KindFragment, Fragment: f}
}

// MessageAck identifies a single message, or one fragment of a fragmented
// message, for delivery acknowledgement. HasFragment=false acks a whole
// single message; HasFragment=true+FragmentIdx acks one fragment.
//
// The struct is a plain comparable value (no pointer fields) so it can be
// used directly as a map key — a reliable sender's per-collection dedup
// set needs exactly that.
type MessageAck struct {
	MessageID   MessageID
	FragmentIdx FragmentID
	HasFragment bool
}

// AckForSingle builds the ack for a whole single message.
func AckForSingle(id MessageID) MessageAck {
	return MessageAck{MessageID: id}
}

// AckForFragment builds the ack for one fragment of a fragmented message.
func AckForFragment(id MessageID, fragIdx FragmentID) MessageAck {
	return MessageAck{MessageID: id, FragmentIdx: fragIdx, HasFragment: true}
}

// Encode serializes a MessageContainer into its wire format.
func (c MessageContainer) Encode() []byte {
	switch c.Kind {
	case KindSingle:
		return encodeSingle(c.Single)
	case KindFragment:
		return encodeFragment(c.Fragment)
	default:
		panic(fmt.Sprintf("message: unknown container kind %d", c.Kind))
	}
}

func encodeSingle(s SingleData) []byte {
	flag := byte(0)
	headerLen := 1 + 4 // flag byte + 4-byte length prefix
	if s.HasID && s.ID != nil {
		flag |= flagHasID
		headerLen += 2
	}

	buf := make([]byte, headerLen+len(s.Bytes))
	buf[0] = flag
	offset := 1
	if flag&flagHasID != 0 {
		binary.LittleEndian.PutUint16(buf[offset:], uint16(*s.ID))
		offset += 2
	}
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(s.Bytes)))
	offset += 4
	copy(buf[offset:], s.Bytes)
	return buf
}

func encodeFragment(f FragmentData) []byte {
	const headerLen = 1 + 2 + 1 + 1 + 4 // flag, messageID, fragIdx, numFragments, length
	buf := make([]byte, headerLen+len(f.Bytes))
	buf[0] = flagFragment
	binary.LittleEndian.PutUint16(buf[1:3], uint16(f.MessageID))
	buf[3] = f.FragmentIdx
	buf[4] = f.NumFragments
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(f.Bytes)))
	copy(buf[9:], f.Bytes)
	return buf
}

// Decode parses a MessageContainer from the wire. The returned container's
// byte slices alias data — callers that retain the container past the
// lifetime of data must copy it first.
func Decode(data []byte) (MessageContainer, error) {
	if len(data) < 1 {
		return MessageContainer{}, errors.New("message: empty buffer")
	}
	flag := data[0]
	if flag&flagFragment != 0 {
		return decodeFragment(data)
	}
	return decodeSingle(data, flag)
}

func decodeSingle(data []byte, flag byte) (MessageContainer, error) {
	offset := 1
	var id *MessageID
	if flag&flagHasID != 0 {
		if len(data) < offset+2 {
			return MessageContainer{}, errors.New("message: truncated single id")
		}
		v := MessageID(binary.LittleEndian.Uint16(data[offset:]))
		id = &v
		offset += 2
	}
	if len(data) < offset+4 {
		return MessageContainer{}, errors.New("message: truncated single length")
	}
	length := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	if len(data) < offset+int(length) {
		return MessageContainer{}, errors.New("message: truncated single payload")
	}
	s := SingleData{ID: id, HasID: id != nil, Bytes: data[offset : offset+int(length)]}
	return SingleContainer(s), nil
}

func decodeFragment(data []byte) (MessageContainer, error) {
	const headerLen = 1 + 2 + 1 + 1 + 4
	if len(data) < headerLen {
		return MessageContainer{}, errors.New("message: truncated fragment header")
	}
	messageID := MessageID(binary.LittleEndian.Uint16(data[1:3]))
	fragIdx := data[3]
	numFragments := data[4]
	length := binary.LittleEndian.Uint32(data[5:9])
	if len(data) < headerLen+int(length) {
		return MessageContainer{}, errors.New("message: truncated fragment payload")
	}
	f := FragmentData{
		MessageID:    messageID,
		FragmentIdx:  fragIdx,
		NumFragments: numFragments,
		Bytes:        data[headerLen : headerLen+int(length)],
	}
	return FragmentContainer(f), nil
}
