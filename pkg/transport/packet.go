package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/driftlane/netchan/pkg/message"
)

// DefaultMTU is the datagram size PackDatagram bin-packs containers
// against. Kept comfortably under the typical 1500-byte Ethernet MTU once
// IP/UDP headers are accounted for.
const DefaultMTU = 1400

// ErrDatagramFull names the condition of no more containers fitting within
// mtu. PackDatagram does not return it: it reports a full datagram by
// consuming fewer than len(items) items.
var ErrDatagramFull = errors.New("transport: datagram is full")

// channelHeaderLen is the per-container channel-key prefix: a registry
// index (see pkg/registry), written as a single byte since a deployment
// realistically registers far fewer than 256 channels.
const channelHeaderLen = 1

// PackDatagram bin-packs as many (channelIndex, container) pairs as fit
// within mtu bytes into one outbound buffer, each framed with a 1-byte
// channel-index header ahead of the container's own wire encoding. It
// returns the packed buffer and the number of items consumed from items;
// the caller re-invokes PackDatagram on the remainder to build the next
// datagram.
func PackDatagram(items []ChannelItem, mtu int) ([]byte, int) {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	buf := make([]byte, 0, mtu)
	consumed := 0
	for _, item := range items {
		encoded := item.Container.Encode()
		need := channelHeaderLen + len(encoded)
		if len(buf)+need > mtu {
			break
		}
		if item.ChannelIndex > 255 {
			break // channel index doesn't fit the 1-byte header; caller error
		}
		buf = append(buf, byte(item.ChannelIndex))
		buf = append(buf, encoded...)
		consumed++
	}
	return buf, consumed
}

// ChannelItem pairs one outbound container with the registry index of the
// channel it belongs to.
type ChannelItem struct {
	ChannelIndex int
	Container    message.MessageContainer
}

// UnpackDatagram splits an inbound datagram back into (channelIndex,
// container) pairs, the inverse of PackDatagram.
func UnpackDatagram(buf []byte) ([]ChannelItem, error) {
	var items []ChannelItem
	offset := 0
	for offset < len(buf) {
		if offset+channelHeaderLen > len(buf) {
			return nil, fmt.Errorf("transport: truncated channel header at offset %d", offset)
		}
		channelIndex := int(buf[offset])
		offset += channelHeaderLen

		container, n, err := decodeOne(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("transport: decode container at offset %d: %w", offset, err)
		}
		items = append(items, ChannelItem{ChannelIndex: channelIndex, Container: container})
		offset += n
	}
	return items, nil
}

// decodeOne decodes exactly one container from the front of data and
// reports how many bytes it consumed, so UnpackDatagram can advance past
// it to the next channel-framed item in the same datagram.
func decodeOne(data []byte) (message.MessageContainer, int, error) {
	if len(data) < 1 {
		return message.MessageContainer{}, 0, errors.New("message: empty buffer")
	}
	const flagFragment = 1 << 0
	const flagHasID = 1 << 1

	if data[0]&flagFragment != 0 {
		const headerLen = 1 + 2 + 1 + 1 + 4
		if len(data) < headerLen {
			return message.MessageContainer{}, 0, errors.New("message: truncated fragment header")
		}
		length := binary.LittleEndian.Uint32(data[5:9])
		total := headerLen + int(length)
		if len(data) < total {
			return message.MessageContainer{}, 0, errors.New("message: truncated fragment payload")
		}
		c, err := message.Decode(data[:total])
		return c, total, err
	}

	offset := 1
	if data[0]&flagHasID != 0 {
		offset += 2
	}
	if len(data) < offset+4 {
		return message.MessageContainer{}, 0, errors.New("message: truncated single length")
	}
	length := binary.LittleEndian.Uint32(data[offset:])
	total := offset + 4 + int(length)
	if len(data) < total {
		return message.MessageContainer{}, 0, errors.New("message: truncated single payload")
	}
	c, err := message.Decode(data[:total])
	return c, total, err
}
