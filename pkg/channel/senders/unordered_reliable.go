package senders

import "github.com/driftlane/netchan/pkg/channel"

// UnorderedReliableSender is a ReliableSender: at-least-once delivery with
// no ordering guarantee on the receiving side. The sending side of
// UnorderedReliable and OrderedReliable is identical; only their receivers
// differ (see pkg/channel/receivers), so both embed the same ReliableSender.
type UnorderedReliableSender struct {
	*ReliableSender
}

var _ channel.Sender = (*UnorderedReliableSender)(nil)

// NewUnorderedReliable builds an UnorderedReliableSender.
func NewUnorderedReliable(settings channel.ReliableSettings, fragmentSize int) *UnorderedReliableSender {
	return &UnorderedReliableSender{ReliableSender: NewReliableSender(settings, fragmentSize)}
}
