package senders

import "github.com/driftlane/netchan/pkg/channel"

// OrderedReliableSender is a ReliableSender paired with an
// OrderedReliableReceiver on the other end, which delivers strictly in id
// order. The sender side needs nothing beyond ReliableSender.
type OrderedReliableSender struct {
	*ReliableSender
}

var _ channel.Sender = (*OrderedReliableSender)(nil)

// NewOrderedReliable builds an OrderedReliableSender.
func NewOrderedReliable(settings channel.ReliableSettings, fragmentSize int) *OrderedReliableSender {
	return &OrderedReliableSender{ReliableSender: NewReliableSender(settings, fragmentSize)}
}
