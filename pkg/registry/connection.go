package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/channel/receivers"
	"github.com/driftlane/netchan/pkg/channel/senders"
	"github.com/driftlane/netchan/pkg/message"
)

// Connection owns one sender and one receiver per registered channel,
// exclusively — nothing outside the owning goroutine may touch a
// Connection's channel state. ID identifies the connection for logging and
// transport-level routing.
type Connection struct {
	ID         uuid.UUID
	fromClient bool

	registry  *Registry
	senderOf   map[ChannelKey]channel.Sender
	receiverOf map[ChannelKey]channel.Receiver
}

// NewConnection instantiates a sender/receiver pair for every channel in
// r, sized by each channel's registered settings. fromClient identifies
// which side of the declared direction this endpoint represents.
func (r *Registry) NewConnection(fromClient bool) *Connection {
	c := &Connection{
		ID:         uuid.New(),
		fromClient: fromClient,
		registry:   r,
		senderOf:   make(map[ChannelKey]channel.Sender, len(r.order)),
		receiverOf: make(map[ChannelKey]channel.Receiver, len(r.order)),
	}
	for _, key := range r.order {
		settings := r.byKey[key].settings
		c.senderOf[key] = newSender(settings)
		c.receiverOf[key] = newReceiver(settings)
	}
	return c
}

func newSender(s channel.Settings) channel.Sender {
	switch s.Mode {
	case channel.UnorderedUnreliable:
		return senders.NewUnorderedUnreliable(s.FragmentSize)
	case channel.SequencedUnreliable:
		return senders.NewSequencedUnreliable(s.FragmentSize)
	case channel.UnorderedReliable:
		return senders.NewUnorderedReliable(s.Reliable, s.FragmentSize)
	case channel.OrderedReliable:
		return senders.NewOrderedReliable(s.Reliable, s.FragmentSize)
	default:
		panic(fmt.Sprintf("registry: unknown channel mode %d", s.Mode))
	}
}

func newReceiver(s channel.Settings) channel.Receiver {
	switch s.Mode {
	case channel.UnorderedUnreliable:
		return receivers.NewUnorderedUnreliable()
	case channel.SequencedUnreliable:
		return receivers.NewSequencedUnreliable()
	case channel.UnorderedReliable:
		return receivers.NewUnorderedReliable()
	case channel.OrderedReliable:
		return receivers.NewOrderedReliable()
	default:
		panic(fmt.Sprintf("registry: unknown channel mode %d", s.Mode))
	}
}

// Send buffers bytes for sending on key, enforcing the channel's declared
// direction.
func (c *Connection) Send(key ChannelKey, bytes []byte) error {
	settings, ok := c.registry.SettingsFor(key)
	if !ok {
		return fmt.Errorf("registry: unknown channel key %q", key)
	}
	if !settings.Direction.Allows(c.fromClient) {
		return channel.ErrDirectionViolation
	}
	return c.senderOf[key].BufferSend(bytes)
}

// Recv feeds an inbound container to key's receiver.
func (c *Connection) Recv(key ChannelKey, container message.MessageContainer) error {
	r, ok := c.receiverOf[key]
	if !ok {
		return fmt.Errorf("registry: unknown channel key %q", key)
	}
	return r.BufferRecv(container)
}

// ReadMessage pops the next deliverable message from key's receiver.
func (c *Connection) ReadMessage(key ChannelKey) (message.SingleData, bool) {
	r, ok := c.receiverOf[key]
	if !ok {
		return message.SingleData{}, false
	}
	return r.ReadMessage()
}

// NotifyDelivered informs key's sender that ack has reached the peer.
func (c *Connection) NotifyDelivered(key ChannelKey, ack message.MessageAck) error {
	s, ok := c.senderOf[key]
	if !ok {
		return fmt.Errorf("registry: unknown channel key %q", key)
	}
	return s.NotifyMessageDelivered(ack)
}

// DrainAcks returns any pending delivery acks key's receiver has
// accumulated (only meaningful for reliable channels).
func (c *Connection) DrainAcks(key ChannelKey) []message.MessageAck {
	r, ok := c.receiverOf[key]
	if !ok {
		return nil
	}
	src, ok := r.(channel.AckSource)
	if !ok {
		return nil
	}
	return src.DrainAcks()
}

// Outbound is one channel's contribution to an outgoing packet.
type Outbound struct {
	Key       ChannelKey
	Singles   []message.SingleData
	Fragments []message.FragmentData
}

// Tick advances every owned sender/receiver by delta, runs each sender's
// collect pass, and returns whatever is now ready to send across every
// channel with something to send. This is the one entry point a transport
// driver needs per tick; the per-channel Send/Recv/ReadMessage/
// NotifyDelivered methods above remain available for finer-grained use.
func (c *Connection) Tick(delta time.Duration) []Outbound {
	var out []Outbound
	for _, key := range c.registry.order {
		s := c.senderOf[key]
		s.Update(delta)
		s.CollectMessagesToSend()
		if !s.HasMessagesToSend() {
			continue
		}
		singles, fragments := s.SendPacket()
		out = append(out, Outbound{Key: key, Singles: singles, Fragments: fragments})
	}
	for _, r := range c.receiverOf {
		r.Update(delta)
	}
	return out
}
