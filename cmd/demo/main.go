// Command demo wires the channel core end-to-end: it registers the same
// channels on both a "client" and a "server" Connection, drives a tick,
// bin-packs each side's outbound messages through
// transport.PackDatagram/UnpackDatagram, feeds the result to the peer,
// and prints what each side delivers. It exists to exercise the
// transport collaborators against real registry.Connections end to end.
package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/logging"
	"github.com/driftlane/netchan/pkg/message"
	"github.com/driftlane/netchan/pkg/registry"
	"github.com/driftlane/netchan/pkg/transport"
)

func main() {
	logging.SetLogger(zap.NewExample())
	defer logging.Sync()

	r := registry.New()
	must(r.Register("input", channel.NewSettings(channel.SequencedUnreliable, channel.ClientToServer)))
	must(r.Register("chat", channel.NewSettings(channel.OrderedReliable, channel.Bidirectional)))
	must(r.Register("snapshot", channel.NewSettings(channel.UnorderedUnreliable, channel.ServerToClient)))

	client := r.NewConnection(true)
	server := r.NewConnection(false)

	must(client.Send("input", []byte("move-forward")))
	must(client.Send("chat", []byte("hello from client")))
	must(server.Send("snapshot", []byte("world-state-frame-1")))

	deliver(r, client, server, 50*time.Millisecond)
	deliver(r, server, client, 50*time.Millisecond)

	printDelivered("server", r, server)
	printDelivered("client", r, client)
}

func printDelivered(label string, r *registry.Registry, c *registry.Connection) {
	for _, key := range r.Keys() {
		for {
			msg, ok := c.ReadMessage(key)
			if !ok {
				break
			}
			fmt.Printf("%s received on %q: %s\n", label, key, msg.Bytes)
		}
	}
}

// deliver ticks from, bin-packs its outbound messages into one datagram
// per channel via transport.PackDatagram, unpacks them on the other end
// with transport.UnpackDatagram, and feeds the resulting containers to
// to.Recv — the loopback stand-in for what a real UDPConn round trip does.
func deliver(r *registry.Registry, from, to *registry.Connection, delta time.Duration) {
	ackWindow := transport.NewAckWindow()
	for _, out := range from.Tick(delta) {
		idx, ok := r.IndexOf(out.Key)
		if !ok {
			continue
		}
		var items []transport.ChannelItem
		var sentAcks []transport.SentAck
		for _, s := range out.Singles {
			items = append(items, transport.ChannelItem{ChannelIndex: idx, Container: message.SingleContainer(s)})
			if s.HasID {
				sentAcks = append(sentAcks, transport.SentAck{ChannelIndex: idx, Ack: message.AckForSingle(*s.ID)})
			}
		}
		for _, f := range out.Fragments {
			items = append(items, transport.ChannelItem{ChannelIndex: idx, Container: message.FragmentContainer(f)})
			sentAcks = append(sentAcks, transport.SentAck{ChannelIndex: idx, Ack: message.AckForFragment(f.MessageID, f.FragmentIdx)})
		}
		buf, _ := transport.PackDatagram(items, transport.DefaultMTU)
		ackWindow.RecordSent(sentAcks)

		decoded, err := transport.UnpackDatagram(buf)
		if err != nil {
			logging.Error("demo: failed to unpack datagram", zap.Error(err))
			continue
		}
		for _, item := range decoded {
			key, ok := r.KeyAt(item.ChannelIndex)
			if !ok {
				continue
			}
			must(to.Recv(key, item.Container))
		}
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
