package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftlane/netchan/pkg/message"
)

func TestPackUnpackDatagramRoundTrip(t *testing.T) {
	items := []ChannelItem{
		{ChannelIndex: 0, Container: message.SingleContainer(message.NewSingleData(message.MessageID(1), []byte("hello")))},
		{ChannelIndex: 2, Container: message.SingleContainer(message.NewSingleDataNoID([]byte("world")))},
		{ChannelIndex: 1, Container: message.FragmentContainer(message.FragmentData{
			MessageID: message.MessageID(7), FragmentIdx: 0, NumFragments: 2, Bytes: []byte("ab"),
		})},
	}

	buf, consumed := PackDatagram(items, DefaultMTU)
	require.Equal(t, 3, consumed)

	got, err := UnpackDatagram(buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, 0, got[0].ChannelIndex)
	require.Equal(t, message.KindSingle, got[0].Container.Kind)
	require.Equal(t, []byte("hello"), got[0].Container.Single.Bytes)

	require.Equal(t, 2, got[1].ChannelIndex)
	require.False(t, got[1].Container.Single.HasID)

	require.Equal(t, 1, got[2].ChannelIndex)
	require.Equal(t, message.KindFragment, got[2].Container.Kind)
	require.EqualValues(t, 7, got[2].Container.Fragment.MessageID)
}

func TestPackDatagramStopsAtMTU(t *testing.T) {
	items := make([]ChannelItem, 5)
	for i := range items {
		items[i] = ChannelItem{ChannelIndex: 0, Container: message.SingleContainer(message.NewSingleDataNoID([]byte("0123456789")))}
	}

	buf, consumed := PackDatagram(items, 20)
	require.Less(t, consumed, len(items))
	require.LessOrEqual(t, len(buf), 20)
}

func TestUnpackDatagramRejectsTruncatedBuffer(t *testing.T) {
	_, err := UnpackDatagram([]byte{0, 1})
	require.Error(t, err)
}
