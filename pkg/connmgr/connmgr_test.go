package connmgr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlane/netchan/pkg/channel"
	"github.com/driftlane/netchan/pkg/registry"
)

func buildRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register("chat", channel.NewSettings(channel.OrderedReliable, channel.Bidirectional)))
	return r
}

func TestTickAllRunsEveryConnectionConcurrently(t *testing.T) {
	r := buildRegistry(t)
	m := New()
	for i := 0; i < 8; i++ {
		conn := r.NewConnection(true)
		require.NoError(t, conn.Send("chat", []byte("hello")))
		m.Add(ConnID(string(rune('a'+i))), conn)
	}
	require.Equal(t, 8, m.Len())

	results, err := m.TickAll(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, results, 8)
	for _, res := range results {
		require.NotEmpty(t, res.Outbound)
	}
}

func TestAddReplacesAndRemoveDrops(t *testing.T) {
	r := buildRegistry(t)
	m := New()
	conn := r.NewConnection(true)
	m.Add("a", conn)
	_, ok := m.Get("a")
	require.True(t, ok)

	m.Remove("a")
	_, ok = m.Get("a")
	require.False(t, ok)
}

func TestTickAllRespectsCancelledContext(t *testing.T) {
	r := buildRegistry(t)
	m := New()
	m.Add("a", r.NewConnection(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.TickAll(ctx, time.Second)
	require.Error(t, err)
}
