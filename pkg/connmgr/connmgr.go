// Package connmgr owns a set of registry.Connections and ticks each one
// on its own goroutine once per server frame, bounded by
// golang.org/x/sync/errgroup so a panic/error on one connection's tick
// surfaces cleanly instead of leaking a goroutine or wedging its peers.
//
// This does not change the single-threaded-per-connection contract of the
// channel core: each Connection is still ticked exclusively by the one
// goroutine connmgr assigns it for that frame — it only fans the
// per-connection ticks out concurrently, stopping the whole frame cleanly
// if any one connection's tick fails.
package connmgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/driftlane/netchan/pkg/logging"
	"github.com/driftlane/netchan/pkg/registry"
	"go.uber.org/zap"
)

// ConnID names one managed connection.
type ConnID string

// Manager owns a set of connections, each keyed by ConnID, and drives
// their per-frame Tick concurrently.
type Manager struct {
	mu    sync.RWMutex
	conns map[ConnID]*registry.Connection
}

// New builds an empty Manager.
func New() *Manager {
	return &Manager{conns: make(map[ConnID]*registry.Connection)}
}

// Add registers a connection under id. Replaces any existing connection
// under the same id.
func (m *Manager) Add(id ConnID, conn *registry.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[id] = conn
}

// Remove drops a connection, e.g. on disconnect.
func (m *Manager) Remove(id ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

// Get returns the connection registered under id, if any.
func (m *Manager) Get(id ConnID) (*registry.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[id]
	return c, ok
}

// Len reports how many connections are currently managed.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// TickResult is one connection's outbound contribution to a frame.
type TickResult struct {
	ID       ConnID
	Outbound []registry.Outbound
}

// TickAll advances every managed connection by delta concurrently, one
// goroutine per connection, bounded by ctx. If any connection's Tick
// panics, a deferred recover in its goroutine converts the panic into an
// error, which errgroup uses to cancel ctx for the others and which is
// returned here; a well-behaved Tick never panics,
// so this is a containment backstop, not the expected path.
func (m *Manager) TickAll(ctx context.Context, delta time.Duration) ([]TickResult, error) {
	m.mu.RLock()
	ids := make([]ConnID, 0, len(m.conns))
	conns := make([]*registry.Connection, 0, len(m.conns))
	for id, c := range m.conns {
		ids = append(ids, id)
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	results := make([]TickResult, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range ids {
		i := i
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("connmgr: tick panicked for connection %q: %v", ids[i], r)
				}
			}()
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			out := conns[i].Tick(delta)
			results[i] = TickResult{ID: ids[i], Outbound: out}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logging.Error("connmgr: tick failed", zap.Error(err))
		return nil, err
	}
	return results, nil
}
