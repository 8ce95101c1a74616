// Package registry associates user-declared channel keys with their
// settings and assigns each one the small wire integer both peers must
// agree on, then instantiates the matching sender/receiver pair for every
// connection.
package registry

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/driftlane/netchan/pkg/channel"
)

// ChannelKey names a channel as the application declares it — e.g.
// "player-input", "world-snapshot".
type ChannelKey string

type entry struct {
	settings channel.Settings
	index    int
}

// Registry is built once at startup before any connection exists. It is
// not safe for concurrent registration; register every channel from one
// goroutine before wiring connections.
type Registry struct {
	order []ChannelKey
	byKey map[ChannelKey]entry
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{byKey: make(map[ChannelKey]entry)}
}

// Pair is one channel declaration for RegisterMany.
type Pair struct {
	Key      ChannelKey
	Settings channel.Settings
}

// Register assigns key the next wire index in registration order. Both
// peers must call Register for the same channels in the same order.
func (r *Registry) Register(key ChannelKey, settings channel.Settings) error {
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("registry: channel key %q already registered", key)
	}
	r.byKey[key] = entry{settings: settings, index: len(r.order)}
	r.order = append(r.order, key)
	return nil
}

// RegisterMany registers every pair in order, combining any failures with
// multierr rather than stopping at the first one — callers get a full
// picture of every bad declaration in one pass.
func (r *Registry) RegisterMany(pairs []Pair) error {
	var errs error
	for _, p := range pairs {
		if err := r.Register(p.Key, p.Settings); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// IndexOf returns the wire integer assigned to key.
func (r *Registry) IndexOf(key ChannelKey) (int, bool) {
	e, ok := r.byKey[key]
	if !ok {
		return 0, false
	}
	return e.index, true
}

// KeyAt returns the channel key assigned to a wire integer, the inverse of
// IndexOf — used to dispatch an inbound container to its receiver.
func (r *Registry) KeyAt(index int) (ChannelKey, bool) {
	if index < 0 || index >= len(r.order) {
		return "", false
	}
	return r.order[index], true
}

// SettingsFor returns the settings registered for key.
func (r *Registry) SettingsFor(key ChannelKey) (channel.Settings, bool) {
	e, ok := r.byKey[key]
	if !ok {
		return channel.Settings{}, false
	}
	return e.settings, true
}

// Keys returns every registered key in registration order.
func (r *Registry) Keys() []ChannelKey {
	out := make([]ChannelKey, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports how many channels are registered.
func (r *Registry) Len() int {
	return len(r.order)
}
