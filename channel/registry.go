package channel

import (
	"github.com/plexusrt/plexus/internal/generic"
)

// Registry tracks the live channel instances of a node, for the admin
// surface and for draining on shutdown.
type Registry struct {
	channels generic.SyncMap[string, *Channel]
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Track registers the channel and untracks it automatically once it
// reaches its terminal state.
func (r *Registry) Track(ch *Channel) {
	r.channels.Store(ch.ID(), ch)

	go func() {
		<-ch.Done()
		r.channels.Delete(ch.ID())
	}()
}

// List returns the currently tracked channels.
func (r *Registry) List() []*Channel {
	var out []*Channel

	r.channels.Range(func(_ string, ch *Channel) bool {
		out = append(out, ch)
		return true
	})

	return out
}

// DrainAll initiates a graceful drain on every tracked channel.
func (r *Registry) DrainAll() {
	r.channels.Range(func(_ string, ch *Channel) bool {
		ch.Drain()
		return true
	})
}
