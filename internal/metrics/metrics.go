package metrics

import "sync/atomic"

// Registry is a handle of application counters, passed by reference to the
// components that bump them. Counters can be zeroed as a unit, which is what
// the demo reset endpoint relies on.
type Registry struct {
	postsCreated     atomic.Int64
	follows          atomic.Int64
	unfollows        atomic.Int64
	eventsPublished  atomic.Int64
	eventsConsumed   atomic.Int64
	timelineRequests atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) IncPostsCreated()         { r.postsCreated.Add(1) }
func (r *Registry) IncFollows()              { r.follows.Add(1) }
func (r *Registry) IncUnfollows()            { r.unfollows.Add(1) }
func (r *Registry) AddEventsPublished(n int) { r.eventsPublished.Add(int64(n)) }
func (r *Registry) IncEventsConsumed()       { r.eventsConsumed.Add(1) }
func (r *Registry) IncTimelineRequests()     { r.timelineRequests.Add(1) }

// Snapshot returns the current counter values keyed by name.
func (r *Registry) Snapshot() map[string]int64 {
	return map[string]int64{
		"postsCreated":     r.postsCreated.Load(),
		"follows":          r.follows.Load(),
		"unfollows":        r.unfollows.Load(),
		"eventsPublished":  r.eventsPublished.Load(),
		"eventsConsumed":   r.eventsConsumed.Load(),
		"timelineRequests": r.timelineRequests.Load(),
	}
}

// ResetAll zeroes every counter.
func (r *Registry) ResetAll() {
	r.postsCreated.Store(0)
	r.follows.Store(0)
	r.unfollows.Store(0)
	r.eventsPublished.Store(0)
	r.eventsConsumed.Store(0)
	r.timelineRequests.Store(0)
}
