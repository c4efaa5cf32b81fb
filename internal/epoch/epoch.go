// Package epoch tracks generation epochs across the control and audio roles
// and defers resource release until the audio role has provably moved past
// every plan that could still reference the resource.
package epoch

import "sync/atomic"

// Clock is the shared generation counter. The control role allocates an
// epoch for every compiled plan; the audio role publishes the epoch of the
// plan it has installed.
type Clock struct {
	next      atomic.Uint64
	installed atomic.Uint64
}

// NewClock returns a clock with no epoch allocated or installed.
func NewClock() *Clock {
	return &Clock{}
}

// Allocate reserves the next epoch. Control side only.
func (c *Clock) Allocate() uint64 {
	return c.next.Add(1)
}

// Allocated returns the highest epoch handed out so far.
func (c *Clock) Allocated() uint64 {
	return c.next.Load()
}

// Install publishes the epoch of the plan the audio role now runs.
func (c *Clock) Install(e uint64) {
	c.installed.Store(e)
}

// Installed returns the most recently published installed epoch.
func (c *Clock) Installed() uint64 {
	return c.installed.Load()
}

type retiree struct {
	epoch uint64
	free  func()
}

// Reaper holds retired resources until the clock proves they are
// unreachable. A retiring resource is first staged; it is sealed with the
// epoch of the next compiled plan, the first plan that no longer references
// it, and freed once that epoch is installed. Control side only.
type Reaper struct {
	clock    *Clock
	staged   []func()
	sealed   []retiree
	reclaims uint64
}

// NewReaper returns a reaper driven by the given clock.
func NewReaper(c *Clock) *Reaper {
	return &Reaper{clock: c}
}

// Stage registers a resource that the next compiled plan will no longer
// reference. Its free func runs once release is proven safe.
func (r *Reaper) Stage(free func()) {
	r.staged = append(r.staged, free)
}

// Seal tags every staged resource with the epoch of the plan just compiled.
// Called once per commit, after the epoch is allocated.
func (r *Reaper) Seal(e uint64) {
	for _, free := range r.staged {
		r.sealed = append(r.sealed, retiree{epoch: e, free: free})
	}
	r.staged = r.staged[:0]
}

// Reap frees every sealed resource whose epoch has been installed and
// returns how many were freed. Sealed resources are epoch-ordered by
// construction, so the releasable ones form a prefix.
func (r *Reaper) Reap() int {
	installed := r.clock.Installed()
	n := 0
	for n < len(r.sealed) && r.sealed[n].epoch <= installed {
		r.sealed[n].free()
		r.sealed[n].free = nil
		n++
	}
	if n > 0 {
		r.sealed = append(r.sealed[:0], r.sealed[n:]...)
		r.reclaims += uint64(n)
	}
	return n
}

// Pending returns the number of resources not yet freed, staged included.
func (r *Reaper) Pending() int {
	return len(r.staged) + len(r.sealed)
}

// Reclaimed returns the total number of resources freed so far.
func (r *Reaper) Reclaimed() uint64 {
	return r.reclaims
}

// Flush frees everything regardless of epochs. Only valid once the audio
// role is known to have stopped.
func (r *Reaper) Flush() int {
	n := 0
	for _, rt := range r.sealed {
		rt.free()
		n++
	}
	for _, free := range r.staged {
		free()
		n++
	}
	r.sealed = nil
	r.staged = nil
	r.reclaims += uint64(n)
	return n
}
