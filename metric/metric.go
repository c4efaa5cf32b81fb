// Package metric publishes engine activity counters through expvar.
package metric

import (
	"expvar"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
)

const enginesLabel = "knaster.engine"

const (
	// BlockCounter measures number of rendered blocks.
	BlockCounter = "Blocks"
	// FrameCounter measures number of rendered frames.
	FrameCounter = "Frames"
	// PublishCounter measures generations published by commits.
	PublishCounter = "Published"
	// InstallCounter measures generations installed by the audio role.
	InstallCounter = "Installs"
	// ReturnCounter measures retired generations collected back.
	ReturnCounter = "Returned"
	// ReclaimCounter measures removed nodes whose resources were freed.
	ReclaimCounter = "Reclaimed"
	// AppliedCounter measures scheduled changes that were applied.
	AppliedCounter = "EventsApplied"
	// DroppedCounter measures scheduled changes that were dropped.
	DroppedCounter = "EventsDropped"
	// DiagCounter measures diagnostics lost to a full queue.
	DiagCounter = "DiagnosticsDropped"
)

var (
	engines = registry{
		m: make(map[string]*Counters),
	}

	counterNames = []string{
		BlockCounter,
		FrameCounter,
		PublishCounter,
		InstallCounter,
		ReturnCounter,
		ReclaimCounter,
		AppliedCounter,
		DroppedCounter,
		DiagCounter,
	}
)

// Counters is the set of engine activity counters shared by the control
// and audio roles. The audio role bumps them with atomic adds, so reads
// from other goroutines are always safe.
type Counters struct {
	Blocks             atomic.Uint64
	Frames             atomic.Uint64
	Published          atomic.Uint64
	Installs           atomic.Uint64
	Returned           atomic.Uint64
	Reclaimed          atomic.Uint64
	EventsApplied      atomic.Uint64
	EventsDropped      atomic.Uint64
	DiagnosticsDropped atomic.Uint64
}

// New returns counters published under the given engine name. Counters
// already published under that name are returned as is.
func New(name string) *Counters {
	engines.Lock()
	defer engines.Unlock()
	if c, ok := engines.m[name]; ok {
		return c
	}
	c := &Counters{}
	expvar.Publish(key(name, BlockCounter), counter{&c.Blocks})
	expvar.Publish(key(name, FrameCounter), counter{&c.Frames})
	expvar.Publish(key(name, PublishCounter), counter{&c.Published})
	expvar.Publish(key(name, InstallCounter), counter{&c.Installs})
	expvar.Publish(key(name, ReturnCounter), counter{&c.Returned})
	expvar.Publish(key(name, ReclaimCounter), counter{&c.Reclaimed})
	expvar.Publish(key(name, AppliedCounter), counter{&c.EventsApplied})
	expvar.Publish(key(name, DroppedCounter), counter{&c.EventsDropped})
	expvar.Publish(key(name, DiagCounter), counter{&c.DiagnosticsDropped})
	engines.m[name] = c
	return c
}

// Get returns published counter values for the engine name.
func Get(name string) map[string]string {
	m := make(map[string]string)
	for _, n := range counterNames {
		if v := expvar.Get(key(name, n)); v != nil {
			m[n] = v.String()
		}
	}
	return m
}

// GetAll returns counter values for all published engines.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	engines.Lock()
	defer engines.Unlock()
	for name := range engines.m {
		m[name] = Get(name)
	}
	return m
}

type registry struct {
	sync.Mutex
	m map[string]*Counters
}

func key(name, counterName string) string {
	return fmt.Sprintf("%s.%s.%s", enginesLabel, name, counterName)
}

// counter formats an atomic counter as an expvar value.
type counter struct {
	v *atomic.Uint64
}

func (c counter) String() string {
	return strconv.FormatUint(c.v.Load(), 10)
}
