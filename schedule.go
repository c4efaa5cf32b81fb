package knaster

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ErikNatanael/knaster-sub000/ugen"
)

type (
	// Token gates scheduled changes on an external readiness signal. All
	// changes gated on one token apply at the first block boundary after
	// Set, which is how a group of changes lands together.
	Token struct {
		ready atomic.Bool
	}

	condKind  uint8
	eventKind uint8

	condition struct {
		kind  condKind
		frame uint64
		token *Token
	}

	// event is the message crossing to the audio role. Everything is
	// resolved on the control side so applying it never allocates.
	event struct {
		kind      eventKind
		node      *node
		u         ugen.UGen
		sm        ugen.Smoothed
		param     int
		value     float64
		hasValue  bool
		smoothing ugen.Smoothing
		hasSmooth bool
		when      condition
	}

	scheduleMode uint8

	change struct {
		value     float64
		hasValue  bool
		smoothing ugen.Smoothing
		hasSmooth bool
		mode      scheduleMode
		frame     uint64
		blocks    int
		delay     time.Duration
		token     *Token
	}

	// ChangeOption describes one aspect of a scheduled parameter change.
	ChangeOption func(*change)
)

const (
	condNow condKind = iota
	condFrame
	condToken
)

const (
	evParam eventKind = iota
	evRemoveGraph
)

const (
	modeNow scheduleMode = iota
	modeFrame
	modeAfterBlocks
	modeAfterDelay
	modeToken
)

// NewToken returns an unready token.
func NewToken() *Token {
	return &Token{}
}

// Set marks the token ready. Safe from any goroutine, cannot be unset.
func (t *Token) Set() {
	t.ready.Store(true)
}

// Ready reports whether the token was set.
func (t *Token) Ready() bool {
	return t.ready.Load()
}

// Value sets the parameter to v when the change applies.
func Value(v float64) ChangeOption {
	return func(c *change) {
		c.value = v
		c.hasValue = true
	}
}

// WithSmoothing replaces the parameter's smoothing when the change applies,
// before any value carried by the same change.
func WithSmoothing(s ugen.Smoothing) ChangeOption {
	return func(c *change) {
		c.smoothing = s
		c.hasSmooth = true
	}
}

// AtFrame applies the change at the first block boundary at or after the
// absolute frame, never earlier than the frame itself. A frame already in
// the past applies at the next block boundary.
func AtFrame(frame uint64) ChangeOption {
	return func(c *change) {
		c.mode = modeFrame
		c.frame = frame
	}
}

// AfterBlocks applies the change n block boundaries after the most recently
// completed block.
func AfterBlocks(n int) ChangeOption {
	return func(c *change) {
		c.mode = modeAfterBlocks
		c.blocks = n
	}
}

// AfterDelay applies the change once d has elapsed in rendered samples,
// counted from the most recently completed block.
func AfterDelay(d time.Duration) ChangeOption {
	return func(c *change) {
		c.mode = modeAfterDelay
		c.delay = d
	}
}

// WhenReady applies the change at the first block boundary after the token
// is set.
func WhenReady(t *Token) ChangeOption {
	return func(c *change) {
		c.mode = modeToken
		c.token = t
	}
}

// Schedule sends a parameter change to the audio role. Without a timing
// option the change applies at the next block boundary. The target is
// validated here, the audio role only ever receives resolved changes.
func (g *Graph) Schedule(id NodeID, param string, options ...ChangeOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	idx, ok := n.paramIndex(param)
	if !ok {
		return fmt.Errorf("%w: %q on %v", ErrParamNotFound, param, id)
	}
	return g.schedule(n, idx, options)
}

// ScheduleIndex is Schedule addressing the parameter by index.
func (g *Graph) ScheduleIndex(id NodeID, param int, options ...ChangeOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	if param < 0 || param >= len(n.params) {
		return fmt.Errorf("%w: parameter %d of %d on %v", ErrParamOutOfRange, param, len(n.params), id)
	}
	return g.schedule(n, param, options)
}

func (g *Graph) schedule(n *node, idx int, options []ChangeOption) error {
	var c change
	for _, option := range options {
		option(&c)
	}
	if !c.hasValue && !c.hasSmooth {
		return ErrNoChange
	}
	if c.hasSmooth && n.sm == nil {
		return fmt.Errorf("%w: %v", ErrSmoothingUnsupported, n.id)
	}
	ev := event{
		kind:      evParam,
		node:      n,
		u:         n.u,
		sm:        n.sm,
		param:     idx,
		value:     c.value,
		hasValue:  c.hasValue,
		smoothing: c.smoothing,
		hasSmooth: c.hasSmooth,
		when:      g.resolveWhen(c),
	}
	if !g.events.TryPush(ev) {
		return fmt.Errorf("%w: events", ErrQueueFull)
	}
	g.log.Debug("change scheduled", n.id, "param", idx)
	return nil
}

// resolveWhen turns relative timing into an absolute frame using the frame
// count the audio role last published.
func (g *Graph) resolveWhen(c change) condition {
	switch c.mode {
	case modeFrame:
		return condition{kind: condFrame, frame: c.frame}
	case modeAfterBlocks:
		return condition{
			kind:  condFrame,
			frame: g.runner.Frame() + uint64(c.blocks)*uint64(g.cfg.BlockSize),
		}
	case modeAfterDelay:
		samples := uint64(c.delay.Seconds() * float64(g.cfg.SampleRate))
		return condition{kind: condFrame, frame: g.runner.Frame() + samples}
	case modeToken:
		return condition{kind: condToken, token: c.token}
	default:
		return condition{kind: condNow}
	}
}

// RequestRemoval asks the audio role to silence the graph output from the
// given absolute frame on and raise the runner's removal flag. The caller
// driving the runner decides what to do with the flag; a frame of 0 takes
// effect in the next block.
func (g *Graph) RequestRemoval(atFrame uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	ev := event{
		kind: evRemoveGraph,
		when: condition{kind: condFrame, frame: atFrame},
	}
	if !g.events.TryPush(ev) {
		return fmt.Errorf("%w: events", ErrQueueFull)
	}
	g.log.Debug("graph removal requested", "frame", atFrame)
	return nil
}
