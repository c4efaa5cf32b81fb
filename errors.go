package knaster

import "errors"

var (
	// ErrNodeNotFound is returned when an id does not resolve to a live node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrWrongGraph is returned when an id was issued by a different graph.
	ErrWrongGraph = errors.New("node belongs to a different graph")
	// ErrInputOutOfRange is returned when a node input index is invalid.
	ErrInputOutOfRange = errors.New("input out of range")
	// ErrOutputOutOfRange is returned when a node output index is invalid.
	ErrOutputOutOfRange = errors.New("output out of range")
	// ErrGraphInputOutOfRange is returned when a graph input channel is invalid.
	ErrGraphInputOutOfRange = errors.New("graph input out of range")
	// ErrGraphOutputOutOfRange is returned when a graph output channel is invalid.
	ErrGraphOutputOutOfRange = errors.New("graph output out of range")
	// ErrParamNotFound is returned when a parameter name does not exist on a node.
	ErrParamNotFound = errors.New("parameter not found")
	// ErrParamOutOfRange is returned when a parameter index is invalid.
	ErrParamOutOfRange = errors.New("parameter out of range")
	// ErrAudioRateUnsupported is returned when a parameter edge targets a node
	// that cannot consume audio-rate parameters.
	ErrAudioRateUnsupported = errors.New("audio-rate parameters unsupported")
	// ErrSmoothingUnsupported is returned when a smoothing change targets a
	// node that cannot smooth parameters.
	ErrSmoothingUnsupported = errors.New("smoothing unsupported")
	// ErrImmortalNode is returned when removing a node marked immortal.
	ErrImmortalNode = errors.New("node is immortal")
	// ErrCycle is returned by Commit when nodes read each other through
	// plain edges. Cycles are expressed with feedback edges.
	ErrCycle = errors.New("cycle without a feedback edge")
	// ErrQueueFull is returned when a control-to-audio queue cannot accept
	// more work; commit or schedule again after the audio role catches up.
	ErrQueueFull = errors.New("queue full")
	// ErrNoChange is returned when a schedule carries neither a value nor a
	// smoothing change.
	ErrNoChange = errors.New("no change scheduled")
	// ErrClosed is returned when using a graph after Close.
	ErrClosed = errors.New("graph is closed")
	// ErrInvalidConfig is returned when graph rates or shape are invalid.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrSingleUseReused is returned on repeated use of a single use component.
	ErrSingleUseReused = errors.New("single use reused")
)
