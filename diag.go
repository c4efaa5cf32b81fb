package knaster

type (
	// DiagKind classifies an audio-side incident.
	DiagKind uint8

	// Diagnostic is one audio-side incident. The audio role cannot fail
	// loudly, so it reports through a queue the control side drains.
	Diagnostic struct {
		Kind DiagKind
		// Node is set when the incident concerns a specific node.
		Node NodeID
		// Param is the parameter index for event incidents.
		Param int
		// Frame is the absolute frame of the block that reported.
		Frame uint64
	}
)

const (
	// DiagEventEvicted: the pending change list was full and the oldest
	// change was dropped to make room.
	DiagEventEvicted DiagKind = iota + 1
	// DiagDepartedTarget: a change came due for a node that was removed.
	DiagDepartedTarget
	// DiagGenerationParked: the return queue was full, a retired plan is
	// parked on the overflow shelf until the next return.
	DiagGenerationParked
	// DiagGenerationDropped: the overflow shelf was occupied, a retired
	// plan reference was dropped. Reclamation safety is unaffected.
	DiagGenerationDropped
	// DiagBadBlockShape: ProcessBlock was called with buffers of the wrong
	// shape, the affected channels rendered silent.
	DiagBadBlockShape
)

func (k DiagKind) String() string {
	switch k {
	case DiagEventEvicted:
		return "event evicted"
	case DiagDepartedTarget:
		return "departed target"
	case DiagGenerationParked:
		return "generation parked"
	case DiagGenerationDropped:
		return "generation dropped"
	case DiagBadBlockShape:
		return "bad block shape"
	default:
		return "unknown"
	}
}

// DrainDiagnostics empties the diagnostic queue, logging and returning what
// the audio role reported since the last drain.
func (g *Graph) DrainDiagnostics() []Diagnostic {
	g.mu.Lock()
	defer g.mu.Unlock()
	var drained []Diagnostic
	for {
		d, ok := g.diags.TryPop()
		if !ok {
			break
		}
		g.log.Info("audio diagnostic:", d.Kind, d.Node, "frame", d.Frame)
		drained = append(drained, d)
	}
	return drained
}
