/*
Package knaster builds and executes real-time signal-processing graphs.

Concept

The package splits all work between two roles:

	Control - builds and edits the graph, may allocate and block;
	Audio - renders blocks, never allocates, locks or blocks.

Any goroutine may play the control role, calls are serialized internally.
Exactly one goroutine plays the audio role by calling Runner.ProcessBlock.
The two sides share nothing but lock-free queues: edits never pause the
audio thread and the audio thread never reaches back into the graph.

Graphs and nodes

A graph is created with fixed rates and io shape:

	g, r, err := knaster.New(knaster.Config{
		SampleRate: 44100,
		BlockSize:  64,
		Inputs:     0,
		Outputs:    2,
	})

Nodes wrap unit generators, small Process-callback components defined in
the ugen package. They are added with Push and wired with the Connect
family:

	osc, _ := g.Push(ugen.NewSine(440, 0.5))
	amp, _ := g.Push(ugen.NewGain(1))
	g.Connect(osc, 0, amp, 0)
	g.ConnectOutput(amp, 0, 0)
	g.ConnectOutput(amp, 0, 1)

Connections are additive: wiring a second source into an occupied input
mixes both through an implicit adder instead of replacing the edge. The
Replace variants overwrite. Feedback edges read their source with one block
of delay, which is how cycles are expressed.

Commit and generations

Edits change only the control-side model. Commit compiles the model into an
immutable generation, a flat execution plan with all buffers resolved, and
hands it to the audio role:

	err := g.Commit()

The audio role installs the new generation at a block boundary and returns
the old one for reclamation. Nodes removed from the graph are destroyed
only after the audio role provably moved past the last plan referencing
them.

Parameters

Parameter changes are scheduled, not applied directly:

	g.Schedule(amp, "gain", knaster.Value(0.5), knaster.AfterBlocks(10))

Changes apply at block boundaries once their condition holds: immediately,
at an absolute frame, or when an external Token is set. Nodes may also
expose audio-rate parameters, driven per sample by another node's output
through ConnectParam.

Rendering

Runner.ProcessBlock renders one block at a time and is driven by the
caller: the device package plays a runner through portaudio, the render
package bounces it to wav or mp3 files, and Subgraph embeds one graph
inside another as a node.
*/
package knaster
