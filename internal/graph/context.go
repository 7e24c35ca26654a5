// Package graph is a small pull-model audio graph: sources, filters,
// oscillators and gain stages wired into a single destination sink.
//
// Topology changes and rendering serialize on the context mutex. Parameter
// base values are atomics, so volume and similar controls never wait on the
// render goroutine.
package graph

import (
	"errors"
	"fmt"
	"sync"
)

// Quantum is the number of frames rendered per graph pass. k-rate
// parameters are sampled once per quantum.
const Quantum = 128

var (
	ErrReleased       = errors.New("node released")
	ErrAlreadyStarted = errors.New("node already started")
	ErrStopped        = errors.New("node stopped")
	ErrParamModulated = errors.New("parameter already modulated")
	ErrCycle          = errors.New("connection would create a cycle")
	ErrNoInput        = errors.New("node does not accept input")
	ErrForeignNode    = errors.New("node belongs to another context")
)

// Node is any vertex in the graph.
type Node interface {
	core() *node
	process(in, out []float64)
}

type node struct {
	ctx      *Context
	kind     string
	inputs   []Node
	outputs  []Node
	params   []*Param
	links    []*ModulationLink
	sink     bool
	released bool
	rendered uint64
	in       [Quantum]float64
	out      [Quantum]float64
}

func (n *node) core() *node { return n }

type Context struct {
	mu         sync.Mutex
	sampleRate int
	dest       *destination
	live       map[Node]struct{}
	quantum    uint64
}

func NewContext(sampleRate int) *Context {
	if sampleRate <= 0 {
		panic(fmt.Sprintf("graph: non-positive sample rate %d", sampleRate))
	}
	c := &Context{
		sampleRate: sampleRate,
		live:       make(map[Node]struct{}),
	}
	c.dest = &destination{node: node{ctx: c, kind: "destination", sink: true}}
	return c
}

func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Destination is the sink fed to the output device.
func (c *Context) Destination() Node {
	return c.dest
}

// LiveNodes counts nodes created and not yet released. The destination is
// not counted.
func (c *Context) LiveNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// InputCount reports how many nodes are connected into n.
func (c *Context) InputCount(n Node) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(n.core().inputs)
}

func (c *Context) register(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[n] = struct{}{}
}

// Connect routes src's output into dst. Connecting twice is a no-op.
func (c *Context) Connect(src, dst Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, d := src.core(), dst.core()
	if s.ctx != c || d.ctx != c {
		return ErrForeignNode
	}
	if s.released || d.released {
		return fmt.Errorf("connect %s to %s: %w", s.kind, d.kind, ErrReleased)
	}
	if s.sink {
		return fmt.Errorf("connect from %s: %w", s.kind, ErrCycle)
	}
	switch dst.(type) {
	case *BufferSource, *Oscillator:
		return fmt.Errorf("connect into %s: %w", d.kind, ErrNoInput)
	}
	for _, out := range s.outputs {
		if out == dst {
			return nil
		}
	}
	if src == dst || reaches(dst, src) {
		return fmt.Errorf("connect %s to %s: %w", s.kind, d.kind, ErrCycle)
	}

	s.outputs = append(s.outputs, dst)
	d.inputs = append(d.inputs, src)
	return nil
}

func reaches(from, to Node) bool {
	for _, out := range from.core().outputs {
		if out == to || reaches(out, to) {
			return true
		}
	}
	return false
}

// Disconnect removes every outgoing connection of n, including modulation
// links when n is an oscillator. Disconnecting a detached node is a no-op.
func (c *Context) Disconnect(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnect(n)
}

func (c *Context) disconnect(n Node) {
	b := n.core()
	for _, out := range b.outputs {
		o := out.core()
		o.inputs = without(o.inputs, n)
	}
	b.outputs = nil
	for _, l := range b.links {
		l.Target.mod = nil
		l.removed = true
	}
	b.links = nil
}

// Release detaches n from the graph in both directions, stops it if it
// plays, and drops any modulation aimed at its parameters. It is
// idempotent.
func (c *Context) Release(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := n.core()
	if b.released || b.sink {
		return
	}
	c.disconnect(n)
	for _, in := range b.inputs {
		i := in.core()
		i.outputs = without(i.outputs, n)
	}
	b.inputs = nil
	for _, p := range b.params {
		if l := p.mod; l != nil {
			l.detach()
		}
	}
	if s, ok := n.(interface{ halt() }); ok {
		s.halt()
	}
	b.released = true
	delete(c.live, n)
}

func without(nodes []Node, n Node) []Node {
	out := nodes[:0]
	for _, x := range nodes {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}

// Render fills out with mono frames pulled from the destination.
func (c *Context) Render(out []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for off := 0; off < len(out); off += Quantum {
		frames := min(Quantum, len(out)-off)
		c.quantum++
		copy(out[off:off+frames], c.pull(c.dest, frames))
	}
}

func (c *Context) pull(n Node, frames int) []float64 {
	b := n.core()
	out := b.out[:frames]
	if b.rendered == c.quantum {
		return out
	}
	b.rendered = c.quantum

	in := b.in[:frames]
	clear(in)
	for _, src := range b.inputs {
		for i, s := range c.pull(src, frames) {
			in[i] += s
		}
	}
	for _, p := range b.params {
		p.compute(c, frames)
	}
	n.process(in, out)
	return out
}

type destination struct {
	node
}

func (d *destination) process(in, out []float64) {
	copy(out, in)
}
