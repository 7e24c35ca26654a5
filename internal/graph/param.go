package graph

import (
	"math"
	"sync/atomic"
)

// Param is a live-mutable node parameter. Its base value is stored
// atomically and may be set from any goroutine while the graph renders.
type Param struct {
	name     string
	owner    *node
	bits     atomic.Uint64
	min, max float64

	// render-side state, guarded by the context mutex
	mod       *ModulationLink
	smoothing float64
	current   float64
	values    [Quantum]float64
}

func newParam(owner *node, name string, value, lo, hi float64) *Param {
	p := &Param{name: name, owner: owner, min: lo, max: hi}
	p.Set(value)
	p.current = p.Value()
	owner.params = append(owner.params, p)
	return p
}

func (p *Param) Name() string {
	return p.name
}

// Value returns the base value, without modulation.
func (p *Param) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set stores a new base value clamped to the parameter's range.
func (p *Param) Set(v float64) {
	p.bits.Store(math.Float64bits(math.Max(p.min, math.Min(p.max, v))))
}

// SetSmoothing makes the rendered value glide toward the base value by
// coeff per sample instead of jumping. Zero disables smoothing.
func (p *Param) SetSmoothing(coeff float64) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	p.smoothing = math.Max(0, math.Min(1, coeff))
}

// modulated reports whether an oscillator currently drives the parameter.
func (p *Param) modulated() bool {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.mod != nil
}

func (p *Param) compute(c *Context, frames int) {
	target := p.Value()
	var mod []float64
	var depth float64
	if p.mod != nil {
		mod = c.pull(p.mod.Source, frames)
		depth = p.mod.Depth
	}

	for i := 0; i < frames; i++ {
		v := target
		if p.smoothing > 0 {
			p.current += (target - p.current) * p.smoothing
			v = p.current
		} else {
			p.current = target
		}
		if mod != nil {
			v += depth * mod[i]
		}
		p.values[i] = math.Max(p.min, math.Min(p.max, v))
	}
}
