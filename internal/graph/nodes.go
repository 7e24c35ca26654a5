package graph

import (
	"fmt"
	"math"

	"github.com/agusx1211/ambience/internal/filter"
	"github.com/agusx1211/ambience/internal/noise"
)

type playState int

const (
	idle playState = iota
	playing
	stopped
)

// lifecycle is shared by the nodes that produce sound on their own.
// A stopped node cannot be restarted.
type lifecycle struct {
	state playState
}

func (l *lifecycle) start(b *node) error {
	c := b.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if b.released {
		return fmt.Errorf("start %s: %w", b.kind, ErrReleased)
	}
	switch l.state {
	case playing:
		return fmt.Errorf("start %s: %w", b.kind, ErrAlreadyStarted)
	case stopped:
		return fmt.Errorf("start %s: %w", b.kind, ErrStopped)
	}
	l.state = playing
	return nil
}

func (l *lifecycle) stop(b *node) {
	c := b.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	l.state = stopped
}

func (l *lifecycle) halt() {
	l.state = stopped
}

// BufferSource plays a noise buffer, looping when the buffer asks for it.
type BufferSource struct {
	node
	lifecycle
	buf *noise.Buffer
	pos int
}

func (c *Context) NewBufferSource(buf *noise.Buffer) *BufferSource {
	s := &BufferSource{
		node: node{ctx: c, kind: "source"},
		buf:  buf,
	}
	c.register(s)
	return s
}

func (s *BufferSource) Start() error {
	return s.start(&s.node)
}

// Stop silences the source for good. Stopping twice is harmless.
func (s *BufferSource) Stop() {
	s.stop(&s.node)
}

func (s *BufferSource) process(_, out []float64) {
	samples := s.buf.Samples
	for i := range out {
		if s.state != playing || len(samples) == 0 {
			out[i] = 0
			continue
		}
		out[i] = samples[s.pos]
		s.pos++
		if s.pos == len(samples) {
			s.pos = 0
			if !s.buf.Loop {
				s.state = stopped
			}
		}
	}
}

// Oscillator is a sine generator. It is normally routed into another node's
// parameter rather than heard directly.
type Oscillator struct {
	node
	lifecycle
	Frequency *Param
	phase     float64
}

func (c *Context) NewOscillator(freq float64) *Oscillator {
	nyquist := float64(c.sampleRate) / 2
	o := &Oscillator{node: node{ctx: c, kind: "oscillator"}}
	o.Frequency = newParam(&o.node, "frequency", freq, -nyquist, nyquist)
	c.register(o)
	return o
}

func (o *Oscillator) Start() error {
	return o.start(&o.node)
}

// Stop is terminal. A stopped oscillator has to be replaced, not restarted.
func (o *Oscillator) Stop() {
	o.stop(&o.node)
}

func (o *Oscillator) process(_, out []float64) {
	if o.state != playing {
		clear(out)
		return
	}
	step := 2 * math.Pi / float64(o.ctx.sampleRate)
	freq := o.Frequency.values[:len(out)]
	for i := range out {
		out[i] = math.Sin(o.phase)
		o.phase += step * freq[i]
		if o.phase >= 2*math.Pi {
			o.phase -= 2 * math.Pi
		} else if o.phase < 0 {
			o.phase += 2 * math.Pi
		}
	}
}

// Filter wraps a biquad. Frequency, Q and Gain are sampled once per quantum.
// Gain is in dB and only matters for shelves.
type Filter struct {
	node
	Frequency *Param
	Q         *Param
	Gain      *Param

	bq           *filter.Biquad
	lastF, lastQ float64
	lastG        float64
}

func (c *Context) NewFilter(kind filter.Kind, freq, q, gainDB float64) *Filter {
	nyquist := float64(c.sampleRate) / 2
	f := &Filter{node: node{ctx: c, kind: kind.String()}}
	f.Frequency = newParam(&f.node, "frequency", freq, 0, nyquist)
	f.Q = newParam(&f.node, "Q", q, 1e-4, 1000)
	f.Gain = newParam(&f.node, "gain", gainDB, -40, 40)
	f.lastF, f.lastQ, f.lastG = f.Frequency.Value(), f.Q.Value(), f.Gain.Value()
	f.bq = filter.New(kind, f.lastF, f.lastQ, f.lastG, float64(c.sampleRate))
	c.register(f)
	return f
}

func (f *Filter) process(in, out []float64) {
	freq, q, g := f.Frequency.values[0], f.Q.values[0], f.Gain.values[0]
	if freq != f.lastF || q != f.lastQ || g != f.lastG {
		f.bq.Set(freq, q, g)
		f.lastF, f.lastQ, f.lastG = freq, q, g
	}
	copy(out, in)
	f.bq.Process(out)
}

// Gain scales its summed input by Level, evaluated per sample.
type Gain struct {
	node
	Level *Param
}

func (c *Context) NewGain(level float64) *Gain {
	g := &Gain{node: node{ctx: c, kind: "gain"}}
	g.Level = newParam(&g.node, "gain", level, 0, math.Inf(1))
	c.register(g)
	return g
}

func (g *Gain) process(in, out []float64) {
	level := g.Level.values[:len(out)]
	for i, x := range in {
		out[i] = x * level[i]
	}
}
