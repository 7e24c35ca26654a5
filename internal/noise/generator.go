package noise

import (
	"fmt"
	"math/rand"
)

type Color string

const (
	White Color = "white"
	Pink  Color = "pink"
	Brown Color = "brown"
)

// DefaultSeconds is the length of a layer's loop buffer.
const DefaultSeconds = 3.0

// Buffer is a mono block of samples that plays back by restarting at sample 0.
type Buffer struct {
	Samples    []float64
	SampleRate int
	Loop       bool
}

func (b *Buffer) Duration() float64 {
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

type Generator struct {
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

// NewSeededGenerator returns a generator with a reproducible random stream.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Reseed replaces the internal RNG with a new one seeded from the given value.
// Caller must ensure this is not called concurrently with Generate.
func (g *Generator) Reseed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// Generate fills a fresh loop buffer with noise of the given color.
// Filter state starts at zero for every buffer, so pink and brown
// buffers have a small discontinuity where the loop wraps.
func (g *Generator) Generate(color Color, seconds float64, sampleRate int) *Buffer {
	if seconds <= 0 {
		panic(fmt.Sprintf("noise: non-positive duration %v", seconds))
	}
	if sampleRate <= 0 {
		panic(fmt.Sprintf("noise: non-positive sample rate %d", sampleRate))
	}

	samples := make([]float64, int(seconds*float64(sampleRate)))
	switch color {
	case White:
		for i := range samples {
			samples[i] = g.white()
		}
	case Pink:
		var p PinkFilter
		for i := range samples {
			samples[i] = p.Next(g.white())
		}
	case Brown:
		var b BrownFilter
		for i := range samples {
			samples[i] = b.Next(g.white())
		}
	default:
		panic(fmt.Sprintf("noise: unknown color %q", color))
	}

	return &Buffer{Samples: samples, SampleRate: sampleRate, Loop: true}
}

func (g *Generator) white() float64 {
	return g.rng.Float64()*2 - 1
}

// PinkFilter is Paul Kellet's refined 1/f filter.
type PinkFilter struct {
	b [7]float64
}

func (p *PinkFilter) Next(white float64) float64 {
	b := &p.b
	b[0] = 0.99886*b[0] + white*0.0555179
	b[1] = 0.99332*b[1] + white*0.0750759
	b[2] = 0.96900*b[2] + white*0.1538520
	b[3] = 0.86650*b[3] + white*0.3104856
	b[4] = 0.55000*b[4] + white*0.5329522
	b[5] = -0.7616*b[5] - white*0.0168980
	out := (b[0] + b[1] + b[2] + b[3] + b[4] + b[5] + b[6] + white*0.5362) * 0.11
	b[6] = white * 0.115926
	return out
}

// BrownFilter is a leaky integrator. Output stays within ±3.5 for input in [-1, 1].
type BrownFilter struct {
	last float64
}

func (b *BrownFilter) Next(white float64) float64 {
	b.last = (b.last + 0.02*white) / 1.02
	return b.last * 3.5
}

