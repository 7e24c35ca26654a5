package filter

import (
	"fmt"
	"math"
)

type Kind int

const (
	Lowpass Kind = iota
	Highpass
	Bandpass
	LowShelf
	HighShelf
)

func (k Kind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case LowShelf:
		return "lowshelf"
	case HighShelf:
		return "highshelf"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64

	kind       Kind
	f0         float64
	q          float64
	gainDB     float64
	sampleRate float64
}

// New builds a biquad section. q is ignored by shelves and gainDB is
// ignored by the pass filters.
func New(kind Kind, f0, q, gainDB, sampleRate float64) *Biquad {
	b := &Biquad{
		kind:       kind,
		sampleRate: sampleRate,
	}
	b.Set(f0, q, gainDB)
	return b
}

// Set retunes the section. Delay-line state is kept so a sweeping cutoff
// does not click.
func (b *Biquad) Set(f0, q, gainDB float64) {
	nyquist := b.sampleRate / 2
	b.f0 = math.Max(1, math.Min(nyquist-1, f0))
	b.q = math.Max(1e-4, q)
	b.gainDB = gainDB
	b.computeCoefficients()
}

// computeCoefficients uses Robert Bristow-Johnson Audio EQ Cookbook formulas.
// Shelves use S=1, the band-pass has a constant 0 dB peak.
func (b *Biquad) computeCoefficients() {
	w0 := 2 * math.Pi * b.f0 / b.sampleRate
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)

	var b0, b1, b2, a0, a1, a2 float64

	switch b.kind {
	case Lowpass:
		alpha := sinw0 / (2 * b.q)
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Highpass:
		alpha := sinw0 / (2 * b.q)
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Bandpass:
		alpha := sinw0 / (2 * b.q)
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case LowShelf:
		A := math.Pow(10, b.gainDB/40.0)
		// S=1 slope: alpha = sin(w0)/2 * sqrt(2)
		alpha := sinw0 / 2 * math.Sqrt2
		twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cosw0 + twoSqrtAAlpha)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - twoSqrtAAlpha)
		a0 = (A + 1) + (A-1)*cosw0 + twoSqrtAAlpha
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - twoSqrtAAlpha
	case HighShelf:
		A := math.Pow(10, b.gainDB/40.0)
		alpha := sinw0 / 2 * math.Sqrt2
		twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cosw0 + twoSqrtAAlpha)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - twoSqrtAAlpha)
		a0 = (A + 1) - (A-1)*cosw0 + twoSqrtAAlpha
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - twoSqrtAAlpha
	default:
		panic(fmt.Sprintf("filter: unsupported kind %v", b.kind))
	}

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}

func (b *Biquad) Process(samples []float64) {
	for i, x := range samples {
		y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
		b.x2 = b.x1
		b.x1 = x
		b.y2 = b.y1
		b.y1 = y
		samples[i] = y
	}
}
