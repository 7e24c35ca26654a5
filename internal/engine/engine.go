package engine

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/agusx1211/ambience/internal/graph"
	"github.com/agusx1211/ambience/internal/noise"
	"github.com/agusx1211/ambience/internal/soundscape"
)

const (
	DefaultVolume     = 0.3
	DefaultSampleRate = 44100

	// per-sample glide of the master level toward its target
	volumeSmoothing = 0.001
)

var (
	ErrUnknownSoundscape = errors.New("unknown soundscape")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrClosed            = errors.New("engine closed")
)

// Device is the output the engine renders into. It pulls interleaved
// stereo frames from the mix function on its own goroutine.
type Device interface {
	Start(mix func(samples int) []float64)
	Resume()
	Suspend()
	Close() error
}

type OpenFunc func(sampleRate int) (Device, error)

type Options struct {
	SampleRate    int
	BufferSeconds float64
	Open          OpenFunc
}

// Engine plays at most one soundscape at a time through a shared master
// bus. The audio context and device are created on first Play.
type Engine struct {
	mu sync.Mutex

	opts   Options
	gen    *noise.Generator
	ctx    atomic.Pointer[graph.Context]
	bus    *graph.Gain
	device Device
	devErr error
	active *soundscape.Active
	closed bool

	volume atomic.Uint64
}

func New(opts Options) *Engine {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.BufferSeconds <= 0 {
		opts.BufferSeconds = noise.DefaultSeconds
	}
	e := &Engine{
		opts: opts,
		gen:  noise.NewGenerator(),
	}
	e.volume.Store(math.Float64bits(DefaultVolume))
	return e
}

// Play stops whatever is playing and starts id. An unknown id leaves the
// current soundscape untouched.
func (e *Engine) Play(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	def, ok := soundscape.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSoundscape, id)
	}
	if err := e.ensureContext(); err != nil {
		return err
	}

	e.stopActive()
	active, err := soundscape.Build(e.ctx.Load(), e.gen, def, e.bus, e.opts.BufferSeconds)
	if err != nil {
		e.device.Suspend()
		return err
	}
	e.active = active
	e.device.Resume()

	log.Printf("Playing soundscape %s (%d layers, %d nodes)", id, len(def.Layers), active.Nodes())
	return nil
}

// Stop tears down the active soundscape. Stopping while idle does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return
	}
	id := e.active.ID
	e.stopActive()
	e.device.Suspend()
	log.Printf("Stopped soundscape %s", id)
}

func (e *Engine) stopActive() {
	if e.active != nil {
		e.active.Stop()
		e.active = nil
	}
}

// ensureContext lazily creates the audio context, master bus and device.
// A device failure is remembered so later calls fail the same way.
func (e *Engine) ensureContext() error {
	if e.ctx.Load() != nil {
		return nil
	}
	if e.devErr != nil {
		return e.devErr
	}
	if e.opts.Open == nil {
		e.devErr = fmt.Errorf("%w: no output configured", ErrDeviceUnavailable)
		return e.devErr
	}

	dev, err := e.opts.Open(e.opts.SampleRate)
	if err != nil {
		e.devErr = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		log.Printf("Failed to open audio device: %v", err)
		return e.devErr
	}

	ctx := graph.NewContext(e.opts.SampleRate)
	bus := ctx.NewGain(e.Volume())
	bus.Level.SetSmoothing(volumeSmoothing)
	if err := ctx.Connect(bus, ctx.Destination()); err != nil {
		dev.Close()
		return err
	}

	e.bus = bus
	e.device = dev
	e.ctx.Store(ctx)
	dev.Start(e.Mix)
	log.Printf("Audio context ready at %d Hz", e.opts.SampleRate)
	return nil
}

// Active returns the id of the playing soundscape.
func (e *Engine) Active() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return "", false
	}
	return e.active.ID, true
}

// SetVolume clamps v to [0, 1] and applies it to the master bus. NaN is
// ignored.
func (e *Engine) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))
	e.volume.Store(math.Float64bits(v))

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bus != nil {
		e.bus.Level.Set(v)
	}
}

func (e *Engine) Volume() float64 {
	return math.Float64frombits(e.volume.Load())
}

func (e *Engine) Definitions() []soundscape.Info {
	return soundscape.List()
}

// Reseed swaps the noise RNG. Buffers already playing are unaffected.
func (e *Engine) Reseed(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen.Reseed(seed)
}

// Mix renders samples stereo frames, interleaved L/R. It is called from the
// device goroutine and returns silence before the context exists.
func (e *Engine) Mix(samples int) []float64 {
	result := make([]float64, samples*2)
	ctx := e.ctx.Load()
	if ctx == nil {
		return result
	}

	mono := make([]float64, samples)
	ctx.Render(mono)
	for i, s := range mono {
		s = math.Max(-1, math.Min(1, s))
		result[i*2] = s
		result[i*2+1] = s
	}
	return result
}

// Close stops playback, releases the master bus and closes the device.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.stopActive()
	if ctx := e.ctx.Load(); ctx != nil {
		ctx.Release(e.bus)
	}
	if e.device != nil {
		return e.device.Close()
	}
	return nil
}
