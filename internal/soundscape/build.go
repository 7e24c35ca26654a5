package soundscape

import (
	"fmt"
	"sync"

	"github.com/agusx1211/ambience/internal/graph"
	"github.com/agusx1211/ambience/internal/noise"
)

// Active is a running soundscape. It owns every node it created and
// releases them all on Stop.
type Active struct {
	ID string

	ctx     *graph.Context
	nodes   []graph.Node
	sources []*graph.BufferSource
	oscs    []*graph.Oscillator
	links   []*graph.ModulationLink
	once    sync.Once
}

// Build instantiates def's layers in order and wires them into bus. Buffers
// are generated here, on the caller's goroutine, before any source starts.
// On error everything created so far is torn down.
func Build(ctx *graph.Context, gen *noise.Generator, def Definition, bus graph.Node, seconds float64) (*Active, error) {
	a := &Active{ID: def.ID, ctx: ctx}
	for _, layer := range def.Layers {
		if err := a.addLayer(gen, layer, bus, seconds); err != nil {
			a.Stop()
			return nil, fmt.Errorf("build %s layer %s: %w", def.ID, layer.Name, err)
		}
	}
	return a, nil
}

func (a *Active) addLayer(gen *noise.Generator, layer LayerSpec, bus graph.Node, seconds float64) error {
	ctx := a.ctx
	buf := gen.Generate(layer.Color, seconds, ctx.SampleRate())

	src := ctx.NewBufferSource(buf)
	a.track(src)
	a.sources = append(a.sources, src)

	filters := make([]*graph.Filter, 0, len(layer.Filters))
	for _, fs := range layer.Filters {
		f := ctx.NewFilter(fs.Kind, fs.Frequency, fs.Q, fs.GainDB)
		a.track(f)
		filters = append(filters, f)
	}

	gain := ctx.NewGain(layer.Gain)
	a.track(gain)

	chain := make([]graph.Node, 0, len(filters)+3)
	chain = append(chain, src)
	for _, f := range filters {
		chain = append(chain, f)
	}
	chain = append(chain, gain, bus)
	for i := 0; i+1 < len(chain); i++ {
		if err := ctx.Connect(chain[i], chain[i+1]); err != nil {
			return err
		}
	}

	for _, lfo := range layer.LFOs {
		var target *graph.Param
		switch lfo.Target {
		case TargetGain:
			target = gain.Level
		case TargetCutoff:
			if len(filters) == 0 {
				return fmt.Errorf("%s modulation without a filter", lfo.Target)
			}
			target = filters[0].Frequency
		default:
			return fmt.Errorf("unknown modulation target %d", lfo.Target)
		}

		osc := ctx.NewOscillator(lfo.Frequency)
		a.track(osc)
		a.oscs = append(a.oscs, osc)
		if err := osc.Start(); err != nil {
			return err
		}
		link, err := ctx.Route(osc, target, lfo.Depth)
		if err != nil {
			return err
		}
		a.links = append(a.links, link)
	}

	return src.Start()
}

func (a *Active) track(n graph.Node) {
	a.nodes = append(a.nodes, n)
}

// Nodes reports how many nodes the soundscape created.
func (a *Active) Nodes() int {
	return len(a.nodes)
}

// Stop cuts every layer off the bus before releasing the nodes it owns, so
// no partially torn down layer is ever rendered. It may be called any number
// of times.
func (a *Active) Stop() {
	a.once.Do(func() {
		for _, l := range a.links {
			l.Remove()
		}
		for _, s := range a.sources {
			s.Stop()
		}
		for _, o := range a.oscs {
			o.Stop()
		}
		for _, n := range a.nodes {
			a.ctx.Disconnect(n)
		}
		for _, n := range a.nodes {
			a.ctx.Release(n)
		}
	})
}
