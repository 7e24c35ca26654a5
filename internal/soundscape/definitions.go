package soundscape

import (
	"github.com/agusx1211/ambience/internal/filter"
	"github.com/agusx1211/ambience/internal/noise"
)

// Target selects which parameter of a layer an LFO drives.
type Target int

const (
	TargetGain Target = iota
	TargetCutoff
)

func (t Target) String() string {
	if t == TargetCutoff {
		return "cutoff"
	}
	return "gain"
}

type FilterSpec struct {
	Kind      filter.Kind
	Frequency float64
	Q         float64
	GainDB    float64
}

type LFOSpec struct {
	Frequency float64
	Depth     float64
	Target    Target
}

type LayerSpec struct {
	Name    string
	Color   noise.Color
	Filters []FilterSpec
	Gain    float64
	LFOs    []LFOSpec
}

type Definition struct {
	ID     string
	Label  string
	Icon   string
	Layers []LayerSpec
}

// Info is the part of a definition a control surface displays.
type Info struct {
	ID    string
	Label string
	Icon  string
}

func bandpass(f, q float64) []FilterSpec {
	return []FilterSpec{{Kind: filter.Bandpass, Frequency: f, Q: q}}
}

func lowpass(f, q float64) []FilterSpec {
	return []FilterSpec{{Kind: filter.Lowpass, Frequency: f, Q: q}}
}

func highpass(f, q float64) []FilterSpec {
	return []FilterSpec{{Kind: filter.Highpass, Frequency: f, Q: q}}
}

func gainLFO(freq, depth float64) []LFOSpec {
	return []LFOSpec{{Frequency: freq, Depth: depth, Target: TargetGain}}
}

// definitions is the fixed roster, in display order. Entries are never
// mutated after init.
var definitions = []Definition{
	{
		ID: "rain", Label: "Rain", Icon: "🌧",
		Layers: []LayerSpec{
			{Name: "body", Color: noise.White, Filters: bandpass(1200, 0.6), Gain: 0.35, LFOs: gainLFO(0.07, 0.08)},
			{Name: "spray", Color: noise.White, Filters: highpass(4500, 0.7), Gain: 0.12},
			{Name: "rumble", Color: noise.Brown, Filters: lowpass(400, 0.7), Gain: 0.4},
		},
	},
	{
		ID: "fireplace", Label: "Fireplace", Icon: "🔥",
		Layers: []LayerSpec{
			{Name: "base", Color: noise.Brown, Filters: lowpass(300, 0.7), Gain: 0.5},
			{Name: "crackle", Color: noise.Brown, Filters: bandpass(1500, 2), Gain: 0.15, LFOs: gainLFO(3.7, 0.12)},
			{Name: "snap", Color: noise.White, Filters: bandpass(3200, 4), Gain: 0.05, LFOs: gainLFO(5.3, 0.05)},
		},
	},
	{
		ID: "cafe", Label: "Café", Icon: "☕",
		Layers: []LayerSpec{
			{Name: "murmur", Color: noise.Brown, Filters: bandpass(500, 0.8), Gain: 0.4, LFOs: gainLFO(0.11, 0.1)},
			{Name: "chatter", Color: noise.Pink, Filters: bandpass(1200, 1.2), Gain: 0.15, LFOs: gainLFO(0.19, 0.06)},
			{Name: "hiss", Color: noise.White, Filters: highpass(6000, 0.7), Gain: 0.03},
			{Name: "clink", Color: noise.White, Filters: bandpass(4000, 12), Gain: 0.04, LFOs: gainLFO(0.33, 0.03)},
		},
	},
	{
		ID: "wind", Label: "Wind", Icon: "💨",
		Layers: []LayerSpec{
			{
				Name: "gust", Color: noise.Pink, Filters: lowpass(600, 1), Gain: 0.35,
				LFOs: []LFOSpec{
					{Frequency: 0.12, Depth: 300, Target: TargetCutoff},
					{Frequency: 0.08, Depth: 0.15, Target: TargetGain},
				},
			},
			{Name: "whistle", Color: noise.Pink, Filters: bandpass(1800, 8), Gain: 0.06, LFOs: gainLFO(0.06, 0.05)},
			{Name: "deep", Color: noise.Brown, Filters: lowpass(200, 0.7), Gain: 0.4, LFOs: gainLFO(0.05, 0.15)},
		},
	},
	{
		ID: "whitenoise", Label: "White Noise", Icon: "📻",
		Layers: []LayerSpec{
			{
				Name: "static", Color: noise.White, Gain: 0.35,
				Filters: []FilterSpec{{Kind: filter.HighShelf, Frequency: 6000, GainDB: -6}},
			},
		},
	},
	{
		ID: "ocean", Label: "Ocean", Icon: "🌊",
		Layers: []LayerSpec{
			{Name: "surf", Color: noise.Pink, Filters: bandpass(800, 0.5), Gain: 0.35, LFOs: gainLFO(0.14, 0.2)},
			{Name: "foam", Color: noise.White, Filters: highpass(3000, 0.7), Gain: 0.08, LFOs: gainLFO(0.17, 0.06)},
			{Name: "rumble", Color: noise.Brown, Filters: lowpass(250, 0.7), Gain: 0.45, LFOs: gainLFO(0.09, 0.15)},
		},
	},
}

// List returns the roster in display order.
func List() []Info {
	out := make([]Info, len(definitions))
	for i, d := range definitions {
		out[i] = Info{ID: d.ID, Label: d.Label, Icon: d.Icon}
	}
	return out
}

// Lookup finds a definition by id. The returned value shares layer slices
// with the roster and must be treated as read-only.
func Lookup(id string) (Definition, bool) {
	for _, d := range definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
