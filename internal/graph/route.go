package graph

import "fmt"

// ModulationLink adds an oscillator's output, scaled by Depth, on top of a
// parameter's base value.
type ModulationLink struct {
	Source  *Oscillator
	Target  *Param
	Depth   float64
	removed bool
}

// Route drives p with osc. A parameter takes at most one modulation.
func (c *Context) Route(osc *Oscillator, p *Param, depth float64) (*ModulationLink, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if osc.ctx != c || p.owner.ctx != c {
		return nil, ErrForeignNode
	}
	if osc.released || p.owner.released {
		return nil, fmt.Errorf("route oscillator to %s %s: %w", p.owner.kind, p.name, ErrReleased)
	}
	if p.mod != nil {
		return nil, fmt.Errorf("route oscillator to %s %s: %w", p.owner.kind, p.name, ErrParamModulated)
	}

	l := &ModulationLink{Source: osc, Target: p, Depth: depth}
	p.mod = l
	osc.links = append(osc.links, l)
	return l, nil
}

// Remove unhooks the link. It is safe to call more than once, and after
// either end has been released.
func (l *ModulationLink) Remove() {
	c := l.Source.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	l.detach()
}

func (l *ModulationLink) detach() {
	if l.removed {
		return
	}
	l.removed = true
	if l.Target.mod == l {
		l.Target.mod = nil
	}
	links := l.Source.links[:0]
	for _, x := range l.Source.links {
		if x != l {
			links = append(links, x)
		}
	}
	l.Source.links = links
}
