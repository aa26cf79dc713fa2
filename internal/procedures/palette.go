package procedures

import "sync"

// DefaultColors is used when a palette is created without explicit colors
var DefaultColors = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#008080", "#9a6324",
	"#800000", "#808000", "#000075", "#fabebe", "#e6beff",
}

// Palette assigns stable colors to display names. Each patient or worker owns its
// own instance; Reset starts the assignment over from the first color.
type Palette struct {
	mu       sync.Mutex
	colors   []string
	assigned map[string]string
	next     int
}

// NewPalette creates a palette cycling through colors
func NewPalette(colors ...string) *Palette {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	c := make([]string, len(colors))
	copy(c, colors)
	return &Palette{
		colors:   c,
		assigned: make(map[string]string),
	}
}

// ColorFor returns the color for name, assigning the next palette color on first use
func (p *Palette) ColorFor(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if color, ok := p.assigned[name]; ok {
		return color
	}
	color := p.colors[p.next%len(p.colors)]
	p.assigned[name] = color
	p.next++
	return color
}

// Reset forgets every assignment
func (p *Palette) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.assigned = make(map[string]string)
	p.next = 0
}

// Assigned returns a copy of the current assignments
func (p *Palette) Assigned() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]string, len(p.assigned))
	for k, v := range p.assigned {
		out[k] = v
	}
	return out
}
