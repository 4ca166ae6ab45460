package aggregator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in color schemes for top-level chart rings. Colors cycle when a
// chart has more top-level categories than the palette has entries.
var builtinPalettes = map[string][]string{
	"purples": {
		"#4361ee", "#3a0ca3", "#7209b7", "#560bad", "#480ca8",
		"#3f37c9", "#4895ef", "#4cc9f0", "#3a86ff", "#0096c7",
	},
	"rainbow": {
		"#ff006e", "#8338ec", "#3a86ff", "#00f5d4", "#fb5607",
		"#ff006e", "#3a86ff", "#ffbe0b", "#06d6a0", "#118ab2",
	},
	"nature": {
		"#2d6a4f", "#40916c", "#52b788", "#74c69d", "#95d5b2",
		"#1b4332", "#081c15", "#1b4332", "#2d6a4f", "#40916c",
	},
	"ocean": {
		"#03045e", "#0077b6", "#00b4d8", "#90e0ef", "#023e8a",
		"#0096c7", "#48cae4", "#ade8f4", "#caf0f8", "#014f86",
	},
	"sunset": {
		"#ff6b6b", "#f06595", "#cc5de8", "#845ef7", "#5c7cfa",
		"#339af0", "#22b8cf", "#20c997", "#51cf66", "#94d82d",
	},
}

// DefaultPaletteName is used when no palette is configured.
const DefaultPaletteName = "ocean"

// Palette is a named, cyclically indexed color scheme. Custom palettes can
// be registered at startup; names never collide with existing ones.
type Palette struct {
	mu     sync.RWMutex
	name   string
	colors []string
	custom map[string][]string
}

// NewPalette returns a palette with the named scheme active.
func NewPalette(name string) (*Palette, error) {
	p := &Palette{custom: make(map[string][]string)}
	if err := p.SetPalette(name); err != nil {
		return nil, err
	}
	return p, nil
}

// MustPalette panics on an unknown name; for wiring defaults at startup.
func MustPalette(name string) *Palette {
	p, err := NewPalette(name)
	if err != nil {
		panic(err)
	}
	return p
}

// SetPalette switches the active scheme.
func (p *Palette) SetPalette(name string) error {
	key := strings.ToLower(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	colors, ok := builtinPalettes[key]
	if !ok {
		colors, ok = p.custom[key]
	}
	if !ok {
		return fmt.Errorf("unknown palette %q, available palettes: %s",
			name, strings.Join(p.availableLocked(), ", "))
	}
	p.name = key
	p.colors = colors
	return nil
}

// AddPalette registers a custom scheme. The name must be new.
func (p *Palette) AddPalette(name string, colors []string) error {
	key := strings.ToLower(name)
	if key == "" {
		return fmt.Errorf("palette name is required")
	}
	if len(colors) == 0 {
		return fmt.Errorf("palette %q requires at least one color", key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := builtinPalettes[key]; exists {
		return fmt.Errorf("palette %q already exists", key)
	}
	if _, exists := p.custom[key]; exists {
		return fmt.Errorf("palette %q already exists", key)
	}
	p.custom[key] = append([]string{}, colors...)
	return nil
}

// Name returns the active scheme name.
func (p *Palette) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Color returns the color at index, wrapping past the palette length.
func (p *Palette) Color(index int) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.colors) == 0 {
		return ""
	}
	return p.colors[index%len(p.colors)]
}

// Len returns the number of colors in the active scheme.
func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.colors)
}

// Available lists every registered palette name, sorted.
func (p *Palette) Available() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.availableLocked()
}

func (p *Palette) availableLocked() []string {
	names := make([]string, 0, len(builtinPalettes)+len(p.custom))
	for name := range builtinPalettes {
		names = append(names, name)
	}
	for name := range p.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
