package store

import (
	"math/rand"
	"sync"
)

// Palette holds the ten colors assigned to categories and tags created
// without an explicit color.
var Palette = []string{
	"#4CAF50", "#2196F3", "#FF9800", "#F44336", "#9C27B0",
	"#00BCD4", "#FFEB3B", "#795548", "#607D8B", "#E91E63",
}

// PickColor draws a palette color from the given source.
func PickColor(r *rand.Rand) string {
	return Palette[r.Intn(len(Palette))]
}

// ColorPicker is a concurrency-safe palette source for request handlers.
type ColorPicker struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewColorPicker(seed int64) *ColorPicker {
	return &ColorPicker{r: rand.New(rand.NewSource(seed))}
}

func (p *ColorPicker) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PickColor(p.r)
}
