package font

import (
	"fmt"
	"time"

	"github.com/andyrewlee/termview/internal/logging"
)

var log = logging.For("font")

// Glyph is a rasterized character.
type Glyph struct {
	Rune rune
	// Cells is how many grid columns the glyph covers.
	Cells int
	// Top and Left place the glyph relative to the cell origin.
	Top  int
	Left int
}

// GlyphCache memoizes glyphs for one face at one DPR. Changing the face or
// DPR goes through UpdateFontSize, which drops every cached glyph.
type GlyphCache struct {
	rasterizer  Rasterizer
	desc        Description
	dpr         float64
	glyphOffset Offset
	metrics     Metrics
	glyphs      map[rune]Glyph
	rebuilds    int
}

// NewGlyphCache loads desc at dpr and preloads printable ASCII.
func NewGlyphCache(r Rasterizer, desc Description, dpr float64, glyphOffset Offset) (*GlyphCache, error) {
	c := &GlyphCache{rasterizer: r, glyphOffset: glyphOffset}
	start := time.Now()
	if err := c.load(desc, dpr); err != nil {
		return nil, err
	}
	log.Info("initialized glyph cache for %s in %s", desc, time.Since(start))
	return c, nil
}

func (c *GlyphCache) load(desc Description, dpr float64) error {
	if !desc.Size.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSize, desc.Size)
	}
	metrics, err := c.rasterizer.Metrics(desc, dpr)
	if err != nil {
		return fmt.Errorf("load font %s: %w", desc, err)
	}
	c.desc = desc
	c.dpr = dpr
	c.metrics = metrics
	c.glyphs = make(map[rune]Glyph, 95)
	for r := rune(0x20); r < 0x7f; r++ {
		if _, err := c.Glyph(r); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFontSize rebuilds the cache for a new face or DPR. On error the
// previous face stays loaded.
func (c *GlyphCache) UpdateFontSize(desc Description, dpr float64) error {
	prev := *c
	if err := c.load(desc, dpr); err != nil {
		*c = prev
		return err
	}
	c.rebuilds++
	log.Debug("glyph cache rebuilt for %s at dpr %.2f", desc, dpr)
	return nil
}

// Glyph returns the cached glyph for r, rasterizing it on first use.
func (c *GlyphCache) Glyph(r rune) (Glyph, error) {
	if g, ok := c.glyphs[r]; ok {
		return g, nil
	}
	g, err := c.rasterizer.Rasterize(r, c.desc, c.dpr)
	if err != nil {
		return Glyph{}, fmt.Errorf("rasterize %q: %w", r, err)
	}
	g.Left += c.glyphOffset.X
	g.Top += c.glyphOffset.Y
	c.glyphs[r] = g
	return g, nil
}

// FontMetrics returns the metrics of the loaded face.
func (c *GlyphCache) FontMetrics() Metrics {
	return c.metrics
}

// Description returns the loaded face.
func (c *GlyphCache) Description() Description {
	return c.desc
}

// DPR returns the device pixel ratio the cache was built for.
func (c *GlyphCache) DPR() float64 {
	return c.dpr
}

// Rebuilds counts successful UpdateFontSize calls.
func (c *GlyphCache) Rebuilds() int {
	return c.rebuilds
}

// Len returns the number of cached glyphs.
func (c *GlyphCache) Len() int {
	return len(c.glyphs)
}
