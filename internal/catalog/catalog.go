package catalog

import (
	"fmt"
	"time"

	"go-photo-engine/pkg/models"
)

// Catalog is the process-wide, read-only set of available styles. It is
// built once at startup and never mutated, so lookups need no
// synchronization.
type Catalog struct {
	styles []models.StyleSpec
	byID   map[string]models.StyleSpec
}

// New builds a catalog from the given specs. Duplicate ids are rejected.
func New(styles []models.StyleSpec) (*Catalog, error) {
	byID := make(map[string]models.StyleSpec, len(styles))
	ordered := make([]models.StyleSpec, 0, len(styles))
	for _, s := range styles {
		if s.ID == "" {
			return nil, fmt.Errorf("style with empty id")
		}
		if _, exists := byID[s.ID]; exists {
			return nil, fmt.Errorf("duplicate style id: %s", s.ID)
		}
		byID[s.ID] = s
		ordered = append(ordered, s)
	}
	return &Catalog{styles: ordered, byID: byID}, nil
}

// Lookup returns the spec for a style id
func (c *Catalog) Lookup(id string) (models.StyleSpec, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Contains reports whether the catalog holds the given style id
func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Styles returns the catalog entries in their fixed order
func (c *Catalog) Styles() []models.StyleSpec {
	out := make([]models.StyleSpec, len(c.styles))
	copy(out, c.styles)
	return out
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	return len(c.styles)
}

// OrderIndex returns the catalog position of a style id, used to keep
// result ordering deterministic. Unknown ids sort last.
func (c *Catalog) OrderIndex(id string) int {
	for i, s := range c.styles {
		if s.ID == id {
			return i
		}
	}
	return len(c.styles)
}

// Default returns the built-in style set
func Default() *Catalog {
	c, err := New([]models.StyleSpec{
		{ID: "enhance", Name: "Auto Enhance", PremiumOnly: false, ExpectedCost: 400 * time.Millisecond},
		{ID: "portrait", Name: "Portrait Boost", PremiumOnly: false, ExpectedCost: 600 * time.Millisecond},
		{ID: "headshot", Name: "Professional Headshot", PremiumOnly: true, ExpectedCost: 1500 * time.Millisecond},
		{ID: "hdr", Name: "HDR Balance", PremiumOnly: false, ExpectedCost: 700 * time.Millisecond},
		{ID: "noir", Name: "Noir Film", PremiumOnly: false, ExpectedCost: 350 * time.Millisecond},
		{ID: "anime", Name: "Anime Look", PremiumOnly: true, ExpectedCost: 1800 * time.Millisecond},
		{ID: "restore", Name: "Photo Restore", PremiumOnly: true, ExpectedCost: 2200 * time.Millisecond},
		{ID: "studio-light", Name: "Studio Light", PremiumOnly: false, ExpectedCost: 900 * time.Millisecond},
	})
	if err != nil {
		// The built-in set is static; a duplicate here is a programming error
		panic(err)
	}
	return c
}
