package pose

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
)

// Catalog is an immutable registry of templates with random selection
// that never repeats the previous pick back-to-back.
type Catalog struct {
	templates []Template
	byName    map[string]int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) CatalogOption {
	return func(c *Catalog) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithSeed seeds a PCG source.
func WithSeed(seed uint64) CatalogOption {
	return func(c *Catalog) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// NewCatalog validates and registers templates. An empty list is a fatal
// configuration error: the spawner has nothing to bind obstacles to.
func NewCatalog(templates []Template, opts ...CatalogOption) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		templates: make([]Template, 0, len(templates)),
		byName:    make(map[string]int, len(templates)),
	}

	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.Name)
		}
		c.byName[t.Name] = len(c.templates)
		c.templates = append(c.templates, t.Clone())
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog(opts ...CatalogOption) *Catalog {
	c, err := NewCatalog(DefaultTemplates(), opts...)
	if err != nil {
		// Built-in templates are static; failing here is a programming error.
		panic(err)
	}
	return c
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// Get returns a copy of the named template.
func (c *Catalog) Get(name string) (Template, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Template{}, false
	}
	return c.templates[i].Clone(), true
}

// Lookup is Get returning ErrUnknownTemplate for missing names.
func (c *Catalog) Lookup(name string) (Template, error) {
	t, ok := c.Get(name)
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return t, nil
}

// Names returns template names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for _, t := range c.templates {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Templates returns copies of all templates in registration order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.Clone()
	}
	return out
}

// PickNext selects uniformly among templates other than previous.
// With a single template it always returns that template.
func (c *Catalog) PickNext(previous string) Template {
	if len(c.templates) == 1 {
		return c.templates[0].Clone()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		t := c.templates[c.rng.IntN(len(c.templates))]
		if t.Name != previous {
			return t.Clone()
		}
	}
}
