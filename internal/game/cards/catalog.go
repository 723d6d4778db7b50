package cards

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// ErrUnknownCard is returned when a card id is not in the catalog.
var ErrUnknownCard = errors.New("unknown card")

// Catalog resolves card ids to prototypes. Implementations must be safe for
// concurrent reads.
type Catalog interface {
	Card(id ID) (*Prototype, error)
}

// Collection is an in-memory Catalog. It is immutable once built, so any
// number of matches may read it concurrently.
type Collection struct {
	byID map[ID]*Prototype
	ids  []ID
}

// NewCollection validates and indexes the given prototypes. The prototypes
// are copied; later changes by the caller do not leak into the collection.
func NewCollection(protos []Prototype) (*Collection, error) {
	c := &Collection{
		byID: make(map[ID]*Prototype, len(protos)),
		ids:  make([]ID, 0, len(protos)),
	}
	for i := range protos {
		p := protos[i].Clone()
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[p.ID]; exists {
			return nil, fmt.Errorf("card %d: duplicate id: %w", p.ID, ErrInvalidPrototype)
		}
		c.byID[p.ID] = p
		c.ids = append(c.ids, p.ID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return c, nil
}

// Card returns the prototype registered under id.
func (c *Collection) Card(id ID) (*Prototype, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("card %d: %w", id, ErrUnknownCard)
	}
	return p, nil
}

// Len returns the number of prototypes.
func (c *Collection) Len() int {
	return len(c.ids)
}

// IDs returns all card ids in ascending order.
func (c *Collection) IDs() []ID {
	return append([]ID(nil), c.ids...)
}

// Random picks a card id using rng. It returns false on an empty collection.
func (c *Collection) Random(rng *rand.Rand) (ID, bool) {
	if len(c.ids) == 0 {
		return 0, false
	}
	return c.ids[rng.Intn(len(c.ids))], true
}

// Resolve looks up every id of a deck list, failing on the first unknown id.
func Resolve(catalog Catalog, ids []ID) ([]*Prototype, error) {
	out := make([]*Prototype, 0, len(ids))
	for _, id := range ids {
		p, err := catalog.Card(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
