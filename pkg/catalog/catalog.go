// Package catalog holds the read-only list of selectable characters.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"roster/pkg/schema"
	"roster/pkg/utils"
)

// DefaultName is the character selected when a session starts.
const DefaultName = "matt"

var (
	ErrEmpty         = errors.New("catalog has no characters")
	ErrInvalidRecord = errors.New("invalid character record")
)

// DefaultRecords returns the built-in roster. The second "matt" is a
// data-entry artifact and is reported by Duplicates.
func DefaultRecords() []schema.Character {
	return []schema.Character{
		{Name: "matt", ImagePath: "matt.png", Skill: 5, Luck: 2, Stamina: 3},
		{Name: "matt", ImagePath: "matt.png", Skill: 5, Luck: 2, Stamina: 3},
		{Name: "susan", ImagePath: "susan.png", Skill: 7, Luck: 5, Stamina: 8},
		{Name: "jerry", ImagePath: "jerry.png", Skill: 4, Luck: 2, Stamina: 5},
		{Name: "cory", ImagePath: "cory.png", Skill: 3, Luck: 9, Stamina: 4},
		{Name: "kristi", ImagePath: "kristi.png", Skill: 6, Luck: 6, Stamina: 9},
	}
}

// Build keys records by name. Later records overwrite earlier ones.
func Build(records []schema.Character) map[string]schema.Character {
	out := make(map[string]schema.Character, len(records))
	for _, r := range records {
		out[r.Name] = r
	}
	return out
}

// Duplicate describes a record that a later record with the same name replaced.
type Duplicate struct {
	Name        string           `json:"name"`
	Index       int              `json:"index"`
	Overwritten schema.Character `json:"overwritten"`
	Kept        schema.Character `json:"kept"`
	Identical   bool             `json:"identical"`
}

type Catalog struct {
	records []schema.Character
	byName  map[string]schema.Character
	names   []string
}

func New(records []schema.Character) (*Catalog, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	names := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("%w: record %d has no name", ErrInvalidRecord, i)
		}
		if _, ok := seen[r.Name]; !ok {
			seen[r.Name] = struct{}{}
			names = append(names, r.Name)
		}
	}

	return &Catalog{
		records: slices.Clone(records),
		byName:  Build(records),
		names:   names,
	}, nil
}

// Default returns a catalog with the built-in roster.
func Default() *Catalog {
	c, err := New(DefaultRecords())
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a JSON array of characters from path.
func Load(path string) (*Catalog, error) {
	records, err := utils.Load[[]schema.Character](path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	c, err := New(records)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Records returns the records in input order, duplicates included.
func (c *Catalog) Records() []schema.Character {
	return slices.Clone(c.records)
}

// Names returns each distinct name once, in order of first appearance.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Characters returns the resolved character for each name in Names order.
func (c *Catalog) Characters() []schema.Character {
	out := make([]schema.Character, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.byName[n])
	}
	return out
}

func (c *Catalog) Get(name string) (schema.Character, bool) {
	ch, ok := c.byName[name]
	return ch, ok
}

func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Catalog) Len() int { return len(c.names) }

// Default returns DefaultName when present, otherwise the first name.
func (c *Catalog) Default() string {
	if c.Contains(DefaultName) {
		return DefaultName
	}
	return c.names[0]
}

// Duplicates lists every record that was overwritten during Build, in input order.
func (c *Catalog) Duplicates() []Duplicate {
	var out []Duplicate
	for i, r := range c.records {
		for _, later := range c.records[i+1:] {
			if later.Name != r.Name {
				continue
			}
			kept := c.byName[r.Name]
			out = append(out, Duplicate{
				Name:        r.Name,
				Index:       i,
				Overwritten: r,
				Kept:        kept,
				Identical:   r.Equal(kept),
			})
			break
		}
	}
	return out
}
