// Package catalog is the index of known specification documents and
// vocabulary namespaces, grouped into families.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed index.yaml
var indexYAML []byte

// Entry is a specification document or a namespace.
type Entry struct {
	Key     string `yaml:"key" json:"key"`
	Label   string `yaml:"label" json:"label"`
	Comment string `yaml:"comment" json:"comment"`
	URI     string `yaml:"uri" json:"uri"`
	// Version is empty for unversioned entries.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// Family groups related specifications and namespaces.
type Family struct {
	Key            string  `yaml:"key" json:"key"`
	Comment        string  `yaml:"comment" json:"comment"`
	Specifications []Entry `yaml:"specifications,omitempty" json:"specifications"`
	Namespaces     []Entry `yaml:"namespaces,omitempty" json:"namespaces"`
}

// Catalog is an ordered list of families.
type Catalog struct {
	Families []Family `yaml:"families"`
}

// Load returns the built-in catalog.
func Load() (*Catalog, error) {
	return Parse(indexYAML)
}

// Parse decodes a catalog and checks that keys are present and unique.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	families := make(map[string]bool)
	specs := make(map[string]bool)
	namespaces := make(map[string]bool)
	for _, f := range c.Families {
		if f.Key == "" {
			return nil, fmt.Errorf("catalog: family without key")
		}
		if families[strings.ToUpper(f.Key)] {
			return nil, fmt.Errorf("catalog: duplicate family %q", f.Key)
		}
		families[strings.ToUpper(f.Key)] = true
		if err := checkEntries(f.Key, "specification", f.Specifications, specs); err != nil {
			return nil, err
		}
		if err := checkEntries(f.Key, "namespace", f.Namespaces, namespaces); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func checkEntries(family, kind string, entries []Entry, seen map[string]bool) error {
	for _, e := range entries {
		if e.Key == "" || e.URI == "" {
			return fmt.Errorf("catalog: %s in %s needs key and uri", kind, family)
		}
		if seen[e.Key] {
			return fmt.Errorf("catalog: duplicate %s %q", kind, e.Key)
		}
		seen[e.Key] = true
	}
	return nil
}

// Filter returns a copy keeping specifications whose version is allowed.
// Unversioned specifications and all namespaces are always kept. A nil
// allowed set keeps everything.
func (c *Catalog) Filter(allowed map[string]bool) *Catalog {
	out := &Catalog{Families: make([]Family, 0, len(c.Families))}
	for _, f := range c.Families {
		nf := Family{
			Key:            f.Key,
			Comment:        f.Comment,
			Specifications: []Entry{},
			Namespaces:     append([]Entry{}, f.Namespaces...),
		}
		for _, s := range f.Specifications {
			if allowed == nil || s.Version == "" || allowed[s.Version] {
				nf.Specifications = append(nf.Specifications, s)
			}
		}
		out.Families = append(out.Families, nf)
	}
	return out
}

// Family looks up a family by key, ignoring case.
func (c *Catalog) Family(key string) (Family, bool) {
	for _, f := range c.Families {
		if strings.EqualFold(f.Key, key) {
			return f, true
		}
	}
	return Family{}, false
}

// FamilyKeys returns the family keys in catalog order.
func (c *Catalog) FamilyKeys() []string {
	keys := make([]string, len(c.Families))
	for i, f := range c.Families {
		keys[i] = f.Key
	}
	return keys
}

// Spec looks up a specification by exact key.
func (c *Catalog) Spec(key string) (Entry, bool) {
	for _, f := range c.Families {
		for _, s := range f.Specifications {
			if s.Key == key {
				return s, true
			}
		}
	}
	return Entry{}, false
}

// Namespace looks up a namespace by exact key.
func (c *Catalog) Namespace(key string) (Entry, bool) {
	for _, f := range c.Families {
		for _, n := range f.Namespaces {
			if n.Key == key {
				return n, true
			}
		}
	}
	return Entry{}, false
}

// SpecKeys returns every specification key, sorted.
func (c *Catalog) SpecKeys() []string {
	var keys []string
	for _, f := range c.Families {
		for _, s := range f.Specifications {
			keys = append(keys, s.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// NamespaceKeys returns every namespace key, sorted.
func (c *Catalog) NamespaceKeys() []string {
	var keys []string
	for _, f := range c.Families {
		for _, n := range f.Namespaces {
			keys = append(keys, n.Key)
		}
	}
	sort.Strings(keys)
	return keys
}
