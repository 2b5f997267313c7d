package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/ldspec/internal/catalog"
	"github.com/hpungsan/ldspec/internal/errors"
)

// ListSpecificationsInput contains parameters for the ListSpecifications operation.
type ListSpecificationsInput struct {
	// Family selects one family. Empty lists an overview of all families.
	Family string
}

// FamilySummary counts the entries of one family.
type FamilySummary struct {
	Key            string `json:"key"`
	Comment        string `json:"comment"`
	Specifications int    `json:"specifications"`
	Namespaces     int    `json:"namespaces"`
}

// ListSpecificationsOutput holds either an overview or one family in detail.
type ListSpecificationsOutput struct {
	Families []FamilySummary `json:"families,omitempty"`
	Family   *catalog.Family `json:"family,omitempty"`
}

// ListSpecifications describes the catalog or one family of it.
func (s *Service) ListSpecifications(input ListSpecificationsInput) (*ListSpecificationsOutput, error) {
	family := strings.TrimSpace(input.Family)
	if family != "" {
		f, ok := s.catalog.Family(family)
		if !ok {
			return nil, errors.NewUnknownKey("family", family, s.catalog.FamilyKeys())
		}
		return &ListSpecificationsOutput{Family: &f}, nil
	}

	out := &ListSpecificationsOutput{Families: make([]FamilySummary, 0, len(s.catalog.Families))}
	for _, f := range s.catalog.Families {
		out.Families = append(out.Families, FamilySummary{
			Key:            f.Key,
			Comment:        f.Comment,
			Specifications: len(f.Specifications),
			Namespaces:     len(f.Namespaces),
		})
	}
	return out, nil
}

// Text renders the output as markdown.
func (o *ListSpecificationsOutput) Text() string {
	if o.Family != nil {
		return familyText(o.Family)
	}

	lines := []string{"# Linked Data Specifications", ""}
	for _, f := range o.Families {
		nsPart := ""
		if f.Namespaces > 0 {
			nsPart = fmt.Sprintf(", %d namespace%s", f.Namespaces, plural(f.Namespaces))
		}
		lines = append(lines, fmt.Sprintf("- %s (%d spec%s%s): %s",
			f.Key, f.Specifications, plural(f.Specifications), nsPart, f.Comment))
	}
	lines = append(lines, "\nHint: Use `list_specifications(family)` to see available specifications and namespaces.")
	return strings.Join(lines, "\n")
}

func familyText(f *catalog.Family) string {
	lines := []string{"# " + strings.ToUpper(f.Key), "", f.Comment}

	if len(f.Specifications) > 0 {
		lines = append(lines, "", "## Specifications")
		for _, spec := range f.Specifications {
			lines = append(lines, fmt.Sprintf("- `%s`: %s", spec.Key, spec.Comment))
		}
	}
	if len(f.Namespaces) > 0 {
		lines = append(lines, "", "## Namespaces")
		for _, ns := range f.Namespaces {
			lines = append(lines, fmt.Sprintf("- `%s`: %s", ns.Key, ns.Comment))
		}
	}

	lines = append(lines, "\nHint: Use `list_sections(spec_key, depth)` to see available sections for a specification and `list_resources(ns_key)` to see available resources for a namespace.")
	return strings.Join(lines, "\n")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
