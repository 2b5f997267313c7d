package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/section"
	"github.com/hpungsan/ldspec/internal/toc"
)

// ListSectionsInput contains parameters for the ListSections operation.
type ListSectionsInput struct {
	SpecKey string
	// Depth limits nesting (1 = top level). Zero selects DefaultSectionDepth.
	Depth int
}

// ListSectionsOutput is a flattened table of contents.
type ListSectionsOutput struct {
	SpecKey  string         `json:"spec_key"`
	Depth    int            `json:"depth"`
	Sections []toc.FlatItem `json:"sections"`
}

// ListSections returns the table of contents of a specification.
func (s *Service) ListSections(ctx context.Context, input ListSectionsInput) (*ListSectionsOutput, error) {
	if input.Depth < 0 {
		return nil, errors.NewInvalidRequest("depth must be >= 1")
	}
	depth := input.Depth
	if depth == 0 {
		depth = DefaultSectionDepth
	}

	spec, err := s.spec(input.SpecKey)
	if err != nil {
		return nil, err
	}

	entries, err := s.tableOfContents(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NewNotFound(fmt.Sprintf("No table of contents found in %s", spec.Key), nil)
	}

	return &ListSectionsOutput{
		SpecKey:  spec.Key,
		Depth:    depth,
		Sections: toc.Flatten(entries, depth),
	}, nil
}

// Text renders the sections as indented markdown links.
func (o *ListSectionsOutput) Text() string {
	var sb strings.Builder
	sb.WriteString("# " + o.SpecKey + "\n\n")
	sb.WriteString(toc.ToMarkdown(o.Sections))
	sb.WriteString("\n\nHint: Use `get_section(spec_key, section_id)` to get the markdown content of a specific section.")
	return sb.String()
}

// GetSectionInput contains parameters for the GetSection operation.
type GetSectionInput struct {
	SpecKey   string
	SectionID string
}

// GetSectionOutput is the markdown content of one section.
type GetSectionOutput struct {
	SpecKey   string `json:"spec_key"`
	SectionID string `json:"section_id"`
	Markdown  string `json:"markdown"`
}

// GetSection returns the markdown content of one section. A missing section
// reports a sample of valid section ids.
func (s *Service) GetSection(ctx context.Context, input GetSectionInput) (*GetSectionOutput, error) {
	spec, err := s.spec(input.SpecKey)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(input.SectionID)
	if id == "" {
		return nil, errors.NewInvalidRequest("section_id is required")
	}

	doc, err := s.document(ctx, spec)
	if err != nil {
		return nil, err
	}

	content, err := section.Extract(doc, id, s.renderer)
	if err != nil && !stderrors.Is(err, section.ErrNotFound) {
		return nil, errors.NewInternal(err)
	}
	if content == "" {
		entries, err := s.tableOfContents(ctx, spec)
		if err != nil {
			return nil, err
		}
		available := toc.IDs(toc.Flatten(entries, NotFoundSampleDepth), NotFoundSampleSize)
		return nil, errors.NewNotFound(fmt.Sprintf("Section '%s' not found", id), available)
	}

	return &GetSectionOutput{SpecKey: spec.Key, SectionID: id, Markdown: content}, nil
}

// Text returns the section markdown.
func (o *GetSectionOutput) Text() string {
	return o.Markdown
}
