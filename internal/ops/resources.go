package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/vocab"
)

// ListResourcesInput contains parameters for the ListResources operation.
type ListResourcesInput struct {
	NsKey string
}

// ListResourcesOutput groups a namespace's resources by primary type.
type ListResourcesOutput struct {
	NsKey  string        `json:"ns_key"`
	Total  int           `json:"total"`
	Groups []vocab.Group `json:"groups"`
}

// ListResources enumerates the resources defined in a namespace.
func (s *Service) ListResources(ctx context.Context, input ListResourcesInput) (*ListResourcesOutput, error) {
	ns, err := s.namespace(input.NsKey)
	if err != nil {
		return nil, err
	}

	g, err := s.graph(ctx, ns)
	if err != nil {
		return nil, err
	}

	resources := vocab.Resources(g, ns.URI)
	if len(resources) == 0 {
		return nil, errors.NewNotFound(fmt.Sprintf("No resources found in %s", ns.Key), nil)
	}

	return &ListResourcesOutput{
		NsKey:  ns.Key,
		Total:  len(resources),
		Groups: vocab.GroupByType(resources),
	}, nil
}

// Text renders one markdown heading per type followed by its names.
func (o *ListResourcesOutput) Text() string {
	lines := []string{"# " + o.NsKey, ""}
	for _, g := range o.Groups {
		lines = append(lines, "## "+g.Type, strings.Join(g.Names, ", "), "")
	}
	lines = append(lines, "\nHint: Use `get_resource(ns_key, resource)` to get the full definition of a resource.")
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}

// GetResourceInput contains parameters for the GetResource operation.
type GetResourceInput struct {
	NsKey    string
	Resource string
	// IncludeReferences adds triples using the resource as predicate or object.
	IncludeReferences bool
}

// GetResourceOutput is the Turtle definition of one resource.
type GetResourceOutput struct {
	NsKey             string `json:"ns_key"`
	Resource          string `json:"resource"`
	IncludeReferences bool   `json:"include_references"`
	Turtle            string `json:"turtle"`
}

// GetResource serializes the triples describing one resource. A missing
// resource reports a sample of valid names.
func (s *Service) GetResource(ctx context.Context, input GetResourceInput) (*GetResourceOutput, error) {
	ns, err := s.namespace(input.NsKey)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Resource)
	if name == "" {
		return nil, errors.NewInvalidRequest("resource is required")
	}

	g, err := s.graph(ctx, ns)
	if err != nil {
		return nil, err
	}

	turtle, err := vocab.Definition(g, ns.URI, name, input.IncludeReferences)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if turtle == "" {
		names := vocab.Names(vocab.Resources(g, ns.URI))
		if len(names) > NotFoundSampleSize {
			names = names[:NotFoundSampleSize]
		}
		return nil, errors.NewNotFound(fmt.Sprintf("Resource '%s' not found in %s", name, ns.Key), names)
	}

	return &GetResourceOutput{
		NsKey:             ns.Key,
		Resource:          name,
		IncludeReferences: input.IncludeReferences,
		Turtle:            turtle,
	}, nil
}

// Text returns the Turtle definition.
func (o *GetResourceOutput) Text() string {
	return o.Turtle
}
