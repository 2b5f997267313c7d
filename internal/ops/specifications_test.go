package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/ldspec/internal/errors"
)

func TestListSpecifications_Overview(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Options{})

	out, err := svc.ListSpecifications(ListSpecificationsInput{})
	require.NoError(t, err)
	require.Len(t, out.Families, 2)
	assert.Equal(t, 3, out.Families[0].Specifications)
	assert.Equal(t, 3, out.Families[0].Namespaces)

	want := "# Linked Data Specifications\n\n" +
		"- TEST (3 specs, 3 namespaces): Test family.\n" +
		"- OTHER (1 spec): Second family.\n" +
		"\nHint: Use `list_specifications(family)` to see available specifications and namespaces."
	assert.Equal(t, want, out.Text())
}

func TestListSpecifications_Family(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Options{})

	out, err := svc.ListSpecifications(ListSpecificationsInput{Family: "other"})
	require.NoError(t, err)
	require.NotNil(t, out.Family)

	want := "# OTHER\n\nSecond family.\n\n## Specifications\n- `old`: Old spec.\n" +
		"\nHint: Use `list_sections(spec_key, depth)` to see available sections for a specification and `list_resources(ns_key)` to see available resources for a namespace."
	assert.Equal(t, want, out.Text())

	out, err = svc.ListSpecifications(ListSpecificationsInput{Family: "TEST"})
	require.NoError(t, err)
	assert.Contains(t, out.Text(), "## Namespaces\n- `ex`: Example vocabulary.")
}

func TestListSpecifications_UnknownFamily(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Options{})

	_, err := svc.ListSpecifications(ListSpecificationsInput{Family: "NOPE"})
	ldErr := requireCode(t, err, errors.ErrUnknownKey)
	assert.Equal(t, []string{"TEST", "OTHER"}, ldErr.Details["available"])
}

func TestListSpecifications_VersionFilter(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Options{Catalog: f.cat.Filter(map[string]bool{"1.2": true})})

	out, err := svc.ListSpecifications(ListSpecificationsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Families[0].Specifications, "unversioned specs stay")
	assert.Equal(t, 0, out.Families[1].Specifications)

	_, err = svc.ListSections(t.Context(), ListSectionsInput{SpecKey: "old"})
	requireCode(t, err, errors.ErrUnknownKey)
}
