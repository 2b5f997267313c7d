package mcp

import "github.com/mark3labs/mcp-go/mcp"

const formatDescription = `Output format: "text" (markdown, default) or "json".`

var listSpecificationsToolDef = mcp.NewTool("list_specifications",
	mcp.WithDescription("List available specification families or get details for a specific family."),
	mcp.WithString("family",
		mcp.Description("Family key (RDF, SPARQL, OWL, SHACL, SKOS, PROV). Omit for overview."),
	),
	mcp.WithString("format", mcp.Description(formatDescription), mcp.Enum("text", "json")),
)

var listSectionsToolDef = mcp.NewTool("list_sections",
	mcp.WithDescription("Get the table of contents for a specification document. Section IDs appear in parentheses."),
	mcp.WithString("spec_key",
		mcp.Required(),
		mcp.Description("Spec key (e.g. 'rdf12-primer', 'sparql12-query')"),
	),
	mcp.WithNumber("depth",
		mcp.Description("TOC depth (1=top level, 2+=nested). Default 2."),
	),
	mcp.WithString("format", mcp.Description(formatDescription), mcp.Enum("text", "json")),
)

var getSectionToolDef = mcp.NewTool("get_section",
	mcp.WithDescription("Get the markdown content of a specific section from a specification."),
	mcp.WithString("spec_key",
		mcp.Required(),
		mcp.Description("Spec key (e.g. 'rdf12-primer')"),
	),
	mcp.WithString("section_id",
		mcp.Required(),
		mcp.Description("Section ID from list_sections() output"),
	),
	mcp.WithString("format", mcp.Description(formatDescription), mcp.Enum("text", "json")),
)

var listResourcesToolDef = mcp.NewTool("list_resources",
	mcp.WithDescription("List all resources (classes, properties) defined in a namespace."),
	mcp.WithString("ns_key",
		mcp.Required(),
		mcp.Description("Namespace key (e.g. 'rdf', 'rdfs', 'owl', 'sh', 'skos', 'prov')"),
	),
	mcp.WithString("format", mcp.Description(formatDescription), mcp.Enum("text", "json")),
)

var getResourceToolDef = mcp.NewTool("get_resource",
	mcp.WithDescription("Get the full definition of a resource from a namespace as Turtle."),
	mcp.WithString("ns_key",
		mcp.Required(),
		mcp.Description("Namespace key (e.g. 'rdf', 'owl')"),
	),
	mcp.WithString("resource",
		mcp.Required(),
		mcp.Description("Local name (e.g. 'type', 'Class', 'Property')"),
	),
	mcp.WithBoolean("include_references",
		mcp.Description("Include triples where resource is used as predicate/object"),
	),
	mcp.WithString("format", mcp.Description(formatDescription), mcp.Enum("text", "json")),
)
