package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// ListSpecificationsRequest represents the arguments for list_specifications.
type ListSpecificationsRequest struct {
	Family string `json:"family,omitempty"`
	Format string `json:"format,omitempty"`
}

// ListSectionsRequest represents the arguments for list_sections.
type ListSectionsRequest struct {
	SpecKey string `json:"spec_key"`
	Depth   int    `json:"depth,omitempty"`
	Format  string `json:"format,omitempty"`
}

// GetSectionRequest represents the arguments for get_section.
type GetSectionRequest struct {
	SpecKey   string `json:"spec_key"`
	SectionID string `json:"section_id"`
	Format    string `json:"format,omitempty"`
}

// ListResourcesRequest represents the arguments for list_resources.
type ListResourcesRequest struct {
	NsKey  string `json:"ns_key"`
	Format string `json:"format,omitempty"`
}

// GetResourceRequest represents the arguments for get_resource.
type GetResourceRequest struct {
	NsKey             string `json:"ns_key"`
	Resource          string `json:"resource"`
	IncludeReferences bool   `json:"include_references,omitempty"`
	Format            string `json:"format,omitempty"`
}

// Handler implementations

// HandleListSpecifications handles the list_specifications tool call.
func (h *Handlers) HandleListSpecifications(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListSpecificationsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.ListSpecifications(ops.ListSpecificationsInput{Family: input.Family})
	if err != nil {
		return errorResult(err), nil
	}
	return formatResult(format, result)
}

// HandleListSections handles the list_sections tool call.
func (h *Handlers) HandleListSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListSectionsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.ListSections(ctx, ops.ListSectionsInput{
		SpecKey: input.SpecKey,
		Depth:   input.Depth,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return formatResult(format, result)
}

// HandleGetSection handles the get_section tool call.
func (h *Handlers) HandleGetSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetSectionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.GetSection(ctx, ops.GetSectionInput{
		SpecKey:   input.SpecKey,
		SectionID: input.SectionID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return formatResult(format, result)
}

// HandleListResources handles the list_resources tool call.
func (h *Handlers) HandleListResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListResourcesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.ListResources(ctx, ops.ListResourcesInput{NsKey: input.NsKey})
	if err != nil {
		return errorResult(err), nil
	}
	return formatResult(format, result)
}

// HandleGetResource handles the get_resource tool call.
func (h *Handlers) HandleGetResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetResourceRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.svc.GetResource(ctx, ops.GetResourceInput{
		NsKey:             input.NsKey,
		Resource:          input.Resource,
		IncludeReferences: input.IncludeReferences,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return formatResult(format, result)
}

// Result helpers

// texter is implemented by every ops output.
type texter interface {
	Text() string
}

func formatResult(format outputFormat, data texter) (*mcp.CallToolResult, error) {
	if format == formatJSON {
		return successResult(data)
	}
	return mcp.NewToolResultText(data.Text()), nil
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// INTERNAL errors never expose their message or details.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if ldErr, ok := errors.As(err); ok {
		msg := ldErr.Message
		// Keep any context added by wrapping.
		if prefix := strings.TrimSuffix(err.Error(), ldErr.Error()); prefix != err.Error() && prefix != "" {
			msg = prefix + msg
		}
		errorObj := map[string]any{
			"code":    ldErr.Code,
			"message": msg,
			"status":  ldErr.Status,
		}
		if ldErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if len(ldErr.Details) > 0 {
			errorObj["details"] = ldErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
