package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := h.ds.Today(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, view)
}

func (h *handlers) routineLibrary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	routines, err := h.ds.ListRoutines(ctx, "")
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, routines)
}

func (h *handlers) progressSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sum, err := h.ds.ProgressSummary(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, sum)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
