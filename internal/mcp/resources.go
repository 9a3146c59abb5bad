package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftmap/internal/volume"
)

func (h *handlers) muscleGroups(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	groups, err := h.ds.MuscleGroups(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, groups)
}

func (h *handlers) weeklyVolume(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	heatmap, err := h.ds.Heatmap(ctx, UserIDFromContext(ctx), HeatmapQuery{Days: 7, Mode: volume.ModeGroup})
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, heatmap)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
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
