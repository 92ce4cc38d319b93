package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pario-ai/listings/pkg/models"
)

type propertiesArgs struct {
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

type invalidationsArgs struct {
	Event    string `json:"event"`
	RecordID string `json:"record_id"`
	Since    string `json:"since"`
	Limit    int    `json:"limit"`
}

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"listings_properties":    handleProperties,
	"listings_cache_metrics": handleCacheMetrics,
	"listings_invalidations": handleInvalidations,
}

var allTools = []ToolDefinition{
	{
		Name:        "listings_properties",
		Description: "List property listings, newest first. Reads go through the collection cache.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "Case-insensitive substring match on location (optional)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum rows to return (optional)",
				},
			},
		},
	},
	{
		Name:        "listings_cache_metrics",
		Description: "Show store-wide cache hits, misses, hit ratio and total lookups.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "listings_invalidations",
		Description: "Search the cache invalidation audit log.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event": map[string]any{
					"type":        "string",
					"description": "record_written or record_deleted (optional)",
				},
				"record_id": map[string]any{
					"type":        "string",
					"description": "Filter by property id (optional)",
				},
				"since": map[string]any{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format (optional)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum rows to return (optional, default 100)",
				},
			},
		},
	},
}

func handleProperties(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args propertiesArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	props, err := s.properties.AllProperties(ctx)
	if err != nil {
		return errorResult("Error fetching properties: %v", err)
	}

	if args.Location != "" {
		want := strings.ToLower(args.Location)
		filtered := props[:0:0]
		for _, p := range props {
			if strings.Contains(strings.ToLower(p.Location), want) {
				filtered = append(filtered, p)
			}
		}
		props = filtered
	}
	if args.Limit > 0 && len(props) > args.Limit {
		props = props[:args.Limit]
	}
	return textResult(formatProperties(props))
}

func handleCacheMetrics(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	m := s.metrics.CacheMetrics(ctx)
	if m.Error != "" {
		return errorResult("%s", formatCacheMetrics(m))
	}
	return textResult(formatCacheMetrics(m))
}

func handleInvalidations(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.audit == nil {
		return textResult("Invalidation audit is not enabled.")
	}
	var args invalidationsArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	opts := models.AuditQueryOpts{Event: args.Event, RecordID: args.RecordID, Limit: args.Limit}
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): %v", err)
		}
		opts.Since = t
	}

	records, err := s.audit.Query(ctx, opts)
	if err != nil {
		return errorResult("Error searching invalidations: %v", err)
	}
	return textResult(formatInvalidations(records))
}
