// Package mcp serves listings data and cache metrics to MCP clients over
// stdio using JSON-RPC 2.0.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/models"
)

// PropertySource lists the property collection. cache.PropertyCache satisfies it.
type PropertySource interface {
	AllProperties(ctx context.Context) ([]models.Property, error)
}

// MetricsSource reports cache metrics. metrics.Reporter satisfies it.
type MetricsSource interface {
	CacheMetrics(ctx context.Context) models.CacheMetrics
}

// InvalidationSource searches the invalidation audit log. audit.Logger satisfies it.
type InvalidationSource interface {
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.InvalidationRecord, error)
}

// Server is a line-delimited JSON-RPC MCP server.
type Server struct {
	properties PropertySource
	metrics    MetricsSource
	audit      InvalidationSource
	log        *zap.Logger
	version    string
}

// New creates a Server. audit may be nil when auditing is disabled.
func New(props PropertySource, m MetricsSource, audit InvalidationSource, log *zap.Logger, version string) *Server {
	return &Server{
		properties: props,
		metrics:    m,
		audit:      audit,
		log:        logging.OrNop(log),
		version:    version,
	}
}

// Run reads one request per line from r and writes responses to w.
// It blocks until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, rpcError(nil, CodeParseError, "parse error"))
			continue
		}

		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return result(req.ID, InitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo:      ServerInfo{Name: "listings", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "ping":
		return result(req.ID, map[string]any{})
	case "tools/list":
		return result(req.ID, ToolsListResult{Tools: allTools})
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcError(req.ID, CodeInvalidParams, "invalid params")
		}
		handler, ok := toolHandlers[params.Name]
		if !ok {
			return result(req.ID, errorResult("unknown tool: %s", params.Name))
		}
		return result(req.ID, handler(ctx, s, params.Arguments))
	default:
		return rpcError(req.ID, CodeMethodNotFound, "unknown method: %s", req.Method)
	}
}

func (s *Server) write(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("mcp: marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.log.Error("mcp: write response", zap.Error(err))
	}
}
