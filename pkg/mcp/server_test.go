package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pario-ai/listings/pkg/models"
)

type fakeProperties struct {
	props []models.Property
	err   error
}

func (f *fakeProperties) AllProperties(context.Context) ([]models.Property, error) {
	return f.props, f.err
}

type fakeMetrics struct{ m models.CacheMetrics }

func (f fakeMetrics) CacheMetrics(context.Context) models.CacheMetrics { return f.m }

type fakeAudit struct {
	got     models.AuditQueryOpts
	records []models.InvalidationRecord
}

func (f *fakeAudit) Query(_ context.Context, opts models.AuditQueryOpts) ([]models.InvalidationRecord, error) {
	f.got = opts
	return f.records, nil
}

func sampleProps() []models.Property {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Property{
		{ID: "b", Title: "Loft", Price: 20000000, Location: "Berlin", CreatedAt: now},
		{ID: "a", Title: "Cottage", Price: 10000000, Location: "Bath", CreatedAt: now.Add(-time.Hour)},
	}
}

func sendAndReceive(t *testing.T, srv *Server, req Request) Response {
	t.Helper()
	line, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	line = append(line, '\n')

	var out bytes.Buffer
	if err := srv.Run(context.Background(), bytes.NewReader(line), &out); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, out.String())
	}
	return resp
}

func callTool(t *testing.T, srv *Server, name string, args any) ToolCallResult {
	t.Helper()
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	raw, _ := json.Marshal(params)
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`7`),
		Method:  "tools/call",
		Params:  raw,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	b, _ := json.Marshal(resp.Result)
	var result ToolCallResult
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatal(err)
	}
	return result
}

func newTestServer() (*Server, *fakeAudit) {
	a := &fakeAudit{}
	return New(&fakeProperties{props: sampleProps()}, fakeMetrics{}, a, nil, "test"), a
}

func TestInitialize(t *testing.T) {
	srv, _ := newTestServer()
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "initialize"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	b, _ := json.Marshal(resp.Result)
	var result InitializeResult
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatal(err)
	}
	if result.ServerInfo.Name != "listings" || result.ServerInfo.Version != "test" {
		t.Errorf("unexpected server info: %+v", result.ServerInfo)
	}
}

func TestToolsList(t *testing.T) {
	srv, _ := newTestServer()
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`2`), Method: "tools/list"})
	b, _ := json.Marshal(resp.Result)
	var result ToolsListResult
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Tools) != len(toolHandlers) {
		t.Fatalf("expected %d tools, got %d", len(toolHandlers), len(result.Tools))
	}
	for _, tool := range result.Tools {
		if _, ok := toolHandlers[tool.Name]; !ok {
			t.Errorf("tool %s has no handler", tool.Name)
		}
	}
}

func TestToolCallProperties(t *testing.T) {
	srv, _ := newTestServer()
	result := callTool(t, srv, "listings_properties", nil)
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result)
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "Loft") || !strings.Contains(text, "200000.00") {
		t.Errorf("expected listing table, got:\n%s", text)
	}
	if strings.Index(text, "Loft") > strings.Index(text, "Cottage") {
		t.Error("expected newest first")
	}
}

func TestToolCallPropertiesFilter(t *testing.T) {
	srv, _ := newTestServer()
	result := callTool(t, srv, "listings_properties", map[string]any{"location": "bath"})
	text := result.Content[0].Text
	if strings.Contains(text, "Loft") || !strings.Contains(text, "Cottage") {
		t.Errorf("expected only Bath listing, got:\n%s", text)
	}

	result = callTool(t, srv, "listings_properties", map[string]any{"limit": 1})
	if strings.Contains(result.Content[0].Text, "Cottage") {
		t.Error("expected limit to apply")
	}
}

func TestToolCallPropertiesError(t *testing.T) {
	srv := New(&fakeProperties{err: errors.New("database is locked")}, fakeMetrics{}, nil, nil, "test")
	result := callTool(t, srv, "listings_properties", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestToolCallCacheMetrics(t *testing.T) {
	srv := New(&fakeProperties{}, fakeMetrics{m: models.CacheMetrics{Hits: 3, Misses: 1, HitRatio: 0.75, TotalRequests: 4}}, nil, nil, "test")
	result := callTool(t, srv, "listings_cache_metrics", nil)
	if result.IsError {
		t.Fatal("unexpected error result")
	}
	if !strings.Contains(result.Content[0].Text, "0.7500") {
		t.Errorf("expected hit ratio, got:\n%s", result.Content[0].Text)
	}

	srv = New(&fakeProperties{}, fakeMetrics{m: models.CacheMetrics{Error: "store down"}}, nil, nil, "test")
	result = callTool(t, srv, "listings_cache_metrics", nil)
	if !result.IsError || !strings.Contains(result.Content[0].Text, "store down") {
		t.Errorf("expected degraded metrics, got %+v", result)
	}
}

func TestToolCallInvalidations(t *testing.T) {
	srv, a := newTestServer()
	a.records = []models.InvalidationRecord{{Event: "record_deleted", RecordID: "a", Existed: true, CreatedAt: time.Now()}}

	result := callTool(t, srv, "listings_invalidations", map[string]any{"record_id": "a", "since": "2026-01-01"})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}
	if a.got.RecordID != "a" || a.got.Since.IsZero() {
		t.Errorf("filters not passed through: %+v", a.got)
	}
	if !strings.Contains(result.Content[0].Text, "record_deleted") {
		t.Errorf("expected record in output, got:\n%s", result.Content[0].Text)
	}

	result = callTool(t, srv, "listings_invalidations", map[string]any{"since": "yesterday"})
	if !result.IsError {
		t.Error("expected error for bad date")
	}
}

func TestToolCallInvalidationsDisabled(t *testing.T) {
	srv := New(&fakeProperties{}, fakeMetrics{}, nil, nil, "test")
	result := callTool(t, srv, "listings_invalidations", nil)
	if !strings.Contains(result.Content[0].Text, "not enabled") {
		t.Errorf("expected disabled message, got %q", result.Content[0].Text)
	}
}

func TestUnknownTool(t *testing.T) {
	srv, _ := newTestServer()
	result := callTool(t, srv, "nope", nil)
	if !result.IsError {
		t.Error("expected error result for unknown tool")
	}
}

func TestNotificationNoResponse(t *testing.T) {
	srv, _ := newTestServer()
	line := []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n")
	var out bytes.Buffer
	if err := srv.Run(context.Background(), bytes.NewReader(line), &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestParseAndMethodErrors(t *testing.T) {
	srv, _ := newTestServer()
	in := "not json\n" + `{"jsonrpc":"2.0","id":9,"method":"bogus"}` + "\n"
	var out bytes.Buffer
	if err := srv.Run(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(lines))
	}
	var first, second Response
	_ = json.Unmarshal([]byte(lines[0]), &first)
	_ = json.Unmarshal([]byte(lines[1]), &second)
	if first.Error == nil || first.Error.Code != CodeParseError {
		t.Errorf("expected parse error, got %+v", first.Error)
	}
	if second.Error == nil || second.Error.Code != CodeMethodNotFound {
		t.Errorf("expected method not found, got %+v", second.Error)
	}
}
