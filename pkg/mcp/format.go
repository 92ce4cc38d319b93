package mcp

import (
	"fmt"
	"strings"

	"github.com/pario-ai/listings/pkg/models"
)

func formatProperties(props []models.Property) string {
	if len(props) == 0 {
		return "No properties found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-30s %-20s %14s %-20s\n",
		"ID", "Title", "Location", "Price", "Created")
	b.WriteString(strings.Repeat("-", 124) + "\n")
	for _, p := range props {
		fmt.Fprintf(&b, "%-36s %-30s %-20s %14s %-20s\n",
			p.ID, truncate(p.Title, 30), truncate(p.Location, 20), p.Price,
			p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatCacheMetrics(m models.CacheMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cache Metrics\n"+
		"  Hits:      %d\n"+
		"  Misses:    %d\n"+
		"  Total:     %d\n"+
		"  Hit Ratio: %.4f\n",
		m.Hits, m.Misses, m.TotalRequests, m.HitRatio)
	if m.Error != "" {
		fmt.Fprintf(&b, "  Error:     %s\n", m.Error)
	}
	return b.String()
}

func formatInvalidations(records []models.InvalidationRecord) string {
	if len(records) == 0 {
		return "No invalidations found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-15s %-36s %-7s %10s\n",
		"Time", "Event", "Record", "Existed", "Latency")
	b.WriteString(strings.Repeat("-", 92) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-20s %-15s %-36s %-7t %8dus\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Event, r.RecordID, r.Existed, r.LatencyUs)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
