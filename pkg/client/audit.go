package client

import (
	"context"

	"github.com/darmiel/privaudit/internal/api"
	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/service"
)

type ListEntriesOpts struct {
	// Limit returns the newest *Limit entries. Nil returns all entries.
	Limit *uint

	// Filter is an expression, e.g. `risk == "high" && duration_ms > 100`.
	Filter string

	Category core.Category
	Status   core.Status
	Risk     core.RiskLevel
}

// ListEntries retrieves the latest audit entries from the server, oldest first.
func (c *Client) ListEntries(ctx context.Context, opts ListEntriesOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.EntriesRoute)
	if opts.Limit != nil {
		ub = ub.addQueryParam("limit", *opts.Limit)
	}
	if opts.Filter != "" {
		ub = ub.addQueryParam("filter", opts.Filter)
	}
	if opts.Category != "" {
		ub = ub.addQueryParam("category", opts.Category)
	}
	if opts.Status != "" {
		ub = ub.addQueryParam("status", opts.Status)
	}
	if opts.Risk != "" {
		ub = ub.addQueryParam("risk", opts.Risk)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}

func (c *Client) GetEntry(ctx context.Context, id string) (*core.AuditEntry, string, error) {
	var resp core.AuditEntry
	correlation, err := c.get(ctx, c.url().
		setPath(api.EntryRoute).
		setPathParam("id", id).
		build(), &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}

// AppendEntry records a new entry on the server and returns it as stored.
func (c *Client) AppendEntry(ctx context.Context, req service.AppendRequest) (*core.AuditEntry, string, error) {
	var resp core.AuditEntry
	correlation, err := c.post(ctx, c.url().
		setPath(api.EntriesRoute).
		build(), req, &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}

func (c *Client) Stats(ctx context.Context) (*core.AuditStats, string, error) {
	var resp core.AuditStats
	correlation, err := c.get(ctx, c.url().
		setPath(api.StatsRoute).
		build(), &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}

func (c *Client) Snapshot(ctx context.Context) (*core.Snapshot, string, error) {
	var resp core.Snapshot
	correlation, err := c.get(ctx, c.url().
		setPath(api.SnapshotRoute).
		build(), &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}

// Export asks the server to write a snapshot to its configured exporter.
func (c *Client) Export(ctx context.Context) (*core.ExportResult, string, error) {
	var resp core.ExportResult
	correlation, err := c.post(ctx, c.url().
		setPath(api.ExportRoute).
		build(), nil, &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}
