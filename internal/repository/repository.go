// Package repository persists plan runs in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"strings"
)

// ListFilter filters and pages list queries.
type ListFilter struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
	Mechanism  string `json:"mechanism,omitempty"`
	Profile    string `json:"profile,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
	OrderBy    string `json:"order_by,omitempty"`
	OrderDir   string `json:"order_dir,omitempty"` // asc/desc
}

// DefaultListFilter returns the newest-first filter.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset:   0,
		Limit:    20,
		OrderBy:  "generated_at",
		OrderDir: "desc",
	}
}

// WithLimit sets the page size.
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the page offset.
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithSnapshot restricts the list to one snapshot.
func (f ListFilter) WithSnapshot(snapshotID string) ListFilter {
	f.SnapshotID = snapshotID
	return f
}

// WithDateRange restricts the list to runs inside [from, to].
func (f ListFilter) WithDateRange(from, to string) ListFilter {
	f.From = from
	f.To = to
	return f
}

// orderClause returns a whitelisted ORDER BY column and direction.
func (f ListFilter) orderClause(allowed ...string) (string, string) {
	col := allowed[0]
	for _, a := range allowed {
		if f.OrderBy == a {
			col = a
		}
	}
	dir := "DESC"
	if strings.EqualFold(f.OrderDir, "asc") {
		dir = "ASC"
	}
	return col, dir
}

func (f ListFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return 20
	case f.Limit > 500:
		return 500
	}
	return f.Limit
}

// DB is the query surface shared by *database.DB and *sql.Tx.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxDB is a DB able to run transactions.
type TxDB interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}
