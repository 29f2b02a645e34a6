package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"
)

const (
	tableUsers        = "users"
	tableInternships  = "internships"
	tableDepartments  = "departments"
	tableEngagements  = "engagements"
	tableAcceptances  = "acceptance_letters"
	tableTestProjects = "test_projects"
	tableEvaluations  = "final_evaluations"
	tableReports      = "weekly_reports"
	tableMessages     = "messages"
)

// Client is the postgres implementation of Gateway. Statements are built
// with ent's dialect/sql builder and executed on the ent driver.
type Client struct {
	drv  *entsql.Driver
	eq   dialect.ExecQuerier
	b    *entsql.DialectBuilder
	inTx bool
	now  func() time.Time
}

var _ Gateway = (*Client)(nil)

func NewClient(drv *entsql.Driver) *Client {
	return &Client{
		drv: drv,
		eq:  drv,
		b:   entsql.Dialect(dialect.Postgres),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (c *Client) Close() error {
	return c.drv.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return classify(c.drv.DB().PingContext(ctx))
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context, tx Gateway) error) error {
	if c.inTx {
		return fn(ctx, c)
	}

	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return classify(err)
	}
	txc := &Client{drv: c.drv, eq: tx, b: c.b, inTx: true, now: c.now}

	if err := fn(ctx, txc); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *Client) query(ctx context.Context, query string, args []any, scan func(rows *entsql.Rows) error) error {
	rows := &entsql.Rows{}
	if err := c.eq.Query(ctx, query, args, rows); err != nil {
		return classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return classify(err)
		}
	}
	return classify(rows.Err())
}

// queryOne scans the first row only and reports ErrNotFound for none.
func (c *Client) queryOne(ctx context.Context, query string, args []any, scan func(rows *entsql.Rows) error) error {
	found := false
	err := c.query(ctx, query, args, func(rows *entsql.Rows) error {
		if found {
			return nil
		}
		found = true
		return scan(rows)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (c *Client) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res sql.Result
	if err := c.eq.Exec(ctx, query, args, &res); err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// classify maps driver errors onto the gateway sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case pqErr.Code == "23503":
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
