package repo

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
)

func (c *Client) CreateWeeklyReport(ctx context.Context, r *WeeklyReport) (*WeeklyReport, error) {
	q, args := c.b.Insert(tableReports).
		Columns("company_id", "student_id", "week_number", "activity", "created_at").
		Values(r.CompanyID, r.StudentID, r.WeekNumber, r.Activity, c.now()).
		Returning("id", "company_id", "student_id", "week_number", "activity", "created_at").
		Query()

	var out WeeklyReport
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&out.ID, &out.CompanyID, &out.StudentID, &out.WeekNumber, &out.Activity, &out.CreatedAt)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}
