package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
)

var engagementColumns = []string{
	"id", "internship_id", "student_id", "status", "cover_letter",
	"resume_url", "portfolio_url", "applied_at", "updated_at",
}

func scanEngagement(rows *entsql.Rows, e *Engagement) error {
	var resume, portfolio sql.NullString
	if err := rows.Scan(&e.ID, &e.InternshipID, &e.StudentID, &e.Status, &e.CoverLetter,
		&resume, &portfolio, &e.AppliedAt, &e.UpdatedAt); err != nil {
		return err
	}
	e.ResumeURL = nullString(resume)
	e.PortfolioURL = nullString(portfolio)
	return nil
}

func (c *Client) FindEngagement(ctx context.Context, internshipID, studentID int64) (*Engagement, error) {
	return c.findEngagement(ctx, c.selectEngagement(internshipID, studentID))
}

// FindEngagementForUpdate locks the row so a concurrent status change waits
// for this transaction to finish before reading it.
func (c *Client) FindEngagementForUpdate(ctx context.Context, internshipID, studentID int64) (*Engagement, error) {
	return c.findEngagement(ctx, c.selectEngagement(internshipID, studentID).ForUpdate())
}

func (c *Client) selectEngagement(internshipID, studentID int64) *entsql.Selector {
	return c.b.Select(engagementColumns...).
		From(c.b.Table(tableEngagements)).
		Where(entsql.And(
			entsql.EQ("internship_id", internshipID),
			entsql.EQ("student_id", studentID),
		))
}

func (c *Client) findEngagement(ctx context.Context, sel *entsql.Selector) (*Engagement, error) {
	q, args := sel.Query()

	var e Engagement
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanEngagement(rows, &e)
	}); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) CreateEngagement(ctx context.Context, e *Engagement) (*Engagement, error) {
	now := c.now()
	status := e.Status
	if status == "" {
		status = StatusPending
	}
	q, args := c.b.Insert(tableEngagements).
		Columns("internship_id", "student_id", "status", "cover_letter",
			"resume_url", "portfolio_url", "applied_at", "updated_at").
		Values(e.InternshipID, e.StudentID, string(status), e.CoverLetter,
			e.ResumeURL, e.PortfolioURL, now, now).
		Returning(engagementColumns...).
		Query()

	var out Engagement
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanEngagement(rows, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEngagementStatus(ctx context.Context, internshipID, studentID int64, status EngagementStatus) (*Engagement, error) {
	q, args := c.b.Update(tableEngagements).
		Set("status", string(status)).
		Set("updated_at", c.now()).
		Where(entsql.And(
			entsql.EQ("internship_id", internshipID),
			entsql.EQ("student_id", studentID),
		)).
		Query()

	n, err := c.exec(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return c.FindEngagement(ctx, internshipID, studentID)
}
