package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
)

var testProjectColumns = []string{
	"id", "internship_id", "student_id", "company_id", "description",
	"project_url", "submitted_at", "created_at",
}

func scanTestProject(rows *entsql.Rows, p *TestProject) error {
	var url sql.NullString
	var submitted sql.NullTime
	if err := rows.Scan(&p.ID, &p.InternshipID, &p.StudentID, &p.CompanyID, &p.Description,
		&url, &submitted, &p.CreatedAt); err != nil {
		return err
	}
	p.ProjectURL = nullString(url)
	p.SubmittedAt = nullTime(submitted)
	return nil
}

func (c *Client) findTestProject(ctx context.Context, pred *entsql.Predicate) (*TestProject, error) {
	q, args := c.b.Select(testProjectColumns...).
		From(c.b.Table(tableTestProjects)).
		Where(pred).
		Query()

	var p TestProject
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanTestProject(rows, &p)
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) FindTestProject(ctx context.Context, id int64) (*TestProject, error) {
	return c.findTestProject(ctx, entsql.EQ("id", id))
}

func (c *Client) FindTestProjectByPair(ctx context.Context, internshipID, studentID int64) (*TestProject, error) {
	return c.findTestProject(ctx, entsql.And(
		entsql.EQ("internship_id", internshipID),
		entsql.EQ("student_id", studentID),
	))
}

func (c *Client) CreateTestProject(ctx context.Context, p *TestProject) (*TestProject, error) {
	q, args := c.b.Insert(tableTestProjects).
		Columns("internship_id", "student_id", "company_id", "description", "created_at").
		Values(p.InternshipID, p.StudentID, p.CompanyID, p.Description, c.now()).
		Returning(testProjectColumns...).
		Query()

	var out TestProject
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanTestProject(rows, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTestProjectURL(ctx context.Context, id int64, url string) (*TestProject, error) {
	q, args := c.b.Update(tableTestProjects).
		Set("project_url", url).
		Set("submitted_at", c.now()).
		Where(entsql.EQ("id", id)).
		Query()

	n, err := c.exec(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return c.FindTestProject(ctx, id)
}
