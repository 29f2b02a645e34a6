package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
)

var acceptanceColumns = []string{
	"id", "internship_id", "student_id", "company_id", "letter_text",
	"status", "department_id", "forwarded_at", "created_at",
}

func scanAcceptance(rows *entsql.Rows, a *AcceptanceLetter) error {
	var dept sql.NullInt64
	var forwarded sql.NullTime
	if err := rows.Scan(&a.ID, &a.InternshipID, &a.StudentID, &a.CompanyID, &a.LetterText,
		&a.Status, &dept, &forwarded, &a.CreatedAt); err != nil {
		return err
	}
	a.DepartmentID = nullInt64(dept)
	a.ForwardedAt = nullTime(forwarded)
	return nil
}

func (c *Client) findAcceptance(ctx context.Context, p *entsql.Predicate) (*AcceptanceLetter, error) {
	q, args := c.b.Select(acceptanceColumns...).
		From(c.b.Table(tableAcceptances)).
		Where(p).
		Query()

	var a AcceptanceLetter
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanAcceptance(rows, &a)
	}); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) FindAcceptance(ctx context.Context, id int64) (*AcceptanceLetter, error) {
	return c.findAcceptance(ctx, entsql.EQ("id", id))
}

func (c *Client) FindAcceptanceByPair(ctx context.Context, internshipID, studentID int64) (*AcceptanceLetter, error) {
	return c.findAcceptance(ctx, entsql.And(
		entsql.EQ("internship_id", internshipID),
		entsql.EQ("student_id", studentID),
	))
}

func (c *Client) CreateAcceptance(ctx context.Context, a *AcceptanceLetter) (*AcceptanceLetter, error) {
	q, args := c.b.Insert(tableAcceptances).
		Columns("internship_id", "student_id", "company_id", "letter_text", "status", "created_at").
		Values(a.InternshipID, a.StudentID, a.CompanyID, a.LetterText, string(a.Status), c.now()).
		Returning(acceptanceColumns...).
		Query()

	var out AcceptanceLetter
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanAcceptance(rows, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAcceptanceDepartment(ctx context.Context, id, departmentID int64) (*AcceptanceLetter, error) {
	q, args := c.b.Update(tableAcceptances).
		Set("department_id", departmentID).
		Set("forwarded_at", c.now()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.IsNull("department_id"),
		)).
		Query()

	n, err := c.exec(ctx, q, args)
	if err != nil {
		return nil, err
	}
	a, err := c.FindAcceptance(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrConflict
	}
	return a, nil
}
