package repo

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
)

func (c *Client) FindUser(ctx context.Context, id int64) (*User, error) {
	q, args := c.b.Select("id", "role", "name", "email").
		From(c.b.Table(tableUsers)).
		Where(entsql.EQ("id", id)).
		Query()

	var u User
	err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&u.ID, &u.Role, &u.Name, &u.Email)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a participant. Used by seeding and tests; account
// management lives outside this service.
func (c *Client) CreateUser(ctx context.Context, u *User) (*User, error) {
	q, args := c.b.Insert(tableUsers).
		Columns("role", "name", "email").
		Values(string(u.Role), u.Name, u.Email).
		Returning("id").
		Query()

	out := *u
	err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&out.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindInternship(ctx context.Context, id int64) (*Internship, error) {
	q, args := c.b.Select("id", "company_id", "title", "status", "application_deadline").
		From(c.b.Table(tableInternships)).
		Where(entsql.EQ("id", id)).
		Query()

	var in Internship
	err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&in.ID, &in.CompanyID, &in.Title, &in.Status, &in.ApplicationDeadline)
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (c *Client) CreateInternship(ctx context.Context, in *Internship) (*Internship, error) {
	status := in.Status
	if status == "" {
		status = InternshipOpen
	}
	q, args := c.b.Insert(tableInternships).
		Columns("company_id", "title", "status", "application_deadline").
		Values(in.CompanyID, in.Title, string(status), in.ApplicationDeadline).
		Returning("id").
		Query()

	out := *in
	out.Status = status
	err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&out.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindDepartment(ctx context.Context, id int64) (*Department, error) {
	q, args := c.b.Select("id", "name", "email").
		From(c.b.Table(tableDepartments)).
		Where(entsql.EQ("id", id)).
		Query()

	var d Department
	err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&d.ID, &d.Name, &d.Email)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDepartment(ctx context.Context, d *Department) (*Department, error) {
	q, args := c.b.Insert(tableDepartments).
		Columns("name", "email").
		Values(d.Name, d.Email).
		Returning("id").
		Query()

	out := *d
	err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&out.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
