package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Fixture describes participants and internships to load into an empty
// database. Entries reference each other by Key.
type Fixture struct {
	Users       []FixtureUser       `mapstructure:"users"`
	Departments []FixtureDepartment `mapstructure:"departments"`
	Internships []FixtureInternship `mapstructure:"internships"`
}

type FixtureUser struct {
	Key   string `mapstructure:"key"`
	Role  string `mapstructure:"role"`
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

type FixtureDepartment struct {
	Key   string `mapstructure:"key"`
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

type FixtureInternship struct {
	Company  string `mapstructure:"company"`
	Title    string `mapstructure:"title"`
	Status   string `mapstructure:"status"`
	Deadline string `mapstructure:"deadline"` // RFC 3339
}

func validRole(r Role) bool {
	switch r {
	case RoleStudent, RoleCompany, RoleAdvisor, RoleDepartment, RoleAdmin:
		return true
	}
	return false
}

// Validate checks every reference before anything is written.
func (f Fixture) Validate() error {
	var errs []error
	roles := make(map[string]Role, len(f.Users))
	for i, u := range f.Users {
		role := Role(strings.ToUpper(u.Role))
		switch {
		case u.Key == "":
			errs = append(errs, fmt.Errorf("users[%d]: key is required", i))
		case !validRole(role):
			errs = append(errs, fmt.Errorf("users[%d]: unknown role %q", i, u.Role))
		}
		if _, dup := roles[u.Key]; dup {
			errs = append(errs, fmt.Errorf("users[%d]: duplicate key %q", i, u.Key))
		}
		roles[u.Key] = role
	}
	for i, d := range f.Departments {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("departments[%d]: name is required", i))
		}
	}
	for i, in := range f.Internships {
		if roles[in.Company] != RoleCompany {
			errs = append(errs, fmt.Errorf("internships[%d]: %q is not a company user", i, in.Company))
		}
		if _, err := time.Parse(time.RFC3339, in.Deadline); err != nil {
			errs = append(errs, fmt.Errorf("internships[%d]: deadline: %w", i, err))
		}
		switch InternshipStatus(strings.ToUpper(in.Status)) {
		case "", InternshipOpen, InternshipClosed:
		default:
			errs = append(errs, fmt.Errorf("internships[%d]: unknown status %q", i, in.Status))
		}
	}
	return errors.Join(errs...)
}

// SeedResult maps fixture keys to the ids they were stored under.
type SeedResult struct {
	Users       map[string]int64
	Departments map[string]int64
	Internships []int64
}

// Seed loads f in one transaction.
func (c *Client) Seed(ctx context.Context, f Fixture) (*SeedResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	res := &SeedResult{Users: map[string]int64{}, Departments: map[string]int64{}}
	err := c.WithTx(ctx, func(ctx context.Context, g Gateway) error {
		tx := g.(*Client)
		for _, u := range f.Users {
			out, err := tx.CreateUser(ctx, &User{Role: Role(strings.ToUpper(u.Role)), Name: u.Name, Email: u.Email})
			if err != nil {
				return fmt.Errorf("user %q: %w", u.Key, err)
			}
			res.Users[u.Key] = out.ID
		}
		for _, d := range f.Departments {
			out, err := tx.CreateDepartment(ctx, &Department{Name: d.Name, Email: d.Email})
			if err != nil {
				return fmt.Errorf("department %q: %w", d.Name, err)
			}
			if d.Key != "" {
				res.Departments[d.Key] = out.ID
			}
		}
		for _, in := range f.Internships {
			deadline, _ := time.Parse(time.RFC3339, in.Deadline)
			out, err := tx.CreateInternship(ctx, &Internship{
				CompanyID:           res.Users[in.Company],
				Title:               in.Title,
				Status:              InternshipStatus(strings.ToUpper(in.Status)),
				ApplicationDeadline: deadline,
			})
			if err != nil {
				return fmt.Errorf("internship %q: %w", in.Title, err)
			}
			res.Internships = append(res.Internships, out.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
