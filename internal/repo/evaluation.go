package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
)

var rubricColumns = []string{
	"attendance", "punctuality", "appearance", "discipline", "initiative",
	"communication", "cooperation", "adaptability", "self_confidence", "accepts_criticism",
	"technical_knowledge", "work_quality", "problem_solving", "responsibility", "team_quality",
}

var evaluationColumns = append(append([]string{
	"id", "company_id", "student_id", "supervisor_name",
}, rubricColumns...), "total_percentage", "supervisor_signature", "created_at", "updated_at")

func scanEvaluation(rows *entsql.Rows, ev *FinalEvaluation) error {
	var sig sql.NullString
	r := &ev.Rubric
	if err := rows.Scan(&ev.ID, &ev.CompanyID, &ev.StudentID, &ev.SupervisorName,
		&r.Attendance, &r.Punctuality, &r.Appearance, &r.Discipline, &r.Initiative,
		&r.Communication, &r.Cooperation, &r.Adaptability, &r.SelfConfidence, &r.AcceptsCriticism,
		&r.TechnicalKnowledge, &r.WorkQuality, &r.ProblemSolving, &r.Responsibility, &r.TeamQuality,
		&ev.TotalPercentage, &sig, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return err
	}
	ev.SupervisorSignature = nullString(sig)
	return nil
}

func (c *Client) FindFinalEvaluation(ctx context.Context, companyID, studentID int64) (*FinalEvaluation, error) {
	q, args := c.b.Select(evaluationColumns...).
		From(c.b.Table(tableEvaluations)).
		Where(entsql.And(
			entsql.EQ("company_id", companyID),
			entsql.EQ("student_id", studentID),
		)).
		Query()

	var ev FinalEvaluation
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanEvaluation(rows, &ev)
	}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpsertFinalEvaluation keeps one evaluation per (company, student); a
// resubmission replaces every field except created_at.
func (c *Client) UpsertFinalEvaluation(ctx context.Context, ev *FinalEvaluation) (*FinalEvaluation, error) {
	now := c.now()
	r := ev.Rubric

	cols := append(append([]string{"company_id", "student_id", "supervisor_name"}, rubricColumns...),
		"total_percentage", "supervisor_signature", "created_at", "updated_at")
	vals := []any{
		ev.CompanyID, ev.StudentID, ev.SupervisorName,
		r.Attendance, r.Punctuality, r.Appearance, r.Discipline, r.Initiative,
		r.Communication, r.Cooperation, r.Adaptability, r.SelfConfidence, r.AcceptsCriticism,
		r.TechnicalKnowledge, r.WorkQuality, r.ProblemSolving, r.Responsibility, r.TeamQuality,
		ev.TotalPercentage, ev.SupervisorSignature, now, now,
	}

	q, args := c.b.Insert(tableEvaluations).
		Columns(cols...).
		Values(vals...).
		OnConflict(
			entsql.ConflictColumns("company_id", "student_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, col := range cols {
					if col == "created_at" {
						continue
					}
					u.SetExcluded(col)
				}
			}),
		).
		Returning(evaluationColumns...).
		Query()

	var out FinalEvaluation
	if err := c.queryOne(ctx, q, args, func(rows *entsql.Rows) error {
		return scanEvaluation(rows, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}
