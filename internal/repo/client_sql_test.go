package repo

import (
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/internal/scoring"
)

var sqlNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := NewClient(entsql.OpenDB(dialect.Postgres, db))
	c.now = func() time.Time { return sqlNow }
	return c, mock
}

// stmt builds a regexp matching the given SQL fragments in order.
func stmt(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

func messageRow(rows *sqlmock.Rows, id, sender, receiver int64, text string, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, sender, receiver, "TEXT", text, nil, nil, nil, nil, false, nil, created)
}

func TestFindEngagementForUpdate(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t)

	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(engagementColumns).
			AddRow(int64(1), int64(10), int64(20), "PENDING", "hi", nil, nil, sqlNow, sqlNow)
	}

	mock.ExpectQuery(stmt(`FROM "engagements" WHERE "internship_id" = $1 AND "student_id" = $2`)+`$`).
		WithArgs(int64(10), int64(20)).
		WillReturnRows(row())
	mock.ExpectBegin()
	mock.ExpectQuery(stmt(`FROM "engagements" WHERE "internship_id" = $1 AND "student_id" = $2 FOR UPDATE`)).
		WithArgs(int64(10), int64(20)).
		WillReturnRows(row())
	mock.ExpectCommit()

	e, err := c.FindEngagement(ctx, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, e.Status)

	err = c.WithTx(ctx, func(ctx context.Context, tx Gateway) error {
		e, err := tx.FindEngagementForUpdate(ctx, 10, 20)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(20), e.StudentID)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t)
	text := "hello"

	mock.ExpectQuery(stmt(
		`INSERT INTO "messages" ("sender_id", "receiver_id", "message_type", "text", "file_url", "file_name", "file_type", "file_size", "is_read", "created_at")`,
		`VALUES ($1, $2, $3, $4, NULL, NULL, NULL, NULL, $5, $6)`,
		`RETURNING "id", "sender_id"`,
	)).
		WithArgs(int64(1), int64(2), "TEXT", "hello", false, sqlNow).
		WillReturnRows(messageRow(sqlmock.NewRows(messageColumns), 7, 1, 2, "hello", sqlNow))

	mock.ExpectQuery(stmt(`INSERT INTO "messages"`, `VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)).
		WithArgs(int64(1), int64(2), "FILE", nil, "https://cdn.example/cv.pdf", "cv.pdf", "application/pdf", int64(2048), false, sqlNow).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(int64(8), int64(1), int64(2), "FILE", nil, "https://cdn.example/cv.pdf", "cv.pdf", "application/pdf", int64(2048), false, nil, sqlNow))

	m, err := c.CreateMessage(ctx, &Message{SenderID: 1, ReceiverID: 2, Type: MessageText, Text: &text})
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)
	require.NotNil(t, m.Text)
	assert.Equal(t, "hello", *m.Text)
	assert.Nil(t, m.File)

	m, err = c.CreateMessage(ctx, &Message{
		SenderID: 1, ReceiverID: 2, Type: MessageFile,
		File: &FileMeta{URL: "https://cdn.example/cv.pdf", Name: "cv.pdf", MimeType: "application/pdf", Size: 2048},
	})
	require.NoError(t, err)
	assert.Nil(t, m.Text)
	require.NotNil(t, m.File)
	assert.Equal(t, int64(2048), m.File.Size)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessage_UniqueViolation(t *testing.T) {
	c, mock := newMockClient(t)
	text := "dup"

	mock.ExpectQuery(stmt(`INSERT INTO "messages"`)).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := c.CreateMessage(context.Background(), &Message{SenderID: 1, ReceiverID: 2, Type: MessageText, Text: &text})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMessagesBetween(t *testing.T) {
	c, mock := newMockClient(t)

	rows := sqlmock.NewRows(messageColumns)
	messageRow(rows, 3, 1, 2, "first", sqlNow)
	messageRow(rows, 4, 2, 1, "second", sqlNow.Add(time.Minute))

	mock.ExpectQuery(stmt(
		`FROM "messages" WHERE ("sender_id" = $1 AND "receiver_id" = $2) OR ("sender_id" = $3 AND "receiver_id" = $4)`,
		`ORDER BY "created_at", "id"`,
	)+`$`).
		WithArgs(int64(1), int64(2), int64(2), int64(1)).
		WillReturnRows(rows)

	msgs, err := c.FindMessagesBetween(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(3), msgs[0].ID)
	assert.Equal(t, int64(4), msgs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdateMessagesRead(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectQuery(stmt(`SELECT "id" FROM "messages" WHERE "receiver_id" = $1 AND "is_read" = $2 FOR UPDATE`)).
		WithArgs(int64(2), false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(5)))
	mock.ExpectExec(stmt(`UPDATE "messages" SET "is_read" = $1, "read_at" = $2 WHERE "id" IN ($3, $4) AND "is_read" = $5`)).
		WithArgs(true, sqlNow, int64(3), int64(5), false).
		WillReturnResult(sqlmock.NewResult(0, 2))

	// Newest first from the database; the gateway hands back oldest first.
	recent := sqlmock.NewRows(messageColumns)
	messageRow(recent, 5, 1, 2, "later", sqlNow.Add(time.Minute))
	messageRow(recent, 3, 1, 2, "earlier", sqlNow)
	mock.ExpectQuery(stmt(`FROM "messages" WHERE "id" IN ($1, $2) ORDER BY "created_at" DESC, "id" DESC LIMIT 50`)).
		WithArgs(int64(3), int64(5)).
		WillReturnRows(recent)
	mock.ExpectCommit()

	n, msgs, err := c.BulkUpdateMessagesRead(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(3), msgs[0].ID)
	assert.Equal(t, int64(5), msgs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdateMessagesRead_NothingUnread(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectQuery(stmt(`FOR UPDATE`)).
		WithArgs(int64(2), false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	n, msgs, err := c.BulkUpdateMessagesRead(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdateMessagesRead_RollsBack(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectQuery(stmt(`FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(stmt(`UPDATE "messages"`)).
		WillReturnError(&pq.Error{Code: "57P01"})
	mock.ExpectRollback()

	_, _, err := c.BulkUpdateMessagesRead(context.Background(), 2, 50)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAcceptanceDepartment(t *testing.T) {
	update := stmt(`UPDATE "acceptance_letters" SET "department_id" = $1, "forwarded_at" = $2 WHERE "id" = $3 AND "department_id" IS NULL`)
	find := stmt(`FROM "acceptance_letters" WHERE "id" = $1`)
	letter := func(dept any) *sqlmock.Rows {
		return sqlmock.NewRows(acceptanceColumns).
			AddRow(int64(9), int64(10), int64(20), int64(30), "Welcome", "ACCEPTED", dept, sqlNow, sqlNow)
	}

	t.Run("forwards once", func(t *testing.T) {
		c, mock := newMockClient(t)
		mock.ExpectExec(update).
			WithArgs(int64(4), sqlNow, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(find).WithArgs(int64(9)).WillReturnRows(letter(int64(4)))

		a, err := c.UpdateAcceptanceDepartment(context.Background(), 9, 4)
		require.NoError(t, err)
		require.NotNil(t, a.DepartmentID)
		assert.Equal(t, int64(4), *a.DepartmentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already forwarded", func(t *testing.T) {
		c, mock := newMockClient(t)
		mock.ExpectExec(update).
			WithArgs(int64(5), sqlNow, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(find).WithArgs(int64(9)).WillReturnRows(letter(int64(4)))

		_, err := c.UpdateAcceptanceDepartment(context.Background(), 9, 5)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing letter", func(t *testing.T) {
		c, mock := newMockClient(t)
		mock.ExpectExec(update).
			WithArgs(int64(4), sqlNow, int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(find).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(acceptanceColumns))

		_, err := c.UpdateAcceptanceDepartment(context.Background(), 99, 4)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertFinalEvaluation(t *testing.T) {
	c, mock := newMockClient(t)

	r := scoring.Rubric{
		Attendance: 4, Punctuality: 4, Appearance: 3, Discipline: 4, Initiative: 3,
		Communication: 4, Cooperation: 4, Adaptability: 3, SelfConfidence: 3, AcceptsCriticism: 4,
		TechnicalKnowledge: 4, WorkQuality: 4, ProblemSolving: 3, Responsibility: 2, TeamQuality: 1,
	}
	ev := &FinalEvaluation{CompanyID: 30, StudentID: 20, SupervisorName: "Dr. Rahimi", Rubric: r, TotalPercentage: 88}

	var sets []string
	for _, col := range append(append([]string{"company_id", "student_id", "supervisor_name"}, rubricColumns...),
		"total_percentage", "supervisor_signature", "updated_at") {
		sets = append(sets, `"`+col+`" = "excluded"."`+col+`"`)
	}

	args := []driver.Value{int64(30), int64(20), "Dr. Rahimi",
		4, 4, 3, 4, 3, 4, 4, 3, 3, 4, 4, 4, 3, 2, 1,
		88, nil, sqlNow, sqlNow,
	}
	row := []driver.Value{int64(1), int64(30), int64(20), "Dr. Rahimi",
		int64(4), int64(4), int64(3), int64(4), int64(3), int64(4), int64(4), int64(3),
		int64(3), int64(4), int64(4), int64(4), int64(3), int64(2), int64(1),
		int64(88), nil, sqlNow.Add(-time.Hour), sqlNow,
	}

	mock.ExpectQuery(stmt(
		`INSERT INTO "final_evaluations" ("company_id", "student_id", "supervisor_name", "attendance"`,
		`ON CONFLICT ("company_id", "student_id") DO UPDATE SET `+strings.Join(sets, ", ")+` RETURNING "id"`,
	)).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows(evaluationColumns).AddRow(row...))

	out, err := c.UpsertFinalEvaluation(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 88, out.TotalPercentage)
	assert.Equal(t, r, out.Rubric)
	assert.True(t, out.CreatedAt.Before(out.UpdatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}
