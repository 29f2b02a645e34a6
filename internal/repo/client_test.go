package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pq.Error{Code: "23505"}, ErrConflict},
		{"foreign key violation", &pq.Error{Code: "23503"}, ErrNotFound},
		{"connection failure", &pq.Error{Code: "08006"}, ErrUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, ErrUnavailable},
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), ErrUnavailable},
		{"deadline", context.DeadlineExceeded, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classify(nil))

	other := &pq.Error{Code: "22001"}
	assert.Same(t, error(other), classify(other))
	assert.ErrorIs(t, classify(ErrConflict), ErrConflict)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("op", nil))
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(Wrap("op", classify(driver.ErrBadConn))))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(Wrap("op", ErrNotFound)))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(Wrap("op", ErrConflict)))

	err := Wrap("load engagement", errors.New("boom"))
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, "internal server error", apperr.Message(err))
}

func TestStatementShapes(t *testing.T) {
	b := entsql.Dialect(dialect.Postgres)

	q, args := b.Update(tableAcceptances).
		Set("department_id", int64(4)).
		Where(entsql.And(entsql.EQ("id", int64(9)), entsql.IsNull("department_id"))).
		Query()
	assert.Contains(t, q, `UPDATE "acceptance_letters" SET "department_id" = $1`)
	assert.Contains(t, q, `"department_id" IS NULL`)
	require.Len(t, args, 2)

	q, _ = b.Select(messageColumns...).
		From(b.Table(tableMessages)).
		Where(entsql.EQ("id", int64(1))).
		Query()
	assert.Contains(t, q, `FROM "messages" WHERE "id" = $1`)
}

func TestParsers(t *testing.T) {
	st, ok := ParseEngagementStatus(" applied ")
	require.True(t, ok)
	assert.Equal(t, StatusPending, st)

	_, ok = ParseEngagementStatus("ARCHIVED")
	assert.False(t, ok)

	d, ok := ParseDecision("rejected")
	require.True(t, ok)
	assert.Equal(t, StatusRejected, d.Status())

	_, ok = ParseMessageType("VIDEO")
	assert.False(t, ok)

	assert.Equal(t, MessageText, DeriveMessageType(true, false))
	assert.Equal(t, MessageFile, DeriveMessageType(false, true))
	assert.Equal(t, MessageTextAndFile, DeriveMessageType(true, true))
}
