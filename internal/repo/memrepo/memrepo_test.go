package memrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/internal/repo"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seed(t *testing.T) (*Store, repo.User, repo.User, repo.Internship) {
	t.Helper()
	s := New(WithClock(stepClock()))
	company := s.AddUser(repo.User{Role: repo.RoleCompany, Name: "Acme"})
	student := s.AddUser(repo.User{Role: repo.RoleStudent, Name: "Sara"})
	in := s.AddInternship(repo.Internship{
		CompanyID:           company.ID,
		Title:               "Backend intern",
		ApplicationDeadline: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	return s, company, student, in
}

func TestEngagementUniqueness(t *testing.T) {
	ctx := context.Background()
	s, _, student, in := seed(t)

	e, err := s.CreateEngagement(ctx, &repo.Engagement{InternshipID: in.ID, StudentID: student.ID, CoverLetter: "hi"})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusPending, e.Status)

	_, err = s.CreateEngagement(ctx, &repo.Engagement{InternshipID: in.ID, StudentID: student.ID, CoverLetter: "again"})
	assert.ErrorIs(t, err, repo.ErrConflict)

	_, err = s.CreateEngagement(ctx, &repo.Engagement{InternshipID: 999, StudentID: student.ID, CoverLetter: "x"})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s, company, student, in := seed(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, tx repo.Gateway) error {
		if _, err := tx.CreateAcceptance(ctx, &repo.AcceptanceLetter{
			InternshipID: in.ID, StudentID: student.ID, CompanyID: company.ID,
			LetterText: "welcome", Status: repo.DecisionAccepted,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.FindAcceptanceByPair(ctx, in.ID, student.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	err = s.WithTx(ctx, func(ctx context.Context, tx repo.Gateway) error {
		_, err := tx.CreateAcceptance(ctx, &repo.AcceptanceLetter{
			InternshipID: in.ID, StudentID: student.ID, CompanyID: company.ID,
			LetterText: "welcome", Status: repo.DecisionAccepted,
		})
		return err
	})
	require.NoError(t, err)

	_, err = s.FindAcceptanceByPair(ctx, in.ID, student.ID)
	assert.NoError(t, err)
}

func TestUpdateAcceptanceDepartmentOnce(t *testing.T) {
	ctx := context.Background()
	s, company, student, in := seed(t)
	dep := s.AddDepartment(repo.Department{Name: "Computer Engineering"})

	a, err := s.CreateAcceptance(ctx, &repo.AcceptanceLetter{
		InternshipID: in.ID, StudentID: student.ID, CompanyID: company.ID,
		LetterText: "welcome", Status: repo.DecisionAccepted,
	})
	require.NoError(t, err)
	assert.Nil(t, a.DepartmentID)

	a, err = s.UpdateAcceptanceDepartment(ctx, a.ID, dep.ID)
	require.NoError(t, err)
	require.NotNil(t, a.DepartmentID)
	assert.Equal(t, dep.ID, *a.DepartmentID)
	assert.NotNil(t, a.ForwardedAt)

	_, err = s.UpdateAcceptanceDepartment(ctx, a.ID, dep.ID)
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestMessagesOrderingAndBulkRead(t *testing.T) {
	ctx := context.Background()
	s, company, student, _ := seed(t)

	for i := 0; i < 5; i++ {
		text := "m"
		from, to := company.ID, student.ID
		if i%2 == 1 {
			from, to = student.ID, company.ID
		}
		_, err := s.CreateMessage(ctx, &repo.Message{SenderID: from, ReceiverID: to, Type: repo.MessageText, Text: &text})
		require.NoError(t, err)
	}

	msgs, err := s.FindMessagesBetween(ctx, student.ID, company.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i := 1; i < len(msgs); i++ {
		assert.Less(t, msgs[i-1].ID, msgs[i].ID)
	}

	n, err := s.CountUnreadForUser(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	groups, err := s.GroupUnreadBySender(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, repo.SenderCount{SenderID: company.ID, SenderRole: repo.RoleCompany, SenderName: "Acme", Count: 3}, groups[0])

	flipped, recent, err := s.BulkUpdateMessagesRead(ctx, student.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, flipped)
	require.Len(t, recent, 2)
	assert.Less(t, recent[0].ID, recent[1].ID)
	assert.Equal(t, msgs[4].ID, recent[1].ID)

	flipped, recent, err = s.BulkUpdateMessagesRead(ctx, student.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, flipped)
	assert.Empty(t, recent)
}

func TestUpdateMessageReadFlipsOnce(t *testing.T) {
	ctx := context.Background()
	s, company, student, _ := seed(t)

	text := "hello"
	m, err := s.CreateMessage(ctx, &repo.Message{SenderID: company.ID, ReceiverID: student.ID, Type: repo.MessageText, Text: &text})
	require.NoError(t, err)

	got, flipped, err := s.UpdateMessageRead(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)
	first := *got.ReadAt

	got, flipped, err = s.UpdateMessageRead(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.Equal(t, first, *got.ReadAt)
}

func TestUpsertFinalEvaluationKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, company, student, _ := seed(t)

	first, err := s.UpsertFinalEvaluation(ctx, &repo.FinalEvaluation{CompanyID: company.ID, StudentID: student.ID, SupervisorName: "A", TotalPercentage: 40})
	require.NoError(t, err)

	second, err := s.UpsertFinalEvaluation(ctx, &repo.FinalEvaluation{CompanyID: company.ID, StudentID: student.ID, SupervisorName: "B", TotalPercentage: 70})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, "B", second.SupervisorName)
}

func TestSetFailure(t *testing.T) {
	ctx := context.Background()
	s, _, student, _ := seed(t)

	s.SetFailure(repo.ErrUnavailable)
	_, err := s.FindUser(ctx, student.ID)
	assert.ErrorIs(t, err, repo.ErrUnavailable)

	s.SetFailure(nil)
	_, err = s.FindUser(ctx, student.ID)
	assert.NoError(t, err)
}
