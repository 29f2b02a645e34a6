package repo

import (
	"context"
	"errors"

	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

var (
	ErrNotFound    = errors.New("repo: not found")
	ErrConflict    = errors.New("repo: conflict")
	ErrUnavailable = errors.New("repo: unavailable")
)

// IsNotFound reports whether err is a missing-row error from the gateway.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Wrap classifies a gateway error into the application taxonomy. Callers
// translate ErrNotFound/ErrConflict into their own sentinels first; whatever
// reaches Wrap is either an outage or unexpected.
func Wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnavailable):
		return apperr.Wrap(apperr.Unavailable, err, "storage temporarily unavailable")
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(apperr.NotFound, err, op+": not found")
	case errors.Is(err, ErrConflict):
		return apperr.Wrap(apperr.Conflict, err, op+": conflict")
	default:
		return apperr.Wrap(apperr.Internal, err, op)
	}
}

// Gateway is the transactional store behind the lifecycle engine and the
// messaging relay. Lookups return ErrNotFound for absent rows, inserts that
// hit a unique key return ErrConflict and connectivity failures return
// ErrUnavailable.
type Gateway interface {
	FindUser(ctx context.Context, id int64) (*User, error)
	FindInternship(ctx context.Context, id int64) (*Internship, error)
	FindDepartment(ctx context.Context, id int64) (*Department, error)

	FindEngagement(ctx context.Context, internshipID, studentID int64) (*Engagement, error)
	// FindEngagementForUpdate reads the engagement and holds a row lock on it
	// until the surrounding transaction ends. Call it inside WithTx.
	FindEngagementForUpdate(ctx context.Context, internshipID, studentID int64) (*Engagement, error)
	CreateEngagement(ctx context.Context, e *Engagement) (*Engagement, error)
	UpdateEngagementStatus(ctx context.Context, internshipID, studentID int64, status EngagementStatus) (*Engagement, error)

	FindAcceptance(ctx context.Context, id int64) (*AcceptanceLetter, error)
	FindAcceptanceByPair(ctx context.Context, internshipID, studentID int64) (*AcceptanceLetter, error)
	CreateAcceptance(ctx context.Context, a *AcceptanceLetter) (*AcceptanceLetter, error)
	// UpdateAcceptanceDepartment sets the department only while it is unset.
	// A letter that was already forwarded yields ErrConflict.
	UpdateAcceptanceDepartment(ctx context.Context, id, departmentID int64) (*AcceptanceLetter, error)

	FindTestProject(ctx context.Context, id int64) (*TestProject, error)
	FindTestProjectByPair(ctx context.Context, internshipID, studentID int64) (*TestProject, error)
	CreateTestProject(ctx context.Context, p *TestProject) (*TestProject, error)
	UpdateTestProjectURL(ctx context.Context, id int64, url string) (*TestProject, error)

	FindFinalEvaluation(ctx context.Context, companyID, studentID int64) (*FinalEvaluation, error)
	UpsertFinalEvaluation(ctx context.Context, ev *FinalEvaluation) (*FinalEvaluation, error)

	CreateWeeklyReport(ctx context.Context, r *WeeklyReport) (*WeeklyReport, error)

	MessageStore

	// WithTx runs fn inside one transaction. fn must use the Gateway it is
	// handed; the transaction commits only when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Gateway) error) error
}

// MessageStore is the part of the gateway the messaging relay depends on.
type MessageStore interface {
	FindUser(ctx context.Context, id int64) (*User, error)
	CreateMessage(ctx context.Context, m *Message) (*Message, error)
	FindMessage(ctx context.Context, id int64) (*Message, error)
	// FindMessagesBetween returns both directions ordered by created_at, id.
	FindMessagesBetween(ctx context.Context, userA, userB int64) ([]*Message, error)
	// UpdateMessageRead flips is_read once. The bool reports whether this
	// call performed the flip.
	UpdateMessageRead(ctx context.Context, id int64) (*Message, bool, error)
	// BulkUpdateMessagesRead flips every unread message addressed to
	// receiverID and returns how many were flipped plus at most limit of the
	// most recent ones, oldest first.
	BulkUpdateMessagesRead(ctx context.Context, receiverID int64, limit int) (int, []*Message, error)
	CountUnreadForUser(ctx context.Context, receiverID int64) (int, error)
	GroupUnreadBySender(ctx context.Context, receiverID int64) ([]SenderCount, error)
}
