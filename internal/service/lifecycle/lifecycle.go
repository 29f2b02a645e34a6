// Package lifecycle drives an internship engagement from application to
// final evaluation.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/internal/scoring"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
	"github.com/Alijeyrad/internhub_backend/pkg/email"
)

// Live notification events pushed to participants.
const (
	EventEngagementNew       = "engagement:new"
	EventEngagementStatus    = "engagement:status"
	EventEngagementDecision  = "engagement:decision"
	EventLetterForwarded     = "engagement:letter_forwarded"
	EventTestProjectAssigned = "engagement:test_project"
	EventTestProjectSubmit   = "engagement:test_project_submitted"
	EventEvaluation          = "engagement:evaluation"
)

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

// Notifier pushes a live event to every open connection of a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event string, payload any) error
}

type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SubmitRequest struct {
	InternshipID int64
	StudentID    int64
	CoverLetter  string
	ResumeURL    *string
	PortfolioURL *string
}

type DecisionLetterRequest struct {
	InternshipID int64
	StudentID    int64
	CompanyID    int64
	LetterText   string
	Decision     string // ACCEPTED | REJECTED
}

type AssignTestProjectRequest struct {
	InternshipID int64
	StudentID    int64
	CompanyID    int64
	Description  string
}

type WeeklyReportRequest struct {
	CompanyID  int64
	StudentID  int64
	WeekNumber int
	Activity   string
}

type EvaluationRequest struct {
	CompanyID           int64
	StudentID           int64
	SupervisorName      string
	Rubric              scoring.Rubric
	SupervisorSignature *string
}

// DecisionResult is what Decide commits atomically.
type DecisionResult struct {
	Letter     *repo.AcceptanceLetter `json:"letter"`
	Engagement *repo.Engagement       `json:"engagement"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*repo.Engagement, error)
	SetStatus(ctx context.Context, studentID, internshipID int64, status string) (*repo.Engagement, error)
	GetEngagement(ctx context.Context, internshipID, studentID int64) (*repo.Engagement, error)

	IssueDecisionLetter(ctx context.Context, req DecisionLetterRequest) (*repo.AcceptanceLetter, error)
	// Decide issues the letter and moves the engagement in one transaction.
	Decide(ctx context.Context, req DecisionLetterRequest) (*DecisionResult, error)
	ForwardLetterToDepartment(ctx context.Context, acceptanceID, departmentID int64) (*repo.AcceptanceLetter, error)

	AssignTestProject(ctx context.Context, req AssignTestProjectRequest) (*repo.TestProject, error)
	SubmitTestProjectURL(ctx context.Context, id int64, projectURL string) (*repo.TestProject, error)

	RecordWeeklyReport(ctx context.Context, req WeeklyReportRequest) (*repo.WeeklyReport, error)

	SubmitFinalEvaluation(ctx context.Context, req EvaluationRequest) (*repo.FinalEvaluation, error)
	GetEvaluation(ctx context.Context, companyID, studentID int64) (*repo.FinalEvaluation, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type lifecycleService struct {
	db       repo.Gateway
	notifier Notifier
	mailer   Mailer
	appName  string
	now      func() time.Time
}

type Option func(*lifecycleService)

func WithClock(now func() time.Time) Option {
	return func(s *lifecycleService) { s.now = now }
}

// WithAppName sets the product name used in outgoing mail.
func WithAppName(name string) Option {
	return func(s *lifecycleService) { s.appName = name }
}

// New builds the engine. notifier and mailer may be nil.
func New(db repo.Gateway, notifier Notifier, mailer Mailer, opts ...Option) Service {
	s := &lifecycleService{
		db:       db,
		notifier: notifier,
		mailer:   mailer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *lifecycleService) Submit(ctx context.Context, req SubmitRequest) (*repo.Engagement, error) {
	if strings.TrimSpace(req.CoverLetter) == "" {
		return nil, ErrCoverLetterRequired
	}

	internship, err := s.db.FindInternship(ctx, req.InternshipID)
	if err != nil {
		return nil, notFound(err, ErrInternshipNotFound, "load internship")
	}
	if _, err := s.participant(ctx, s.db, req.StudentID, repo.RoleStudent, ErrStudentNotFound); err != nil {
		return nil, err
	}

	if _, err := s.db.FindEngagement(ctx, req.InternshipID, req.StudentID); err == nil {
		return nil, ErrAlreadyApplied
	} else if !repo.IsNotFound(err) {
		return nil, repo.Wrap("load application", err)
	}

	if internship.Status != repo.InternshipOpen {
		return nil, ErrInternshipClosed
	}
	if s.now().After(internship.ApplicationDeadline) {
		return nil, ErrDeadlinePassed
	}

	e, err := s.db.CreateEngagement(ctx, &repo.Engagement{
		InternshipID: req.InternshipID,
		StudentID:    req.StudentID,
		Status:       repo.StatusPending,
		CoverLetter:  req.CoverLetter,
		ResumeURL:    req.ResumeURL,
		PortfolioURL: req.PortfolioURL,
	})
	if err != nil {
		// Lost a race with a concurrent submission for the same pair.
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrAlreadyApplied
		}
		return nil, repo.Wrap("create application", err)
	}

	s.notify(ctx, internship.CompanyID, EventEngagementNew, e)
	return e, nil
}

func (s *lifecycleService) SetStatus(ctx context.Context, studentID, internshipID int64, status string) (*repo.Engagement, error) {
	to, ok := repo.ParseEngagementStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	var updated *repo.Engagement
	err := s.db.WithTx(ctx, func(ctx context.Context, tx repo.Gateway) error {
		current, err := tx.FindEngagementForUpdate(ctx, internshipID, studentID)
		if err != nil {
			return notFound(err, ErrEngagementNotFound, "load application")
		}
		if err := checkTransition(current.Status, to); err != nil {
			return err
		}
		updated, err = tx.UpdateEngagementStatus(ctx, internshipID, studentID, to)
		if err != nil {
			return notFound(err, ErrEngagementNotFound, "update application status")
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, ErrEngagementNotFound, "update application status")
	}

	s.notify(ctx, studentID, EventEngagementStatus, updated)
	return updated, nil
}

func (s *lifecycleService) GetEngagement(ctx context.Context, internshipID, studentID int64) (*repo.Engagement, error) {
	e, err := s.db.FindEngagement(ctx, internshipID, studentID)
	if err != nil {
		return nil, notFound(err, ErrEngagementNotFound, "load application")
	}
	return e, nil
}

func (s *lifecycleService) IssueDecisionLetter(ctx context.Context, req DecisionLetterRequest) (*repo.AcceptanceLetter, error) {
	decision, err := validateDecision(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, s.db, req.InternshipID, req.CompanyID); err != nil {
		return nil, err
	}
	if _, err := s.db.FindEngagement(ctx, req.InternshipID, req.StudentID); err != nil {
		return nil, notFound(err, ErrEngagementNotFound, "load application")
	}

	letter, err := s.createLetter(ctx, s.db, req, decision)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req.StudentID, EventEngagementDecision, letter)
	return letter, nil
}

func (s *lifecycleService) Decide(ctx context.Context, req DecisionLetterRequest) (*DecisionResult, error) {
	decision, err := validateDecision(req)
	if err != nil {
		return nil, err
	}

	var res DecisionResult
	err = s.db.WithTx(ctx, func(ctx context.Context, tx repo.Gateway) error {
		if err := s.checkOwnership(ctx, tx, req.InternshipID, req.CompanyID); err != nil {
			return err
		}
		current, err := tx.FindEngagementForUpdate(ctx, req.InternshipID, req.StudentID)
		if err != nil {
			return notFound(err, ErrEngagementNotFound, "load application")
		}
		if err := checkTransition(current.Status, decision.Status()); err != nil {
			return err
		}

		res.Letter, err = s.createLetter(ctx, tx, req, decision)
		if err != nil {
			return err
		}
		res.Engagement, err = tx.UpdateEngagementStatus(ctx, req.InternshipID, req.StudentID, decision.Status())
		if err != nil {
			return notFound(err, ErrEngagementNotFound, "update application status")
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, ErrEngagementNotFound, "decide application")
	}

	s.notify(ctx, req.StudentID, EventEngagementDecision, res)
	return &res, nil
}

func (s *lifecycleService) ForwardLetterToDepartment(ctx context.Context, acceptanceID, departmentID int64) (*repo.AcceptanceLetter, error) {
	letter, err := s.db.FindAcceptance(ctx, acceptanceID)
	if err != nil {
		return nil, notFound(err, ErrAcceptanceNotFound, "load acceptance letter")
	}
	dept, err := s.db.FindDepartment(ctx, departmentID)
	if err != nil {
		return nil, notFound(err, ErrDepartmentNotFound, "load department")
	}
	if letter.DepartmentID != nil {
		return nil, ErrAlreadyForwarded
	}

	letter, err = s.db.UpdateAcceptanceDepartment(ctx, acceptanceID, departmentID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrConflict):
			return nil, ErrAlreadyForwarded
		case repo.IsNotFound(err):
			return nil, ErrAcceptanceNotFound
		}
		return nil, repo.Wrap("forward acceptance letter", err)
	}

	s.mailDepartment(ctx, dept, letter)
	s.notify(ctx, letter.StudentID, EventLetterForwarded, letter)
	return letter, nil
}

func (s *lifecycleService) AssignTestProject(ctx context.Context, req AssignTestProjectRequest) (*repo.TestProject, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionRequired
	}

	var p *repo.TestProject
	err := s.db.WithTx(ctx, func(ctx context.Context, tx repo.Gateway) error {
		if err := s.checkOwnership(ctx, tx, req.InternshipID, req.CompanyID); err != nil {
			return err
		}

		e, err := tx.FindEngagementForUpdate(ctx, req.InternshipID, req.StudentID)
		if err != nil {
			return notFound(err, ErrEngagementNotFound, "load application")
		}
		if _, err := tx.FindTestProjectByPair(ctx, req.InternshipID, req.StudentID); err == nil {
			return ErrTestProjectExists
		} else if !repo.IsNotFound(err) {
			return repo.Wrap("load test project", err)
		}
		if e.Status != repo.StatusPending {
			return ErrNotPending
		}

		p, err = tx.CreateTestProject(ctx, &repo.TestProject{
			InternshipID: req.InternshipID,
			StudentID:    req.StudentID,
			CompanyID:    req.CompanyID,
			Description:  req.Description,
		})
		if err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrTestProjectExists
			}
			return repo.Wrap("create test project", err)
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, ErrEngagementNotFound, "assign test project")
	}

	s.notify(ctx, req.StudentID, EventTestProjectAssigned, p)
	return p, nil
}

func (s *lifecycleService) SubmitTestProjectURL(ctx context.Context, id int64, projectURL string) (*repo.TestProject, error) {
	projectURL = strings.TrimSpace(projectURL)
	if !isHTTPURL(projectURL) {
		return nil, ErrInvalidProjectURL
	}

	p, err := s.db.UpdateTestProjectURL(ctx, id, projectURL)
	if err != nil {
		return nil, notFound(err, ErrTestProjectNotFound, "submit test project")
	}

	s.notify(ctx, p.CompanyID, EventTestProjectSubmit, p)
	return p, nil
}

func (s *lifecycleService) RecordWeeklyReport(ctx context.Context, req WeeklyReportRequest) (*repo.WeeklyReport, error) {
	if req.WeekNumber < 1 {
		return nil, ErrInvalidWeekNumber
	}
	if strings.TrimSpace(req.Activity) == "" {
		return nil, ErrActivityRequired
	}
	if _, err := s.participant(ctx, s.db, req.CompanyID, repo.RoleCompany, ErrCompanyNotFound); err != nil {
		return nil, err
	}
	if _, err := s.participant(ctx, s.db, req.StudentID, repo.RoleStudent, ErrStudentNotFound); err != nil {
		return nil, err
	}

	r, err := s.db.CreateWeeklyReport(ctx, &repo.WeeklyReport{
		CompanyID:  req.CompanyID,
		StudentID:  req.StudentID,
		WeekNumber: req.WeekNumber,
		Activity:   req.Activity,
	})
	if err != nil {
		return nil, repo.Wrap("record weekly report", err)
	}
	return r, nil
}

func (s *lifecycleService) SubmitFinalEvaluation(ctx context.Context, req EvaluationRequest) (*repo.FinalEvaluation, error) {
	if strings.TrimSpace(req.SupervisorName) == "" {
		return nil, ErrSupervisorRequired
	}
	total, err := scoring.Score(req.Rubric)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, err, err.Error())
	}
	if _, err := s.participant(ctx, s.db, req.CompanyID, repo.RoleCompany, ErrCompanyNotFound); err != nil {
		return nil, err
	}
	if _, err := s.participant(ctx, s.db, req.StudentID, repo.RoleStudent, ErrStudentNotFound); err != nil {
		return nil, err
	}

	ev, err := s.db.UpsertFinalEvaluation(ctx, &repo.FinalEvaluation{
		CompanyID:           req.CompanyID,
		StudentID:           req.StudentID,
		SupervisorName:      req.SupervisorName,
		Rubric:              req.Rubric,
		TotalPercentage:     total,
		SupervisorSignature: req.SupervisorSignature,
	})
	if err != nil {
		return nil, repo.Wrap("save final evaluation", err)
	}

	s.notify(ctx, req.StudentID, EventEvaluation, ev)
	return ev, nil
}

func (s *lifecycleService) GetEvaluation(ctx context.Context, companyID, studentID int64) (*repo.FinalEvaluation, error) {
	ev, err := s.db.FindFinalEvaluation(ctx, companyID, studentID)
	if err != nil {
		return nil, notFound(err, ErrEvaluationNotFound, "load final evaluation")
	}
	return ev, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// checkTransition enforces the engagement state machine. Moves among
// PENDING, ACCEPTED and REJECTED are free; COMPLETED requires ACCEPTED and
// is terminal.
func checkTransition(from, to repo.EngagementStatus) error {
	switch {
	case from == to:
		return nil
	case from == repo.StatusCompleted:
		return ErrEngagementCompleted
	case to == repo.StatusCompleted && from != repo.StatusAccepted:
		return ErrNotAccepted
	}
	return nil
}

func validateDecision(req DecisionLetterRequest) (repo.Decision, error) {
	decision, ok := repo.ParseDecision(req.Decision)
	if !ok {
		return "", ErrInvalidDecision
	}
	if strings.TrimSpace(req.LetterText) == "" {
		return "", ErrLetterTextRequired
	}
	return decision, nil
}

func (s *lifecycleService) checkOwnership(ctx context.Context, db repo.Gateway, internshipID, companyID int64) error {
	internship, err := db.FindInternship(ctx, internshipID)
	if err != nil {
		return notFound(err, ErrInternshipNotFound, "load internship")
	}
	if internship.CompanyID != companyID {
		return ErrNotInternshipOwner
	}
	return nil
}

func (s *lifecycleService) createLetter(ctx context.Context, db repo.Gateway, req DecisionLetterRequest, decision repo.Decision) (*repo.AcceptanceLetter, error) {
	if _, err := db.FindAcceptanceByPair(ctx, req.InternshipID, req.StudentID); err == nil {
		return nil, ErrLetterExists
	} else if !repo.IsNotFound(err) {
		return nil, repo.Wrap("load acceptance letter", err)
	}

	letter, err := db.CreateAcceptance(ctx, &repo.AcceptanceLetter{
		InternshipID: req.InternshipID,
		StudentID:    req.StudentID,
		CompanyID:    req.CompanyID,
		LetterText:   req.LetterText,
		Status:       decision,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrLetterExists
		}
		return nil, repo.Wrap("create acceptance letter", err)
	}
	return letter, nil
}

// participant loads a user and requires it to hold role. A user with another
// role is reported as missing.
func (s *lifecycleService) participant(ctx context.Context, db repo.Gateway, id int64, role repo.Role, missing error) (*repo.User, error) {
	u, err := db.FindUser(ctx, id)
	if err != nil {
		return nil, notFound(err, missing, "load user")
	}
	if u.Role != role {
		return nil, missing
	}
	return u, nil
}

// notFound swaps a gateway ErrNotFound for the caller's sentinel and
// classifies everything else.
func notFound(err, sentinel error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if repo.IsNotFound(err) {
		return sentinel
	}
	return repo.Wrap(op, err)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *lifecycleService) notify(ctx context.Context, userID int64, event string, payload any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, event, payload); err != nil {
		slog.Warn("lifecycle: notify failed", "user_id", userID, "event", event, "error", err)
	}
}

func (s *lifecycleService) mailDepartment(ctx context.Context, dept *repo.Department, letter *repo.AcceptanceLetter) {
	if s.mailer == nil || strings.TrimSpace(dept.Email) == "" {
		return
	}

	var studentName, companyName string
	if u, err := s.db.FindUser(ctx, letter.StudentID); err == nil {
		studentName = u.Name
	}
	if u, err := s.db.FindUser(ctx, letter.CompanyID); err == nil {
		companyName = u.Name
	}

	msg := email.BuildLetterForwardedEmail(email.LetterForwardedData{
		AcceptanceID:   letter.ID,
		DepartmentName: dept.Name,
		DepartmentMail: dept.Email,
		StudentName:    studentName,
		CompanyName:    companyName,
		Decision:       string(letter.Status),
		LetterText:     letter.LetterText,
		AppName:        s.appName,
	})
	if err := s.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, email.ErrDisabled) {
			return
		}
		slog.Warn("lifecycle: department mail failed", "department_id", dept.ID, "acceptance_id", letter.ID, "error", err)
	}
}
