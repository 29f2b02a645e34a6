package lifecycle

import "github.com/Alijeyrad/internhub_backend/pkg/apperr"

var (
	ErrCoverLetterRequired = apperr.New(apperr.InvalidArgument, "cover letter is required")
	ErrInvalidStatus       = apperr.New(apperr.InvalidArgument, "status must be one of PENDING, ACCEPTED, REJECTED, COMPLETED")
	ErrInvalidDecision     = apperr.New(apperr.InvalidArgument, "decision must be ACCEPTED or REJECTED")
	ErrLetterTextRequired  = apperr.New(apperr.InvalidArgument, "letter text is required")
	ErrDescriptionRequired = apperr.New(apperr.InvalidArgument, "description is required")
	ErrInvalidProjectURL   = apperr.New(apperr.InvalidArgument, "project url must be an absolute http or https url")
	ErrInvalidWeekNumber   = apperr.New(apperr.InvalidArgument, "week number must be at least 1")
	ErrActivityRequired    = apperr.New(apperr.InvalidArgument, "activity is required")
	ErrSupervisorRequired  = apperr.New(apperr.InvalidArgument, "supervisor name is required")

	ErrInternshipNotFound  = apperr.New(apperr.NotFound, "internship not found")
	ErrStudentNotFound     = apperr.New(apperr.NotFound, "student not found")
	ErrCompanyNotFound     = apperr.New(apperr.NotFound, "company not found")
	ErrDepartmentNotFound  = apperr.New(apperr.NotFound, "department not found")
	ErrEngagementNotFound  = apperr.New(apperr.NotFound, "application not found")
	ErrAcceptanceNotFound  = apperr.New(apperr.NotFound, "acceptance letter not found")
	ErrTestProjectNotFound = apperr.New(apperr.NotFound, "test project not found")
	ErrEvaluationNotFound  = apperr.New(apperr.NotFound, "final evaluation not found")

	ErrAlreadyApplied    = apperr.New(apperr.Conflict, "student has already applied to this internship")
	ErrLetterExists      = apperr.New(apperr.Conflict, "a decision letter was already issued for this application")
	ErrAlreadyForwarded  = apperr.New(apperr.Conflict, "acceptance letter was already forwarded to a department")
	ErrTestProjectExists = apperr.New(apperr.Conflict, "a test project was already assigned for this application")

	ErrNotInternshipOwner = apperr.New(apperr.Forbidden, "company does not own this internship")

	ErrInternshipClosed    = apperr.New(apperr.InvalidState, "internship is not open for applications")
	ErrDeadlinePassed      = apperr.New(apperr.InvalidState, "application deadline has passed")
	ErrEngagementCompleted = apperr.New(apperr.InvalidState, "completed application cannot change status")
	ErrNotAccepted         = apperr.New(apperr.InvalidState, "only accepted applications can be completed")
	ErrNotPending          = apperr.New(apperr.InvalidState, "test projects can only be assigned to pending applications")
)
