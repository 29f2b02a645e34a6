package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/internhub_backend/internal/scoring"
	"github.com/Alijeyrad/internhub_backend/internal/service/lifecycle"
)

type EngagementHandler struct {
	svc lifecycle.Service
}

func NewEngagementHandler(svc lifecycle.Service) *EngagementHandler {
	return &EngagementHandler{svc: svc}
}

// ---------------------------------------------------------------------------
// Request bodies
// ---------------------------------------------------------------------------

type submitBody struct {
	StudentID    int64   `json:"studentId" validate:"required,gt=0"`
	CoverLetter  string  `json:"coverLetter" validate:"max=10000"`
	ResumeURL    *string `json:"resumeUrl" validate:"omitempty,url"`
	PortfolioURL *string `json:"portfolioUrl" validate:"omitempty,url"`
}

func (b *submitBody) defaultCaller(id int64) {
	if b.StudentID == 0 {
		b.StudentID = id
	}
}

type statusBody struct {
	Status string `json:"status" validate:"required"`
}

type decisionBody struct {
	InternshipID int64  `json:"internshipId" validate:"required,gt=0"`
	StudentID    int64  `json:"studentId" validate:"required,gt=0"`
	CompanyID    int64  `json:"companyId" validate:"required,gt=0"`
	LetterText   string `json:"letterText"`
	Decision     string `json:"status" validate:"required"`
}

func (b *decisionBody) defaultCaller(id int64) {
	if b.CompanyID == 0 {
		b.CompanyID = id
	}
}

func (b decisionBody) request() lifecycle.DecisionLetterRequest {
	return lifecycle.DecisionLetterRequest{
		InternshipID: b.InternshipID,
		StudentID:    b.StudentID,
		CompanyID:    b.CompanyID,
		LetterText:   b.LetterText,
		Decision:     b.Decision,
	}
}

type forwardBody struct {
	DepartmentID int64 `json:"departmentId" validate:"required,gt=0"`
}

type testProjectBody struct {
	InternshipID int64  `json:"internshipId" validate:"required,gt=0"`
	StudentID    int64  `json:"studentId" validate:"required,gt=0"`
	CompanyID    int64  `json:"companyId" validate:"required,gt=0"`
	Description  string `json:"description"`
}

func (b *testProjectBody) defaultCaller(id int64) {
	if b.CompanyID == 0 {
		b.CompanyID = id
	}
}

type submissionBody struct {
	ProjectURL string `json:"projectUrl" validate:"required"`
}

type weeklyReportBody struct {
	CompanyID  int64  `json:"companyId" validate:"required,gt=0"`
	StudentID  int64  `json:"studentId" validate:"required,gt=0"`
	WeekNumber int    `json:"weekNumber"`
	Activity   string `json:"activity"`
}

func (b *weeklyReportBody) defaultCaller(id int64) {
	if b.CompanyID == 0 {
		b.CompanyID = id
	}
}

// evaluationBody carries the fifteen rubric scores inline. Bounds are
// enforced by the scorer.
type evaluationBody struct {
	CompanyID           int64   `json:"companyId" validate:"required,gt=0"`
	StudentID           int64   `json:"studentId" validate:"required,gt=0"`
	SupervisorName      string  `json:"supervisorName"`
	SupervisorSignature *string `json:"supervisorSignature"`
	scoring.Rubric
}

func (b *evaluationBody) defaultCaller(id int64) {
	if b.CompanyID == 0 {
		b.CompanyID = id
	}
}

// ---------------------------------------------------------------------------
// Applications
// ---------------------------------------------------------------------------

func (h *EngagementHandler) Submit(c fiber.Ctx) error {
	internshipID, valid := paramID(c, "internship_id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}
	var body submitBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	e, err := h.svc.Submit(c.Context(), lifecycle.SubmitRequest{
		InternshipID: internshipID,
		StudentID:    body.StudentID,
		CoverLetter:  body.CoverLetter,
		ResumeURL:    body.ResumeURL,
		PortfolioURL: body.PortfolioURL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, e)
}

func (h *EngagementHandler) SetStatus(c fiber.Ctx) error {
	internshipID, valid := paramID(c, "internship_id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}
	studentID, valid := paramID(c, "student_id")
	if !valid {
		return badRequest(c, "invalid student id")
	}
	var body statusBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	e, err := h.svc.SetStatus(c.Context(), studentID, internshipID, body.Status)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, e)
}

func (h *EngagementHandler) GetEngagement(c fiber.Ctx) error {
	internshipID, valid := paramID(c, "internship_id")
	if !valid {
		return badRequest(c, "invalid internship id")
	}
	studentID, valid := paramID(c, "student_id")
	if !valid {
		return badRequest(c, "invalid student id")
	}

	e, err := h.svc.GetEngagement(c.Context(), internshipID, studentID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, e)
}

// ---------------------------------------------------------------------------
// Acceptance letters
// ---------------------------------------------------------------------------

func (h *EngagementHandler) IssueDecisionLetter(c fiber.Ctx) error {
	var body decisionBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	letter, err := h.svc.IssueDecisionLetter(c.Context(), body.request())
	if err != nil {
		return writeError(c, err)
	}
	return created(c, letter)
}

func (h *EngagementHandler) Decide(c fiber.Ctx) error {
	var body decisionBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	res, err := h.svc.Decide(c.Context(), body.request())
	if err != nil {
		return writeError(c, err)
	}
	return created(c, res)
}

func (h *EngagementHandler) ForwardLetter(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid acceptance id")
	}
	var body forwardBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	letter, err := h.svc.ForwardLetterToDepartment(c.Context(), id, body.DepartmentID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, letter)
}

// ---------------------------------------------------------------------------
// Test projects, weekly reports, evaluations
// ---------------------------------------------------------------------------

func (h *EngagementHandler) AssignTestProject(c fiber.Ctx) error {
	var body testProjectBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	p, err := h.svc.AssignTestProject(c.Context(), lifecycle.AssignTestProjectRequest{
		InternshipID: body.InternshipID,
		StudentID:    body.StudentID,
		CompanyID:    body.CompanyID,
		Description:  body.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, p)
}

func (h *EngagementHandler) SubmitTestProject(c fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid test project id")
	}
	var body submissionBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	p, err := h.svc.SubmitTestProjectURL(c.Context(), id, body.ProjectURL)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, p)
}

func (h *EngagementHandler) RecordWeeklyReport(c fiber.Ctx) error {
	var body weeklyReportBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	r, err := h.svc.RecordWeeklyReport(c.Context(), lifecycle.WeeklyReportRequest{
		CompanyID:  body.CompanyID,
		StudentID:  body.StudentID,
		WeekNumber: body.WeekNumber,
		Activity:   body.Activity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, r)
}

func (h *EngagementHandler) SubmitEvaluation(c fiber.Ctx) error {
	var body evaluationBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}

	ev, err := h.svc.SubmitFinalEvaluation(c.Context(), lifecycle.EvaluationRequest{
		CompanyID:           body.CompanyID,
		StudentID:           body.StudentID,
		SupervisorName:      body.SupervisorName,
		Rubric:              body.Rubric,
		SupervisorSignature: body.SupervisorSignature,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, ev)
}

func (h *EngagementHandler) GetEvaluation(c fiber.Ctx) error {
	companyID, valid := paramID(c, "company_id")
	if !valid {
		return badRequest(c, "invalid company id")
	}
	studentID, valid := paramID(c, "student_id")
	if !valid {
		return badRequest(c, "invalid student id")
	}

	ev, err := h.svc.GetEvaluation(c.Context(), companyID, studentID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, ev)
}
