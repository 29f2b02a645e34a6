package repo

import (
	"strings"
	"time"

	"github.com/Alijeyrad/internhub_backend/internal/scoring"
)

// Role tags a platform participant. Every participant shares one numeric
// identity space regardless of role.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleCompany    Role = "COMPANY"
	RoleAdvisor    Role = "ADVISOR"
	RoleDepartment Role = "DEPARTMENT"
	RoleAdmin      Role = "ADMIN"
)

type User struct {
	ID    int64  `json:"id"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type InternshipStatus string

const (
	InternshipOpen   InternshipStatus = "OPEN"
	InternshipClosed InternshipStatus = "CLOSED"
)

type Internship struct {
	ID                  int64            `json:"id"`
	CompanyID           int64            `json:"companyId"`
	Title               string           `json:"title"`
	Status              InternshipStatus `json:"status"`
	ApplicationDeadline time.Time        `json:"applicationDeadline"`
}

type Department struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type EngagementStatus string

const (
	StatusPending   EngagementStatus = "PENDING"
	StatusAccepted  EngagementStatus = "ACCEPTED"
	StatusRejected  EngagementStatus = "REJECTED"
	StatusCompleted EngagementStatus = "COMPLETED"
)

// ParseEngagementStatus normalizes s and reports whether it names a status.
// "APPLIED" is accepted as an alias of PENDING.
func ParseEngagementStatus(s string) (EngagementStatus, bool) {
	st := EngagementStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return st, true
	case "APPLIED":
		return StatusPending, true
	}
	return "", false
}

type Engagement struct {
	ID           int64            `json:"id"`
	InternshipID int64            `json:"internshipId"`
	StudentID    int64            `json:"studentId"`
	Status       EngagementStatus `json:"status"`
	CoverLetter  string           `json:"coverLetter"`
	ResumeURL    *string          `json:"resumeUrl,omitempty"`
	PortfolioURL *string          `json:"portfolioUrl,omitempty"`
	AppliedAt    time.Time        `json:"appliedAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type Decision string

const (
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
)

func ParseDecision(s string) (Decision, bool) {
	d := Decision(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DecisionAccepted, DecisionRejected:
		return d, true
	}
	return "", false
}

// Status is the engagement status a decision moves the engagement to.
func (d Decision) Status() EngagementStatus {
	if d == DecisionAccepted {
		return StatusAccepted
	}
	return StatusRejected
}

type AcceptanceLetter struct {
	ID           int64      `json:"id"`
	InternshipID int64      `json:"internshipId"`
	StudentID    int64      `json:"studentId"`
	CompanyID    int64      `json:"companyId"`
	LetterText   string     `json:"letterText"`
	Status       Decision   `json:"status"`
	DepartmentID *int64     `json:"departmentId"`
	ForwardedAt  *time.Time `json:"forwardedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type TestProject struct {
	ID           int64      `json:"id"`
	InternshipID int64      `json:"internshipId"`
	StudentID    int64      `json:"studentId"`
	CompanyID    int64      `json:"companyId"`
	Description  string     `json:"description"`
	ProjectURL   *string    `json:"projectUrl,omitempty"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type FinalEvaluation struct {
	ID                  int64          `json:"id"`
	CompanyID           int64          `json:"companyId"`
	StudentID           int64          `json:"studentId"`
	SupervisorName      string         `json:"supervisorName"`
	Rubric              scoring.Rubric `json:"rubric"`
	TotalPercentage     int            `json:"totalPercentage"`
	SupervisorSignature *string        `json:"supervisorSignature,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

type WeeklyReport struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"companyId"`
	StudentID  int64     `json:"studentId"`
	WeekNumber int       `json:"weekNumber"`
	Activity   string    `json:"activity"`
	CreatedAt  time.Time `json:"createdAt"`
}

type MessageType string

const (
	MessageText        MessageType = "TEXT"
	MessageFile        MessageType = "FILE"
	MessageTextAndFile MessageType = "TEXT_AND_FILE"
)

func ParseMessageType(s string) (MessageType, bool) {
	t := MessageType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case MessageText, MessageFile, MessageTextAndFile:
		return t, true
	}
	return "", false
}

// DeriveMessageType picks the type for a message whose sender did not set one.
func DeriveMessageType(hasText, hasFile bool) MessageType {
	switch {
	case hasText && hasFile:
		return MessageTextAndFile
	case hasFile:
		return MessageFile
	default:
		return MessageText
	}
}

type FileMeta struct {
	URL      string `json:"fileUrl"`
	Name     string `json:"fileName,omitempty"`
	MimeType string `json:"fileType,omitempty"`
	Size     int64  `json:"fileSize,omitempty"`
}

type Message struct {
	ID         int64       `json:"id"`
	SenderID   int64       `json:"senderId"`
	ReceiverID int64       `json:"receiverId"`
	Type       MessageType `json:"messageType"`
	Text       *string     `json:"text,omitempty"`
	File       *FileMeta   `json:"file,omitempty"`
	IsRead     bool        `json:"isRead"`
	ReadAt     *time.Time  `json:"readAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// SenderCount is one row of the unread breakdown for a receiver.
type SenderCount struct {
	SenderID   int64  `json:"senderId"`
	SenderRole Role   `json:"senderRole"`
	SenderName string `json:"senderName"`
	Count      int    `json:"count"`
}
