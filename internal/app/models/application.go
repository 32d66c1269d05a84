package models

import (
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of an application
type ApplicationStatus string

const (
	StatusDraft       ApplicationStatus = "DRAFT"
	StatusSubmitted   ApplicationStatus = "SUBMITTED"
	StatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	StatusAccepted    ApplicationStatus = "ACCEPTED"
	StatusRejected    ApplicationStatus = "REJECTED"
	StatusWaitlisted  ApplicationStatus = "WAITLISTED"
)

// AllApplicationStatuses lists every status in lifecycle order
var AllApplicationStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusAccepted,
	StatusRejected,
	StatusWaitlisted,
}

// reviewTransitions is the staff-driven graph after submission.
// DRAFT -> SUBMITTED is owned by submit and deliberately absent here.
var reviewTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusSubmitted:   {StatusUnderReview, StatusAccepted, StatusRejected, StatusWaitlisted},
	StatusUnderReview: {StatusAccepted, StatusRejected, StatusWaitlisted},
	StatusWaitlisted:  {StatusAccepted, StatusRejected},
}

// ParseApplicationStatus accepts any casing and surrounding whitespace
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown application status %q", s)
	}
	return status, nil
}

// IsValid reports whether s is one of the six statuses
func (s ApplicationStatus) IsValid() bool {
	for _, known := range AllApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// IsPostSubmission reports whether s is reachable only through submit
func (s ApplicationStatus) IsPostSubmission() bool {
	return s.IsValid() && s != StatusDraft
}

// CanReviewTransitionTo reports whether staff may move an application from s to next
func (s ApplicationStatus) CanReviewTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range reviewTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextReviewStatuses returns the statuses staff may choose from s
func (s ApplicationStatus) NextReviewStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(reviewTransitions[s]))
	copy(out, reviewTransitions[s])
	return out
}

// Priority of an application in the review queue
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// Application is a student's application to one course
type Application struct {
	ID                 int64             `json:"id" db:"id"`
	StudentID          int64             `json:"studentId" db:"student_id"`
	CourseID           int64             `json:"courseId" db:"course_id"`
	Status             ApplicationStatus `json:"status" db:"status"`
	PersonalStatement  string            `json:"personalStatement" db:"personal_statement"`
	AdditionalInfo     string            `json:"additionalInfo" db:"additional_info"`
	DateOfBirth        *time.Time        `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Nationality        string            `json:"nationality" db:"nationality"`
	PassportNumber     string            `json:"passportNumber" db:"passport_number"`
	Address            string            `json:"address" db:"address"`
	City               string            `json:"city" db:"city"`
	Country            string            `json:"country" db:"country"`
	PostalCode         string            `json:"postalCode" db:"postal_code"`
	PreviousEducation  string            `json:"previousEducation" db:"previous_education"`
	GPA                *float64          `json:"gpa,omitempty" db:"gpa"`
	EnglishProficiency string            `json:"englishProficiency" db:"english_proficiency"`
	ReferenceContact   string            `json:"referenceContact" db:"reference_contact"`
	Priority           Priority          `json:"priority" db:"priority"`
	Notes              string            `json:"notes" db:"notes"`
	AdminComments      string            `json:"adminComments,omitempty" db:"admin_comments"`
	AssignedTo         *int64            `json:"assignedTo,omitempty" db:"assigned_to"`
	CreatedAt          time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time         `json:"updatedAt" db:"updated_at"`
	SubmittedAt        *time.Time        `json:"submittedAt,omitempty" db:"submitted_at"`
}

// IsEditable reports whether the owning student may still change content or documents
func (a *Application) IsEditable() bool {
	return a.Status == StatusDraft
}

// StatusChange is one recorded lifecycle transition ('application_status_history' table)
type StatusChange struct {
	ID            int64             `json:"id" db:"id"`
	ApplicationID int64             `json:"applicationId" db:"application_id"`
	FromStatus    ApplicationStatus `json:"fromStatus" db:"from_status"`
	ToStatus      ApplicationStatus `json:"toStatus" db:"to_status"`
	ChangedBy     int64             `json:"changedBy" db:"changed_by"`
	ChangedByRole RoleType          `json:"changedByRole" db:"changed_by_role"`
	Notes         string            `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
}

// FormatAdminComment renders one appended review comment line
func FormatAdminComment(at time.Time, role RoleType, actorID int64, text string) string {
	return fmt.Sprintf("[%s] %s #%d: %s", at.UTC().Format(time.RFC3339), role, actorID, strings.TrimSpace(text))
}

// AppendComment appends line to existing comments without touching prior text
func AppendComment(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
