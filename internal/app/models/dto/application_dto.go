package dto

import (
	"github.com/admissions/portal/internal/app/models"
)

// CreateApplicationRequest starts a draft for a course, optionally submitting it at once
type CreateApplicationRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1" example:"3"`
	Submit   bool  `json:"submit" example:"false"`
}

// UpdateApplicationRequest is a partial draft update; nil fields are left unchanged
type UpdateApplicationRequest struct {
	PersonalStatement  *string  `json:"personalStatement" binding:"omitempty,max=10000"`
	AdditionalInfo     *string  `json:"additionalInfo" binding:"omitempty,max=5000"`
	DateOfBirth        *string  `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02" example:"2004-05-17"`
	Nationality        *string  `json:"nationality" binding:"omitempty,max=100"`
	PassportNumber     *string  `json:"passportNumber" binding:"omitempty,max=20"`
	Address            *string  `json:"address" binding:"omitempty,max=255"`
	City               *string  `json:"city" binding:"omitempty,max=100"`
	Country            *string  `json:"country" binding:"omitempty,max=100"`
	PostalCode         *string  `json:"postalCode" binding:"omitempty,max=20"`
	PreviousEducation  *string  `json:"previousEducation" binding:"omitempty,max=2000"`
	GPA                *float64 `json:"gpa" binding:"omitempty,min=0,max=10"`
	EnglishProficiency *string  `json:"englishProficiency" binding:"omitempty,max=100"`
	ReferenceContact   *string  `json:"referenceContact" binding:"omitempty,max=255"`
}

// IsEmpty reports whether the request changes nothing
func (r *UpdateApplicationRequest) IsEmpty() bool {
	return r.PersonalStatement == nil && r.AdditionalInfo == nil && r.DateOfBirth == nil &&
		r.Nationality == nil && r.PassportNumber == nil && r.Address == nil && r.City == nil &&
		r.Country == nil && r.PostalCode == nil && r.PreviousEducation == nil && r.GPA == nil &&
		r.EnglishProficiency == nil && r.ReferenceContact == nil
}

// TransitionStatusRequest moves a submitted application through review
type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required" example:"UNDER_REVIEW" enums:"UNDER_REVIEW,ACCEPTED,REJECTED,WAITLISTED"`
	Notes  string `json:"notes" binding:"omitempty,max=2000" example:"Strong personal statement"`
}

// AssignApplicationRequest sets the reviewer and queue priority
type AssignApplicationRequest struct {
	AssignedTo *int64 `json:"assignedTo" binding:"omitempty,min=1" example:"2"`
	Priority   string `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH" example:"HIGH"`
}

// ApplicationFilterRequest are the staff list filters
type ApplicationFilterRequest struct {
	Status     string `form:"status" binding:"omitempty"`
	CourseID   int64  `form:"courseId" binding:"omitempty,min=1"`
	AssignedTo int64  `form:"assignedTo" binding:"omitempty,min=1"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Size       int    `form:"size" binding:"omitempty,min=1,max=100"`
}

// ApplicationResponse is an application as seen by the caller
type ApplicationResponse struct {
	*models.Application
	CourseName   string                     `json:"courseName,omitempty"`
	NextStatuses []models.ApplicationStatus `json:"nextStatuses,omitempty"`
}

// NewApplicationResponse maps app for viewer. Students never see reviewer-only fields.
func NewApplicationResponse(app *models.Application, viewer models.RoleType) ApplicationResponse {
	if app == nil {
		return ApplicationResponse{}
	}
	out := *app
	resp := ApplicationResponse{Application: &out}
	if viewer.IsStaff() {
		resp.NextStatuses = app.Status.NextReviewStatuses()
	} else {
		out.AdminComments = ""
		out.AssignedTo = nil
	}
	return resp
}

// NewApplicationResponses maps a slice with NewApplicationResponse
func NewApplicationResponses(apps []*models.Application, viewer models.RoleType) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, NewApplicationResponse(a, viewer))
	}
	return out
}

// ApplicationListResponse is a page of applications
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Pagination   PaginationInfo        `json:"pagination"`
}

// ApplicationStatsResponse is the admin dashboard summary
type ApplicationStatsResponse struct {
	Total              int64                              `json:"total"`
	ByStatus           map[models.ApplicationStatus]int64 `json:"byStatus"`
	RecentApplications []ApplicationResponse              `json:"recentApplications"`
}
