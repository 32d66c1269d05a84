package dto

import "github.com/admissions/portal/internal/app/models"

// CourseFilterRequest filters the public course catalogue
type CourseFilterRequest struct {
	SchoolID int64  `form:"schoolId" binding:"omitempty,min=1"`
	Level    string `form:"level" binding:"omitempty,max=50"`
	Search   string `form:"q" binding:"omitempty,max=100"`
}

// SchoolDetailResponse is a school with its active courses
type SchoolDetailResponse struct {
	*models.School
	Courses []*models.Course `json:"courses"`
}
