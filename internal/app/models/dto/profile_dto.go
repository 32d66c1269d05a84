package dto

import "github.com/admissions/portal/internal/app/models"

// UpdateProfileRequest is a partial update of the user and student profile
type UpdateProfileRequest struct {
	FirstName          *string  `json:"firstName" binding:"omitempty,min=2,max=100"`
	LastName           *string  `json:"lastName" binding:"omitempty,min=2,max=100"`
	Phone              *string  `json:"phone" binding:"omitempty,max=20"`
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

// ProfileResponse is the caller's account, profile and completion score
type ProfileResponse struct {
	User       UserResponse              `json:"user"`
	Profile    *models.StudentProfile    `json:"profile"`
	Completion ProfileCompletionResponse `json:"completion"`
}
