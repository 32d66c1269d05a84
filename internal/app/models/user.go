package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Email       string     `json:"email" db:"email" example:"student@example.com"`
	Password    string     `json:"-" db:"password"`
	FirstName   string     `json:"firstName" db:"first_name" example:"Ada"`
	LastName    string     `json:"lastName" db:"last_name" example:"Lovelace"`
	Phone       string     `json:"phone" db:"phone" example:"+44 20 7946 0000"`
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// StudentProfile holds the profile data scored before submission ('student_profiles' table)
type StudentProfile struct {
	UserID             int64      `json:"userId" db:"user_id"`
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Nationality        string     `json:"nationality" db:"nationality"`
	PassportNumber     string     `json:"passportNumber" db:"passport_number"`
	Address            string     `json:"address" db:"address"`
	City               string     `json:"city" db:"city"`
	Country            string     `json:"country" db:"country"`
	PostalCode         string     `json:"postalCode" db:"postal_code"`
	PreviousEducation  string     `json:"previousEducation" db:"previous_education"`
	GPA                *float64   `json:"gpa,omitempty" db:"gpa"`
	EnglishProficiency string     `json:"englishProficiency" db:"english_proficiency"`
	ReferenceContact   string     `json:"referenceContact" db:"reference_contact"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}
