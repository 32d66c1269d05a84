package models

import "time"

// Course belongs to one School
type Course struct {
	ID           int64      `json:"id" db:"id"`
	SchoolID     int64      `json:"schoolId" db:"school_id"`
	Name         string     `json:"name" db:"name"`
	Level        string     `json:"level" db:"level"`
	Duration     string     `json:"duration" db:"duration"`
	TuitionFee   float64    `json:"tuitionFee" db:"tuition_fee"`
	Currency     string     `json:"currency" db:"currency"`
	Description  string     `json:"description" db:"description"`
	Requirements string     `json:"requirements" db:"requirements"`
	StartDate    *time.Time `json:"startDate,omitempty" db:"start_date"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	SchoolName   string     `json:"schoolName,omitempty" db:"-"`
}
