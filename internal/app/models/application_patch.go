package models

import "time"

// ApplicationPatch is a partial update of a draft; nil fields stay unchanged
type ApplicationPatch struct {
	PersonalStatement  *string
	AdditionalInfo     *string
	DateOfBirth        *time.Time
	Nationality        *string
	PassportNumber     *string
	Address            *string
	City               *string
	Country            *string
	PostalCode         *string
	PreviousEducation  *string
	GPA                *float64
	EnglishProficiency *string
	ReferenceContact   *string
}

// Columns returns the changed columns keyed by their database name
func (p ApplicationPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	setString := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	setString("personal_statement", p.PersonalStatement)
	setString("additional_info", p.AdditionalInfo)
	setString("nationality", p.Nationality)
	setString("passport_number", p.PassportNumber)
	setString("address", p.Address)
	setString("city", p.City)
	setString("country", p.Country)
	setString("postal_code", p.PostalCode)
	setString("previous_education", p.PreviousEducation)
	setString("english_proficiency", p.EnglishProficiency)
	setString("reference_contact", p.ReferenceContact)
	if p.DateOfBirth != nil {
		cols["date_of_birth"] = *p.DateOfBirth
	}
	if p.GPA != nil {
		cols["gpa"] = *p.GPA
	}
	return cols
}

// IsEmpty reports whether the patch changes nothing
func (p ApplicationPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Apply copies the set fields onto a
func (p ApplicationPatch) Apply(a *Application) {
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&a.PersonalStatement, p.PersonalStatement)
	apply(&a.AdditionalInfo, p.AdditionalInfo)
	apply(&a.Nationality, p.Nationality)
	apply(&a.PassportNumber, p.PassportNumber)
	apply(&a.Address, p.Address)
	apply(&a.City, p.City)
	apply(&a.Country, p.Country)
	apply(&a.PostalCode, p.PostalCode)
	apply(&a.PreviousEducation, p.PreviousEducation)
	apply(&a.EnglishProficiency, p.EnglishProficiency)
	apply(&a.ReferenceContact, p.ReferenceContact)
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		a.DateOfBirth = &dob
	}
	if p.GPA != nil {
		gpa := *p.GPA
		a.GPA = &gpa
	}
}

// PrefillFromProfile copies profile answers into a fresh draft
func (a *Application) PrefillFromProfile(p *StudentProfile) {
	if p == nil {
		return
	}
	a.DateOfBirth = p.DateOfBirth
	a.Nationality = p.Nationality
	a.PassportNumber = p.PassportNumber
	a.Address = p.Address
	a.City = p.City
	a.Country = p.Country
	a.PostalCode = p.PostalCode
	a.PreviousEducation = p.PreviousEducation
	a.GPA = p.GPA
	a.EnglishProficiency = p.EnglishProficiency
	a.ReferenceContact = p.ReferenceContact
}

// ApplicationFilter narrows staff and student listings
type ApplicationFilter struct {
	Status     ApplicationStatus
	CourseID   int64
	AssignedTo int64
	StudentID  int64
	Offset     uint64
	Limit      uint64
}

// Matches reports whether a satisfies every set criterion
func (f ApplicationFilter) Matches(a *Application) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.CourseID != 0 && a.CourseID != f.CourseID {
		return false
	}
	if f.AssignedTo != 0 && (a.AssignedTo == nil || *a.AssignedTo != f.AssignedTo) {
		return false
	}
	if f.StudentID != 0 && a.StudentID != f.StudentID {
		return false
	}
	return true
}
