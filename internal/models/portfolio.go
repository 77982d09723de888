package models

// Portfolio sub-records stored as JSON arrays on the user row. They are
// validated on write and treated as opaque ordered sequences everywhere else.

type PortfolioProject struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"required,max=2000"`
	Link         *string  `json:"link,omitempty" validate:"omitempty,url"`
	Technologies []string `json:"technologies" validate:"omitempty,max=20,dive,max=50"`
}

type EducationRecord struct {
	Institution  string  `json:"institution" validate:"required,max=200"`
	Degree       string  `json:"degree" validate:"required,max=200"`
	FieldOfStudy string  `json:"field_of_study" validate:"required,max=200"`
	StartDate    string  `json:"start_date" validate:"required"`
	EndDate      *string `json:"end_date,omitempty"`
}

type WorkExperienceRecord struct {
	Company     string  `json:"company" validate:"required,max=200"`
	Position    string  `json:"position" validate:"required,max=200"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     *string `json:"end_date,omitempty"`
	Description string  `json:"description" validate:"required,max=2000"`
}

type CertificationRecord struct {
	Name   string  `json:"name" validate:"required,max=200"`
	Issuer string  `json:"issuer" validate:"required,max=200"`
	Date   string  `json:"date" validate:"required"`
	Link   *string `json:"link,omitempty" validate:"omitempty,url"`
}
