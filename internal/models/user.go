package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleFreelancer UserRole = "freelancer"
	RoleBusiness   UserRole = "business"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	AuthID      string   `json:"-" gorm:"uniqueIndex;not null;size:255"` // external identity subject
	DisplayName string   `json:"display_name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	Email       string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role        UserRole `json:"role" gorm:"not null;size:20;index" validate:"required,user_role"`

	// Profile info
	Bio    *string        `json:"bio" gorm:"type:text" validate:"omitempty,max=2000"`
	Skills pq.StringArray `json:"skills" gorm:"type:text[]"`

	// Role-specific fields: HourlyRate is meaningful for freelancers,
	// Company for businesses; the other role leaves them empty.
	HourlyRate *int    `json:"hourly_rate" validate:"omitempty,min=1"`
	Company    *string `json:"company" gorm:"size:200" validate:"omitempty,max=200"`

	// Portfolio sub-entities, ordered sequences of typed records
	PortfolioTitle    *string        `json:"portfolio_title" gorm:"size:200"`
	PortfolioSummary  *string        `json:"portfolio_summary" gorm:"type:text"`
	PortfolioProjects datatypes.JSON `json:"portfolio_projects" gorm:"type:jsonb"`
	Education         datatypes.JSON `json:"education" gorm:"type:jsonb"`
	WorkExperience    datatypes.JSON `json:"work_experience" gorm:"type:jsonb"`
	Certifications    datatypes.JSON `json:"certifications" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsFreelancer reports whether the user acts as a freelancer.
func (u *User) IsFreelancer() bool {
	return u.Role == RoleFreelancer
}

// IsBusiness reports whether the user acts as a business.
func (u *User) IsBusiness() bool {
	return u.Role == RoleBusiness
}
