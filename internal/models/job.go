package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobClosed     JobStatus = "closed"
)

type Job struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string         `json:"description" gorm:"not null;type:text" validate:"required,max=5000"`
	Budget      int            `json:"budget" gorm:"not null" validate:"required,min=1"`
	Skills      pq.StringArray `json:"skills" gorm:"type:text[];not null"`

	// BusinessID is the owning business; it never changes after creation.
	BusinessID uint      `json:"business_id" gorm:"not null;index"`
	Status     JobStatus `json:"status" gorm:"default:open;index" validate:"omitempty,oneof=open in_progress completed closed"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Business  User       `json:"business" gorm:"foreignKey:BusinessID"`
	Proposals []Proposal `json:"proposals,omitempty" gorm:"foreignKey:JobID"`

	// Computed fields (not stored)
	ProposalCount int `json:"proposal_count" gorm:"-"`
}

func (Job) TableName() string {
	return "jobs"
}

// IsOpen reports whether the job still accepts proposals.
func (j *Job) IsOpen() bool {
	return j.Status == JobOpen
}
