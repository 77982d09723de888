package models

import (
	"time"
)

type ProposalStatus string

const (
	// Initial states. A freelancer applying to an open job starts at
	// ProposalApplied; a business-initiated offer starts at
	// ProposalPendingFreelancer and waits for the freelancer's response.
	ProposalApplied           ProposalStatus = "applied"
	ProposalPendingFreelancer ProposalStatus = "pending_freelancer"

	// Intermediate review states, reachable only by a business actor.
	ProposalUnderReview ProposalStatus = "under_review"
	ProposalWaitlist    ProposalStatus = "waitlist"

	// Terminal states.
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// OfferCoverLetter is the generated placeholder cover letter attached to
// business-initiated offers.
const OfferCoverLetter = "Job offer from business"

type Proposal struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	JobID        uint           `json:"job_id" gorm:"not null;index"`
	FreelancerID uint           `json:"freelancer_id" gorm:"not null;index"`
	CoverLetter  string         `json:"cover_letter" gorm:"not null;type:text" validate:"required,max=5000"`
	ProposedRate int            `json:"proposed_rate" gorm:"not null" validate:"required,min=1"`
	Status       ProposalStatus `json:"status" gorm:"not null;size:30;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Job        Job  `json:"job" gorm:"foreignKey:JobID"`
	Freelancer User `json:"freelancer" gorm:"foreignKey:FreelancerID"`
}

func (Proposal) TableName() string {
	return "proposals"
}

// proposalTransitions is the single authority for legal status transitions,
// keyed by (current status, actor role). Every entry point validates against
// this table; there is no per-endpoint permission list.
var proposalTransitions = map[ProposalStatus]map[UserRole][]ProposalStatus{
	ProposalApplied: {
		RoleBusiness:   {ProposalUnderReview, ProposalWaitlist, ProposalApproved, ProposalRejected},
		RoleFreelancer: {ProposalApproved, ProposalRejected},
	},
	ProposalPendingFreelancer: {
		RoleBusiness:   {ProposalUnderReview, ProposalWaitlist, ProposalApproved, ProposalRejected},
		RoleFreelancer: {ProposalApproved, ProposalRejected},
	},
	ProposalUnderReview: {
		RoleBusiness: {ProposalApproved, ProposalRejected},
	},
	ProposalWaitlist: {
		RoleBusiness: {ProposalApproved, ProposalRejected},
	},
	// approved and rejected are terminal: no entries.
}

// IsFinal reports whether the status is terminal.
func (s ProposalStatus) IsFinal() bool {
	return s == ProposalApproved || s == ProposalRejected
}

// IsValidProposalStatus reports whether s names a known proposal status.
func IsValidProposalStatus(s ProposalStatus) bool {
	switch s {
	case ProposalApplied, ProposalPendingFreelancer, ProposalUnderReview,
		ProposalWaitlist, ProposalApproved, ProposalRejected:
		return true
	}
	return false
}

// CanTransition reports whether an actor with the given role may move a
// proposal from to target.
func CanTransition(from ProposalStatus, role UserRole, target ProposalStatus) bool {
	byRole, ok := proposalTransitions[from]
	if !ok {
		return false
	}
	for _, allowed := range byRole[role] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses for the given role from
// the given status. The returned slice is shared; callers must not mutate it.
func AllowedTransitions(from ProposalStatus, role UserRole) []ProposalStatus {
	byRole, ok := proposalTransitions[from]
	if !ok {
		return nil
	}
	return byRole[role]
}

// withdrawableStatuses holds the early, non-final states from which the
// freelancer may withdraw a proposal.
var withdrawableStatuses = map[ProposalStatus]bool{
	ProposalApplied:           true,
	ProposalPendingFreelancer: true,
	ProposalUnderReview:       true,
	ProposalWaitlist:          true,
}

// IsWithdrawable reports whether a proposal in this state may still be
// withdrawn by its freelancer.
func (s ProposalStatus) IsWithdrawable() bool {
	return withdrawableStatuses[s]
}
