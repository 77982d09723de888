package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Handlers map these onto HTTP
// status codes.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrJobNotFound      = errors.New("job not found")
	ErrProposalNotFound = errors.New("proposal not found")

	ErrJobNotOpen            = errors.New("job is not accepting proposals")
	ErrProposalAlreadyExists = errors.New("proposal already exists for this job")
	ErrProposalFinalized     = errors.New("proposal already finalized")
	ErrNotWithdrawable       = errors.New("proposal cannot be withdrawn")

	ErrOracleUnavailable = errors.New("match oracle unavailable")

	ErrPaymentNotConfigured     = errors.New("payment provider not configured")
	ErrPaymentInvalidSignature  = errors.New("payment signature verification failed")
	ErrReportNothingToExport    = errors.New("no proposals to export")
)

// PermissionError indicates the acting user may not perform an action on
// a resource.
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NewPermissionError creates a permission error for the given resource action
func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a PermissionError
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// TransitionError reports an invalid proposal lifecycle transition
type TransitionError struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition proposal from %s to %s as %s: %s", e.From, e.To, e.Role, e.Reason)
}
