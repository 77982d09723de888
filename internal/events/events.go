package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "marketplace-service"
	eventVersion = "1.0"
)

// Event is the envelope published to the event bus for every domain event
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Domain event types
const (
	ProposalSubmitted     = "proposal.submitted"
	ProposalStatusChanged = "proposal.status_changed"
	ProposalWithdrawn     = "proposal.withdrawn"
	OfferCreated          = "offer.created"
	JobCreated            = "job.created"
	JobUpdated            = "job.updated"
	JobDeleted            = "job.deleted"
	ProfileUpdated        = "user.profile_updated"
	PaymentVerified       = "payment.verified"
)

// NewEvent builds an event envelope with a fresh ID and timestamp
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes domain events to the bus
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ProposalEvent carries proposal lifecycle data
type ProposalEvent struct {
	ProposalID   uint   `json:"proposal_id"`
	JobID        uint   `json:"job_id"`
	FreelancerID uint   `json:"freelancer_id"`
	Status       string `json:"status"`
	PrevStatus   string `json:"prev_status,omitempty"`
	ActorID      uint   `json:"actor_id"`
	ActorRole    string `json:"actor_role"`
}

// JobEvent carries job change data
type JobEvent struct {
	JobID      uint   `json:"job_id"`
	BusinessID uint   `json:"business_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
}

// PaymentEvent carries payment verification data
type PaymentEvent struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	UserID    uint   `json:"user_id"`
}
