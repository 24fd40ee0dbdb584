package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/violation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated        EventType = "case_created"
	EventCaseStatusChanged  EventType = "case_status_changed"
	EventQueryStatusChanged EventType = "query_status_changed"
	EventQueryResponseAdded EventType = "query_response_added"
	EventUserStatusChanged  EventType = "user_status_changed"
	EventPaymentRecorded    EventType = "payment_recorded"
)

// Event represents a domain event emitted by services. UserID is the account
// the event concerns.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"userId"`
	SubjectID string      `json:"subjectId"`
	ActorID   string      `json:"actorId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, userID, subjectID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	ViolationType domain.ViolationType `json:"violationType"`
	Fine          float64              `json:"fine"`
	Location      string               `json:"location"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus `json:"oldStatus"`
	NewStatus domain.CaseStatus `json:"newStatus"`
}

// QueryStatusChangedPayload payload.
type QueryStatusChangedPayload struct {
	Subject   string             `json:"subject"`
	OldStatus domain.QueryStatus `json:"oldStatus"`
	NewStatus domain.QueryStatus `json:"newStatus"`
}

// QueryResponseAddedPayload payload.
type QueryResponseAddedPayload struct {
	ResponseID  string `json:"responseId"`
	IsFromAdmin bool   `json:"isFromAdmin"`
	Preview     string `json:"preview"`
}

// UserStatusChangedPayload payload.
type UserStatusChangedPayload struct {
	Action domain.UserAction `json:"action"`
	Reason string            `json:"reason,omitempty"`
}

// PaymentRecordedPayload payload.
type PaymentRecordedPayload struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}
