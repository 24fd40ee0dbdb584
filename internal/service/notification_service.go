package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/pkg/util"
)

// Notification is one entry of a user's inbox.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      events.EventType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	SubjectID string           `json:"subjectId"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationService turns domain events into per-user inbox entries.
type NotificationService struct {
	inbox  NotificationInbox
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(inbox NotificationInbox, logger *zap.Logger) *NotificationService {
	return &NotificationService{inbox: inbox, logger: loggerOrNop(logger)}
}

// NotifiedEvents lists the event types that produce notifications.
var NotifiedEvents = []events.EventType{
	events.EventCaseCreated,
	events.EventCaseStatusChanged,
	events.EventQueryStatusChanged,
	events.EventQueryResponseAdded,
	events.EventUserStatusChanged,
	events.EventPaymentRecorded,
}

// RegisterHandlers subscribes Handle to every notified event.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, t := range NotifiedEvents {
		dispatcher.Subscribe(t, n.Handle)
	}
}

// Handle stores a notification for the event's user. Events without a
// message, or a user's own replies, are skipped.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	if event.UserID == "" {
		return nil
	}
	title, message, ok := describe(event)
	if !ok {
		return nil
	}
	notification := Notification{
		ID:        util.GenerateID(util.PrefixNotify),
		UserID:    event.UserID,
		Type:      event.Type,
		Title:     title,
		Message:   message,
		SubjectID: event.SubjectID,
		CreatedAt: event.Timestamp,
	}
	if err := n.inbox.Push(ctx, notification); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	n.logger.Debug("notification stored",
		zap.String("user_id", notification.UserID),
		zap.String("event_type", string(event.Type)))
	return nil
}

// ListForUser returns the newest notifications first.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return n.inbox.List(ctx, userID, limit)
}

func describe(event events.Event) (string, string, bool) {
	switch p := event.Payload.(type) {
	case events.CaseCreatedPayload:
		return "New violation recorded",
			fmt.Sprintf("A %s violation at %s was recorded with a fine of %.2f.", humanize(string(p.ViolationType)), p.Location, p.Fine), true
	case events.CaseStatusChangedPayload:
		return "Violation status updated",
			fmt.Sprintf("Your violation moved from %s to %s.", humanize(string(p.OldStatus)), humanize(string(p.NewStatus))), true
	case events.QueryStatusChangedPayload:
		return "Query status updated",
			fmt.Sprintf("Your query %q is now %s.", p.Subject, humanize(string(p.NewStatus))), true
	case events.QueryResponseAddedPayload:
		if !p.IsFromAdmin || event.ActorID == event.UserID {
			return "", "", false
		}
		return "New response to your query", p.Preview, true
	case events.UserStatusChangedPayload:
		message := fmt.Sprintf("Your account action: %s.", p.Action)
		if p.Reason != "" {
			message = fmt.Sprintf("Your account action: %s. Reason: %s", p.Action, p.Reason)
		}
		return "Account updated", message, true
	case events.PaymentRecordedPayload:
		return "Payment received",
			fmt.Sprintf("We received your payment of %.2f %s.", p.Amount, p.Currency), true
	}
	return "", "", false
}

func humanize(value string) string {
	return strings.ReplaceAll(value, "_", " ")
}
