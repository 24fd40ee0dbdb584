package dto

import "github.com/spec-kit/violation-service/internal/domain"

// CreateQueryRequest opens a support query.
type CreateQueryRequest struct {
	CaseID   *string              `json:"caseId"`
	Subject  string               `json:"subject"`
	Message  string               `json:"message"`
	Category domain.QueryCategory `json:"category"`
	Priority domain.QueryPriority `json:"priority"`
	IsUrgent bool                 `json:"isUrgent"`
}

// UpdateQueryRequest carries optional query changes.
type UpdateQueryRequest struct {
	Subject  *string               `json:"subject"`
	Message  *string               `json:"message"`
	Category *domain.QueryCategory `json:"category"`
	Priority *domain.QueryPriority `json:"priority"`
	Status   *domain.QueryStatus   `json:"status"`
	IsUrgent *bool                 `json:"isUrgent"`
}

// BulkQueryStatusRequest moves many queries to one status. Status defaults to resolved.
type BulkQueryStatusRequest struct {
	QueryIDs []string           `json:"queryIds"`
	Status   domain.QueryStatus `json:"status"`
}

// ResponseRequest adds or edits a reply.
type ResponseRequest struct {
	Message        string  `json:"message"`
	MarkAsResolved bool    `json:"markAsResolved"`
	Template       *string `json:"template"`
	Priority       *string `json:"priority"`
	InternalNotes  *string `json:"internalNotes"`
}
