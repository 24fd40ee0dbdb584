package domain

import "time"

// QueryCategory is the closed set of support topics.
type QueryCategory string

const (
	QueryCategoryViolationDispute QueryCategory = "violation_dispute"
	QueryCategoryPaymentIssues    QueryCategory = "payment_issues"
	QueryCategoryTechnicalSupport QueryCategory = "technical_support"
	QueryCategoryGeneralInquiry   QueryCategory = "general_inquiry"
)

// QueryCategories lists every category.
var QueryCategories = []QueryCategory{
	QueryCategoryViolationDispute,
	QueryCategoryPaymentIssues,
	QueryCategoryTechnicalSupport,
	QueryCategoryGeneralInquiry,
}

func (c QueryCategory) Valid() bool {
	for _, v := range QueryCategories {
		if v == c {
			return true
		}
	}
	return false
}

// QueryPriority enumerates urgency.
type QueryPriority string

const (
	QueryPriorityLow    QueryPriority = "low"
	QueryPriorityMedium QueryPriority = "medium"
	QueryPriorityHigh   QueryPriority = "high"
)

// QueryPriorities lists every priority.
var QueryPriorities = []QueryPriority{QueryPriorityLow, QueryPriorityMedium, QueryPriorityHigh}

func (p QueryPriority) Valid() bool {
	switch p {
	case QueryPriorityLow, QueryPriorityMedium, QueryPriorityHigh:
		return true
	}
	return false
}

// QueryStatus enumerates lifecycle states for support queries.
type QueryStatus string

const (
	QueryStatusOpen       QueryStatus = "open"
	QueryStatusInProgress QueryStatus = "in_progress"
	QueryStatusResolved   QueryStatus = "resolved"
	QueryStatusClosed     QueryStatus = "closed"
)

// QueryStatuses lists every status.
var QueryStatuses = []QueryStatus{QueryStatusOpen, QueryStatusInProgress, QueryStatusResolved, QueryStatusClosed}

func (s QueryStatus) Valid() bool {
	switch s {
	case QueryStatusOpen, QueryStatusInProgress, QueryStatusResolved, QueryStatusClosed:
		return true
	}
	return false
}

// Query is a support ticket raised by a user.
type Query struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	CaseID         *string       `json:"caseId,omitempty"`
	Subject        string        `json:"subject"`
	Message        string        `json:"message"`
	Category       QueryCategory `json:"category"`
	Priority       QueryPriority `json:"priority"`
	Status         QueryStatus   `json:"status"`
	IsUrgent       bool          `json:"isUrgent"`
	LastResponseAt *time.Time    `json:"lastResponseAt,omitempty"`
	ResolvedAt     *time.Time    `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	// Read-only views filled by enrichment.
	Responses   []QueryResponse   `json:"responses"`
	Attachments []QueryAttachment `json:"attachments"`
}

var queryTransitions = transitionTable[QueryStatus]{
	QueryStatusOpen:       {QueryStatusInProgress, QueryStatusResolved, QueryStatusClosed},
	QueryStatusInProgress: {QueryStatusOpen, QueryStatusResolved, QueryStatusClosed},
	QueryStatusResolved:   {QueryStatusInProgress, QueryStatusClosed},
	QueryStatusClosed:     {QueryStatusOpen, QueryStatusInProgress},
}

var queryStamps = stampTable[Query, QueryStatus]{
	QueryStatusResolved: func(q *Query, at time.Time) { q.ResolvedAt = &at },
}

// TransitionTo moves the query to next, stamping resolvedAt on entry to resolved.
func (q *Query) TransitionTo(next QueryStatus, at time.Time) error {
	if !next.Valid() {
		return ErrInvalidTransition
	}
	if q.Status == next {
		return nil
	}
	if !queryTransitions.allows(q.Status, next) {
		return ErrInvalidTransition
	}
	q.Status = next
	queryStamps.stamp(q, next, at)
	q.UpdatedAt = at
	return nil
}

// RecordResponse applies the side effects of a new response on the parent query.
func (q *Query) RecordResponse(markResolved bool, at time.Time) error {
	next := QueryStatusInProgress
	if markResolved {
		next = QueryStatusResolved
		// A reply reopens a closed query before resolving it.
		if q.Status == QueryStatusClosed {
			if err := q.TransitionTo(QueryStatusInProgress, at); err != nil {
				return err
			}
		}
	}
	if err := q.TransitionTo(next, at); err != nil {
		return err
	}
	q.LastResponseAt = &at
	q.UpdatedAt = at
	return nil
}

// QueryResponse is one message in a query thread.
type QueryResponse struct {
	ID            string     `json:"id"`
	QueryID       string     `json:"queryId"`
	Message       string     `json:"message"`
	RespondedBy   string     `json:"respondedBy"`
	RespondedAt   time.Time  `json:"respondedAt"`
	IsFromAdmin   bool       `json:"isFromAdmin"`
	Template      *string    `json:"template,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	InternalNotes *string    `json:"internalNotes,omitempty"`
	IsEdited      bool       `json:"isEdited"`
	EditedAt      *time.Time `json:"editedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	Attachments []QueryAttachment `json:"attachments"`
}

// PublicView strips admin-only fields before a response reaches the originating user.
func (r QueryResponse) PublicView() QueryResponse {
	r.Template = nil
	r.Priority = nil
	r.InternalNotes = nil
	return r
}

// QueryAttachment is file metadata linked to a query or a response.
type QueryAttachment struct {
	ID           string    `json:"id"`
	QueryID      *string   `json:"queryId,omitempty"`
	ResponseID   *string   `json:"responseId,omitempty"`
	FileName     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	FileType     string    `json:"fileType"`
	URL          string    `json:"url"`
	PublicID     string    `json:"publicId"`
	UploadedAt   time.Time `json:"uploadedAt"`
	UploadedBy   string    `json:"uploadedBy"`
	IsPublic     bool      `json:"isPublic"`
}
