package domain

import "time"

// ViolationType is the closed set of offence categories.
type ViolationType string

const (
	ViolationSpeeding     ViolationType = "speeding"
	ViolationParking      ViolationType = "parking"
	ViolationTrafficLight ViolationType = "traffic_light"
	ViolationNoHelmet     ViolationType = "no_helmet"
	ViolationWrongLane    ViolationType = "wrong_lane"
	ViolationMobileUse    ViolationType = "mobile_use"
	ViolationOther        ViolationType = "other"
)

// ViolationTypes lists every violation type.
var ViolationTypes = []ViolationType{
	ViolationSpeeding,
	ViolationParking,
	ViolationTrafficLight,
	ViolationNoHelmet,
	ViolationWrongLane,
	ViolationMobileUse,
	ViolationOther,
}

func (v ViolationType) Valid() bool {
	for _, t := range ViolationTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CaseStatus enumerates lifecycle states of a violation case.
type CaseStatus string

const (
	CaseStatusPending   CaseStatus = "pending"
	CaseStatusPaid      CaseStatus = "paid"
	CaseStatusDisputed  CaseStatus = "disputed"
	CaseStatusResolved  CaseStatus = "resolved"
	CaseStatusCancelled CaseStatus = "cancelled"
)

// CaseStatuses lists every case status.
var CaseStatuses = []CaseStatus{
	CaseStatusPending,
	CaseStatusPaid,
	CaseStatusDisputed,
	CaseStatusResolved,
	CaseStatusCancelled,
}

func (s CaseStatus) Valid() bool {
	for _, c := range CaseStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// Case is a recorded traffic violation tied to a user.
type Case struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	ViolationType ViolationType `json:"violationType"`
	Violation     string        `json:"violation"`
	Fine          float64       `json:"fine"`
	ProofURL      string        `json:"proofUrl"`
	Location      string        `json:"location"`
	Date          time.Time     `json:"date"`
	Status        CaseStatus    `json:"status"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	DisputedAt    *time.Time    `json:"disputedAt,omitempty"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty"`
	DisputeReason *string       `json:"disputeReason,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedBy     *string       `json:"createdBy,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

var caseTransitions = transitionTable[CaseStatus]{
	CaseStatusPending:   {CaseStatusPaid, CaseStatusDisputed, CaseStatusResolved, CaseStatusCancelled},
	CaseStatusDisputed:  {CaseStatusPending, CaseStatusPaid, CaseStatusResolved, CaseStatusCancelled},
	CaseStatusPaid:      {},
	CaseStatusResolved:  {},
	CaseStatusCancelled: {},
}

var caseStamps = stampTable[Case, CaseStatus]{
	CaseStatusPaid:     func(c *Case, at time.Time) { c.PaidAt = &at },
	CaseStatusDisputed: func(c *Case, at time.Time) { c.DisputedAt = &at },
	CaseStatusResolved: func(c *Case, at time.Time) { c.ResolvedAt = &at },
}

// CanTransition reports whether the case may move from its current status to next.
func (c *Case) CanTransition(next CaseStatus) bool {
	return c.Status == next || caseTransitions.allows(c.Status, next)
}

// TransitionTo moves the case to next and stamps the matching timestamp.
// Moving to the current status is a no-op.
func (c *Case) TransitionTo(next CaseStatus, at time.Time) error {
	if !next.Valid() {
		return ErrInvalidTransition
	}
	if c.Status == next {
		return nil
	}
	if !caseTransitions.allows(c.Status, next) {
		return ErrInvalidTransition
	}
	c.Status = next
	caseStamps.stamp(c, next, at)
	c.UpdatedAt = at
	return nil
}

// IsOutstanding reports whether the fine still counts as owed.
func (c *Case) IsOutstanding() bool {
	return c.Status != CaseStatusPaid
}
