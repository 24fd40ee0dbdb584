package dto

import "github.com/spec-kit/violation-service/internal/domain"

// CreateCaseRequest records a violation.
type CreateCaseRequest struct {
	UserID        string               `json:"userId"`
	ViolationType domain.ViolationType `json:"violationType"`
	Violation     string               `json:"violation"`
	Fine          float64              `json:"fine"`
	ProofURL      string               `json:"proofUrl"`
	Location      string               `json:"location"`
	Date          string               `json:"date"`
	DueDate       *string              `json:"dueDate"`
	Notes         *string              `json:"notes"`
}

// UpdateCaseRequest carries optional case changes.
type UpdateCaseRequest struct {
	ViolationType *domain.ViolationType `json:"violationType"`
	Violation     *string               `json:"violation"`
	Fine          *float64              `json:"fine"`
	ProofURL      *string               `json:"proofUrl"`
	Location      *string               `json:"location"`
	Date          *string               `json:"date"`
	DueDate       *string               `json:"dueDate"`
	Status        *domain.CaseStatus    `json:"status"`
	Notes         *string               `json:"notes"`
}

// BulkCaseStatusRequest moves many cases to one status.
type BulkCaseStatusRequest struct {
	CaseIDs []string          `json:"caseIds"`
	Status  domain.CaseStatus `json:"status"`
}

// DisputeRequest contests a case.
type DisputeRequest struct {
	Reason string `json:"reason"`
}

// PaymentRequest settles a case.
type PaymentRequest struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Method         string  `json:"method"`
	Brand          *string `json:"brand"`
	Last4          *string `json:"last4"`
	TransactionRef *string `json:"transactionRef"`
}
