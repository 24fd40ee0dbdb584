package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
)

func caseFilterFromQuery(c *fiber.Ctx) repository.CaseFilter {
	return repository.CaseFilter{
		UserIDs:        parseList[string](c.Query("userId")),
		Statuses:       parseList[domain.CaseStatus](c.Query("status")),
		ViolationTypes: parseList[domain.ViolationType](c.Query("violationType")),
		MinFine:        parseFloat(c.Query("minFine")),
		MaxFine:        parseFloat(c.Query("maxFine")),
		DateFrom:       parseTime(c.Query("dateFrom")),
		DateTo:         parseTime(c.Query("dateTo")),
		SearchTerm:     optionalQuery(c, "search"),
	}
}

func queryFilterFromQuery(c *fiber.Ctx) repository.QueryFilter {
	return repository.QueryFilter{
		UserIDs:     parseList[string](c.Query("userId")),
		CaseID:      optionalQuery(c, "caseId"),
		Statuses:    parseList[domain.QueryStatus](c.Query("status")),
		Categories:  parseList[domain.QueryCategory](c.Query("category")),
		Priorities:  parseList[domain.QueryPriority](c.Query("priority")),
		IsUrgent:    parseBool(c.Query("isUrgent")),
		SearchTerm:  optionalQuery(c, "search"),
		CreatedFrom: parseTime(c.Query("dateFrom")),
		CreatedTo:   parseTime(c.Query("dateTo")),
	}
}

func userFilterFromQuery(c *fiber.Ctx) repository.UserFilter {
	return repository.UserFilter{
		Roles:         parseList[domain.UserRole](c.Query("role")),
		Statuses:      parseList[domain.UserStatus](c.Query("status")),
		IsActive:      parseBool(c.Query("isActive")),
		EmailVerified: parseBool(c.Query("emailVerified")),
		SearchTerm:    optionalQuery(c, "search"),
		CreatedFrom:   parseTime(c.Query("dateFrom")),
		CreatedTo:     parseTime(c.Query("dateTo")),
	}
}

func paymentFilterFromQuery(c *fiber.Ctx) repository.PaymentFilter {
	return repository.PaymentFilter{
		ViolationIDs: parseList[string](c.Query("caseId")),
		UserIDs:      parseList[string](c.Query("userId")),
		Statuses:     parseList[domain.PaymentStatus](c.Query("status")),
		CreatedFrom:  parseTime(c.Query("dateFrom")),
		CreatedTo:    parseTime(c.Query("dateTo")),
	}
}
