package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/violation-service/internal/service"
)

// StatsHandler exposes dashboard aggregates.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Dashboard handles GET /admin/stats.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.stats.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, d)
}

// Users handles GET /admin/stats/users.
func (h *StatsHandler) Users(c *fiber.Ctx) error {
	s, err := h.stats.UserStats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, s)
}

// Cases handles GET /admin/stats/cases.
func (h *StatsHandler) Cases(c *fiber.Ctx) error {
	s, err := h.stats.CaseStats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, s)
}

// Queries handles GET /admin/stats/queries.
func (h *StatsHandler) Queries(c *fiber.Ctx) error {
	s, err := h.stats.QueryStats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, s)
}
