package controller

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"sharebook_backend/internals/features/notifications/dispatcher"
	"sharebook_backend/internals/features/notifications/model"
	helper "sharebook_backend/internals/helpers"
)

type LogLister interface {
	ListRecent(ctx context.Context, template string, since time.Time, limit int) ([]model.EmailLogModel, error)
}

type QueueStats interface {
	Stats() dispatcher.Stats
	Pending() int
}

type EmailLogController struct {
	logs  LogLister
	queue QueueStats
	now   func() time.Time
}

func NewEmailLogController(logs LogLister, queue QueueStats) *EmailLogController {
	return &EmailLogController{logs: logs, queue: queue, now: time.Now}
}

// GET /api/a/email-logs?template=&hours=&limit=
func (ctrl *EmailLogController) List(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours <= 0 || hours > 24*30 {
		return helper.JsonError(c, fiber.StatusBadRequest, "hours must be between 1 and 720")
	}
	since := ctrl.now().Add(-time.Duration(hours) * time.Hour)

	rows, err := ctrl.logs.ListRecent(c.UserContext(), strings.TrimSpace(c.Query("template")), since, c.QueryInt("limit", 50))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "email logs", rows, nil)
}

// GET /api/a/email-logs/queue
func (ctrl *EmailLogController) Queue(c *fiber.Ctx) error {
	return helper.JsonOK(c, "mail queue", fiber.Map{
		"stats":   ctrl.queue.Stats(),
		"pending": ctrl.queue.Pending(),
	})
}
