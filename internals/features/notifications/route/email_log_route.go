package route

import (
	"github.com/gofiber/fiber/v2"

	"sharebook_backend/internals/features/notifications/controller"
)

// EmailLogAdminRoutes expects r to be guarded for admins already.
func EmailLogAdminRoutes(r fiber.Router, logs controller.LogLister, queue controller.QueueStats) {
	ctrl := controller.NewEmailLogController(logs, queue)
	g := r.Group("/email-logs")
	g.Get("/", ctrl.List)
	g.Get("/queue", ctrl.Queue)
}
