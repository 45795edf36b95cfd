package details

import (
	"github.com/gofiber/fiber/v2"

	"sharebook_backend/internals/features/notifications/controller"
	notificationRoutes "sharebook_backend/internals/features/notifications/route"
)

func NotificationAdminRoutes(api fiber.Router, logs controller.LogLister, queue controller.QueueStats) {
	notificationRoutes.EmailLogAdminRoutes(api, logs, queue)
}
