// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/donations/book_users/service"
	"sharebook_backend/internals/features/notifications/controller"
	routeDetails "sharebook_backend/internals/route/details"
	authMiddleware "sharebook_backend/internals/middlewares/auth"
)

var startTime time.Time

// Deps are the long-lived services main builds before mounting routes.
type Deps struct {
	Notifier  service.Notifier
	EmailLogs controller.LogLister
	MailQueue controller.QueueStats
}

func SetupRoutes(app *fiber.App, db *gorm.DB, deps Deps) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db)

	// ===================== GROUPS =====================

	// PUBLIC → no token
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	// PRIVATE (USER) → token + active account
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u", authMiddleware.AuthMiddleware(db))

	// ADMIN → token + admin role
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("this area"), constants.AdminOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting User routes...")
	routeDetails.UserRoutes(private, db)
	routeDetails.UserAdminRoutes(admin, db)

	log.Println("[INFO] Mounting Donation routes...")
	routeDetails.DonationPublicRoutes(public, db)
	routeDetails.DonationUserRoutes(private, db, deps.Notifier)
	routeDetails.DonationAdminRoutes(admin, db, deps.Notifier)

	log.Println("[INFO] Mounting Notification routes...")
	routeDetails.NotificationAdminRoutes(admin, deps.EmailLogs, deps.MailQueue)
}
