// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sharebook_backend/internals/configs"
	helper "sharebook_backend/internals/helpers"
)

// ActiveCheck fails when the user may not use the API anymore.
type ActiveCheck func(ctx context.Context, userID uuid.UUID) error

var errInactive = errors.New("user inactive")

// AuthMiddleware validates the bearer token and checks the user against the users table.
func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return AuthWith(ActiveFromDB(db))
}

func AuthWith(check ActiveCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return helper.JsonError(c, fiber.StatusInternalServerError, "missing JWT secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secretKey), nil
		}); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - token parse error")
		}

		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - invalid or missing user id")
		}

		if check != nil {
			if err := check(c.UserContext(), userID); err != nil {
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized - user not found")
				case errors.Is(err, errInactive):
					return helper.JsonError(c, fiber.StatusForbidden, "your account has been deactivated")
				default:
					log.Println("[ERROR] ensureUserActive:", err)
					return helper.JsonError(c, fiber.StatusInternalServerError, "")
				}
			}
		}

		c.Locals(helper.LocUserID, userID.String())
		storeBasicClaimsToLocals(c, claims)
		return c.Next()
	}
}

// ActiveFromDB reads users.is_active.
func ActiveFromDB(db *gorm.DB) ActiveCheck {
	return func(ctx context.Context, userID uuid.UUID) error {
		var user struct {
			IsActive bool
		}
		if err := db.WithContext(ctx).Table("users").Select("is_active").Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if !user.IsActive {
			return errInactive
		}
		return nil
	}
}
