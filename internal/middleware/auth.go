package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pollboard/internal/models"
	"pollboard/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errInvalidToken = errors.New("invalid token")

// CurrentUserKey is where auth middleware stores the *models.User in the
// gin context.
const CurrentUserKey = "currentUser"

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func resolveUser(c *gin.Context, jwtSecret string, db *gorm.DB) (*models.User, error) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return nil, nil
	}

	claims, err := util.ParseToken(jwtSecret, tokenStr)
	if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, errInvalidToken
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RequireAuth verifies the Bearer token, loads the user row and stores it
// in the context. Requests without a valid token are rejected.
func RequireAuth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(c, jwtSecret, db)
		if err != nil || user == nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
			c.Abort()
			return
		}
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// OptionalAuth resolves the user when a valid token is present and lets
// the request through anonymously otherwise. Public reads use this so
// they can personalize without demanding login.
func OptionalAuth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := resolveUser(c, jwtSecret, db); err == nil && user != nil {
			c.Set(CurrentUserKey, user)
		}
		c.Next()
	}
}
