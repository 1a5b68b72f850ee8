package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/utils"
)

// ContextUserKey stores the resolved *models.User in the Gin context.
const ContextUserKey = "current_user"

// CurrentUser returns the authenticated user set by AuthRequired or
// AuthOptional, or nil for anonymous requests.
func CurrentUser(ctx *gin.Context) *models.User {
	value, exists := ctx.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// AuthRequired rejects requests without a valid bearer token. The full user
// row is loaded so role and email reflect the database, not stale claims.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := resolveUser(ctx, db)
		if !ok {
			utils.Fail(ctx, http.StatusUnauthorized, "Authentication required")
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// AuthOptional resolves the viewer identity when a valid token is present and
// treats everything else as anonymous instead of failing.
func AuthOptional(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, ok := resolveUser(ctx, db); ok {
			ctx.Set(ContextUserKey, user)
		}
		ctx.Next()
	}
}

// AdminRequired gates an endpoint to admin accounts. Must run after
// AuthRequired. The role check is case-insensitive.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil || !user.IsAdmin() {
			utils.Fail(ctx, http.StatusForbidden, "Admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func resolveUser(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, false
	}
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, false
	}
	return &user, true
}
