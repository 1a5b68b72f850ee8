package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/middleware"
	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/utils"
)

// UserController handles registration, login, and the current-user endpoint.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

type authResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// Register creates an account, emails a welcome message (best-effort), and
// returns a login token.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Phone     string `json:"phone"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		Role      string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := u.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Fail(ctx, http.StatusBadRequest, "User already exists with this email")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to check existing user")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := u.db.Create(&user).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to create user")
		return
	}

	logMailError("registration", sendRegistrationEmail(user.Email, user.FirstName))

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	ctx.JSON(http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user.Public(),
	})
}

// Login verifies credentials and returns a token. Unknown email and wrong
// password answer identically so the response does not leak which one failed.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Invalid login payload")
		return
	}

	var user models.User
	err := u.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Fail(ctx, http.StatusBadRequest, "Invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	ctx.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    user.Public(),
	})
}

// Me returns the authenticated user's safe view.
func (u *UserController) Me(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		utils.Fail(ctx, http.StatusUnauthorized, "Authentication required")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
