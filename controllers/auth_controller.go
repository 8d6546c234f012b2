package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/middleware"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/utils"
)

const msgEmailTaken = "The email has already been taken."

// AuthController handles registration, login and logout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,maxbytes=72,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and its first access token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	utils.BindJSON(ctx, &req)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	errs := utils.ValidateStruct(req)
	if _, bad := errs["email"]; !bad {
		var taken int64
		if err := a.db.WithContext(ctx.Request.Context()).Model(&models.User{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
			utils.InternalError(ctx, "check email uniqueness", err)
			return
		}
		if taken > 0 {
			errs = utils.AddFieldError(errs, "email", msgEmailTaken)
		}
	}
	if errs != nil {
		utils.ValidationError(ctx, errs)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.InternalError(ctx, "hash password", err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
	}
	var plain string
	err = a.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		var err error
		plain, err = utils.IssueAccessToken(tx, user.ID, utils.DefaultTokenName)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration of the same email.
			utils.ValidationError(ctx, map[string][]string{"email": {msgEmailTaken}})
			return
		}
		utils.InternalError(ctx, "register user", err)
		return
	}

	utils.RequestLogger(ctx).Infow("user registered", "user_id", user.ID)
	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "User registered successfully",
		"user":         newUserResource(&user),
		"access_token": plain,
		"token_type":   "Bearer",
	})
}

// Login verifies credentials, revokes every previous token of the user and issues a new one.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	utils.BindJSON(ctx, &req)
	req.Email = strings.TrimSpace(req.Email)
	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ValidationError(ctx, errs)
		return
	}

	var user models.User
	err := a.db.WithContext(ctx.Request.Context()).Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalError(ctx, "load user", err)
			return
		}
		utils.BurnPasswordCheck(req.Password)
		utils.Error(ctx, http.StatusUnauthorized, "Invalid login details")
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid login details")
		return
	}

	var plain string
	err = a.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := utils.RevokeUserTokens(tx, user.ID); err != nil {
			return err
		}
		var err error
		plain, err = utils.IssueAccessToken(tx, user.ID, utils.DefaultTokenName)
		return err
	})
	if err != nil {
		utils.InternalError(ctx, "issue token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":      "User logged in successfully",
		"user":         newUserResource(&user),
		"access_token": plain,
		"token_type":   "Bearer",
	})
}

// Logout revokes only the token that authenticated this request.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, ok := middleware.CurrentToken(ctx)
	if !ok {
		utils.Unauthenticated(ctx)
		return
	}
	if err := utils.RevokeAccessToken(a.db.WithContext(ctx.Request.Context()), token.ID); err != nil {
		utils.InternalError(ctx, "revoke token", err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Logged out successfully")
}
