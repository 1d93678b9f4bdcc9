package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"pollboard/internal/config"
	"pollboard/internal/models"
	"pollboard/internal/ratelimit"
	"pollboard/internal/util"
	"pollboard/internal/validate"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bcryptCost      = 12
	maxLoginFails   = 5
	lockoutDuration = 10 * time.Minute
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	DB       *gorm.DB
	Limiter  ratelimit.Limiter
	Limits   config.RateLimitConfig
	Secret   string
	TokenTTL time.Duration
}

func NewAuthHandler(db *gorm.DB, limiter ratelimit.Limiter, limits config.RateLimitConfig, secret string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		DB:       db,
		Limiter:  limiter,
		Limits:   limits,
		Secret:   secret,
		TokenTTL: time.Duration(ttlHours) * time.Hour,
	}
}

type registerReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !h.Limiter.Allow("register_"+email, h.Limits.Register.Max, h.Limits.Register.Window()) {
		util.Error(c, http.StatusTooManyRequests, util.CodeRateLimited, "too many registrations, try again later")
		return
	}

	if err := validate.Register(email, req.Password, req.Name); err != nil {
		util.Fail(c, err)
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("LOWER(email) = ?", email).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusConflict, util.CodeConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.Error(c, http.StatusConflict, util.CodeConflict, "email already registered")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
		return
	}

	util.Success(c, http.StatusCreated, util.Response{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !h.Limiter.Allow("login_"+email, h.Limits.Login.Max, h.Limits.Login.Window()) {
		util.Error(c, http.StatusTooManyRequests, util.CodeRateLimited, "too many login attempts, try again later")
		return
	}

	if err := validate.Login(email, req.Password); err != nil {
		util.Fail(c, err)
		return
	}

	var user models.User
	if err := h.DB.Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
		}
		return
	}

	now := time.Now()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account locked, try again later")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxLoginFails {
			lockUntil := now.Add(lockoutDuration)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		if err := h.DB.Save(&user).Error; err != nil {
			log.Printf("save failed-login state for %q: %v", user.Email, err)
		}
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	if err := h.DB.Save(&user).Error; err != nil {
		log.Printf("save login state for %q: %v", user.Email, err)
	}

	token, err := util.GenerateToken(h.Secret, user.ID, user.Email, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
		return
	}

	util.Success(c, http.StatusOK, util.Response{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}
