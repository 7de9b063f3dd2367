package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/trainboard/internal/application"
	"github.com/oksasatya/trainboard/internal/interface/middleware"
	"github.com/oksasatya/trainboard/pkg/response"
	"github.com/oksasatya/trainboard/pkg/validation"
)

// AuthUseCase is the part of application.AuthService the handler needs.
type AuthUseCase interface {
	SignUp(ctx context.Context, in application.SignUpInput) (application.AuthTokens, error)
	SignIn(ctx context.Context, email, password string) (application.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (application.RefreshedToken, error)
}

type AuthHandler struct {
	Svc    AuthUseCase
	Logger *logrus.Logger
}

func NewAuthHandler(svc AuthUseCase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name" binding:"required,notblank"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	tokens, err := h.Svc.SignUp(c.Request.Context(), application.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, tokens, "signup successful", nil)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	tokens, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tokens, "signin successful", nil)
}

// Refresh accepts the refresh token in the JSON body or as a bearer token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
	}
	token := req.RefreshToken
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	out, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, out, "token refreshed", nil)
}
