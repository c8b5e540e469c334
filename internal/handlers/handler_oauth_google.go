package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/config"
)

const (
	oauthStateCookie = "memofy_oauth_state"
	oauthStateMaxAge = 10 * 60 // seconds
)

// GoogleOAuthHandler handles Google sign-in. Only existing, active accounts
// can sign in; Google never provisions users.
type GoogleOAuthHandler struct {
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	userService        portssvc.UserSvcFacade
	tokenService       portssvc.TokenSvcFacade
	frontendBaseURL    string
	secureCookies      bool
}

// NewGoogleOAuthHandler creates a new instance of GoogleOAuthHandler.
func NewGoogleOAuthHandler(
	cfg *config.Config,
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade,
	userService portssvc.UserSvcFacade,
	tokenService portssvc.TokenSvcFacade,
) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		googleOAuthService: googleOAuthService,
		userService:        userService,
		tokenService:       tokenService,
		frontendBaseURL:    strings.TrimRight(cfg.FrontendBaseURL, "/"),
		secureCookies:      cfg.IsProduction,
	}
}

// ExchangeCodeRequest defines the expected JSON body for the /google/exchange-code endpoint.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ExchangeCodeResponse defines the successful response for the /google/exchange-code endpoint.
type ExchangeCodeResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// signIn turns an authorization code into an application token.
func (h *GoogleOAuthHandler) signIn(ctx context.Context, code string) (*domain.User, string, int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	oauth2Token, err := h.googleOAuthService.ExchangeCodeForToken(ctx, code)
	if err != nil {
		logger.Warn("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		if msg := strings.ToLower(err.Error()); strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "bad request") {
			return nil, "", 0, apperrors.NewBadRequestError("Invalid or expired authorization code provided by Google.")
		}
		return nil, "", 0, apperrors.NewGatewayTimeoutError("Failed to communicate with Google OAuth service.")
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		return nil, "", 0, apperrors.NewAppError(http.StatusBadGateway, "Google did not return an ID token.", apperrors.ErrUpstream)
	}

	payload, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		logger.Warn("Google ID token validation failed", slog.String("error", err.Error()))
		return nil, "", 0, apperrors.NewUnauthorizedError("Invalid Google ID token")
	}

	email, _ := payload.Claims["email"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || payload.Subject == "" {
		return nil, "", 0, apperrors.NewUnauthorizedError("Google account has no e-mail address")
	}
	if !emailVerified {
		return nil, "", 0, apperrors.NewUnauthorizedError("Google e-mail address is not verified")
	}

	user, err := h.userService.SignInWithGoogle(ctx, email, payload.Subject)
	if err != nil {
		return nil, "", 0, err
	}

	token, expiresAt, err := h.tokenService.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, "", 0, err
	}
	return user, token, expiresAt.Unix(), nil
}

// LoginGoogle godoc
// @Summary Start Google sign-in
// @Description Redirects to Google's consent screen.
// @Tags oauth
// @Success 307
// @Failure 500 {object} ErrorResponse
// @Router /auth/google/login [get]
func (h *GoogleOAuthHandler) LoginGoogle(c *gin.Context) {
	state, err := h.googleOAuthService.GenerateStateString(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to generate OAuth state")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", h.secureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, h.googleOAuthService.GetGoogleLoginURL(c.Request.Context(), state))
}

// CallbackGoogle godoc
// @Summary Google sign-in callback
// @Description Completes the redirect flow and hands the token to the frontend in the URL fragment.
// @Tags oauth
// @Param   state query string true "OAuth state"
// @Param   code query string true "Authorization code"
// @Success 307
// @Failure 400 {object} ErrorResponse
// @Router /auth/google/callback [get]
func (h *GoogleOAuthHandler) CallbackGoogle(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	expected, err := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookies, true)
	if err != nil || expected == "" || c.Query("state") != expected {
		logger.Warn("OAuth state mismatch")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid OAuth state"})
		return
	}
	if errParam := c.Query("error"); errParam != "" {
		h.redirectWithError(c, errParam)
		return
	}

	user, token, expiresAt, err := h.signIn(c.Request.Context(), c.Query("code"))
	if err != nil {
		status, msg := statusFor(err)
		logger.Warn("Google sign-in failed", slog.String("error", err.Error()), slog.Int("status", status))
		h.redirectWithError(c, msg)
		return
	}
	logger.Info("User signed in with Google", slog.String("user_id", user.UserID))

	fragment := url.Values{}
	fragment.Set("token", token)
	fragment.Set("expiresAt", strconv.FormatInt(expiresAt, 10))
	c.Redirect(http.StatusTemporaryRedirect, h.frontendBaseURL+"/auth/callback#"+fragment.Encode())
}

func (h *GoogleOAuthHandler) redirectWithError(c *gin.Context, msg string) {
	q := url.Values{}
	q.Set("error", msg)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendBaseURL+"/login?"+q.Encode())
}

// ExchangeCodeGoogle godoc
// @Summary Exchange authorization code for access token
// @Description For clients that run the Google consent flow themselves.
// @Tags oauth
// @Accept  json
// @Produce  json
// @Param   code body ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} ExchangeCodeResponse
// @Failure 400 {object} ErrorResponse "Invalid authorization code"
// @Failure 401 {object} ErrorResponse "Invalid Google ID token"
// @Failure 403 {object} ErrorResponse "No active account for this e-mail"
// @Failure 504 {object} ErrorResponse "Google unreachable"
// @Router /auth/google/exchange-code [post]
func (h *GoogleOAuthHandler) ExchangeCodeGoogle(c *gin.Context) {
	var req ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Authorization code is required."})
		return
	}

	user, token, expiresAt, err := h.signIn(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err, "Google sign-in failed")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("User signed in with Google", slog.String("user_id", user.UserID))
	c.JSON(http.StatusOK, gin.H{"data": ExchangeCodeResponse{Token: token, ExpiresAt: expiresAt}})
}

// registerGoogleOAuthRoutes registers the Google OAuth routes.
func registerGoogleOAuthRoutes(rg *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := NewGoogleOAuthHandler(cfg, services.GoogleOAuthHandler, services.User, services.TokenService)
	googleRoutes := rg.Group("/google")
	{
		googleRoutes.GET("/login", h.LoginGoogle)
		googleRoutes.GET("/callback", h.CallbackGoogle)
		googleRoutes.POST("/exchange-code", h.ExchangeCodeGoogle)
	}
}
