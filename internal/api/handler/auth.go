package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/auth"
)

// AuthHandler handles account endpoints.
type AuthHandler struct {
	authService *auth.Service
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Signup handles POST /v1/auth/signup - create an account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			response.Conflict(w, r, "an account with this email already exists")
		case errors.Is(err, auth.ErrInvalidEmail):
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "email", Message: "must be a valid email address", Code: "INVALID_EMAIL"},
			})
		case errors.Is(err, auth.ErrPasswordLength):
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "password", Message: auth.ErrPasswordLength.Error(), Code: "INVALID_LENGTH"},
			})
		default:
			h.logger.Error().Err(err).Msg("signup failed")
			response.InternalError(w, r, "signup failed")
		}
		return
	}

	response.Created(w, r, "/v1/auth/me", toUserModel(user))
}

// Login handles POST /v1/auth/login - exchange credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(w, r, "invalid email or password")
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		response.InternalError(w, r, "login failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		ExpiresIn:   tokens.ExpiresIn,
		User:        toUserModel(tokens.User),
	})
}

// Me handles GET /v1/auth/me - the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.NotFound(w, r, "account not found")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("loading user failed")
		response.InternalError(w, r, "failed to load account")
		return
	}

	response.JSON(w, r, http.StatusOK, toUserModel(user))
}

func toUserModel(u *auth.User) models.User {
	return models.User{
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: models.Timestamp(u.CreatedAt),
	}
}
