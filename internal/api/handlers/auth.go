package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/config"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService user.Service, cfg *config.Config, log *logger.Logger, val *validator.Validator) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	if req.Role == "" {
		req.Role = user.RoleUser
	}

	// Self-registration carries no actor; analyst roles then get rejected
	// by the service.
	actor, _ := middleware.GetActor(r)

	id, err := h.userService.Register(r.Context(), actor, &user.User{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		TenantID: req.TenantID,
	}, req.Password)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to register user")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"role":    req.Role,
	}).Info("User registered")

	utils.WriteSuccessWithMessage(w, http.StatusCreated, "User registered", map[string]int64{"id": id})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	u, tokens, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{"email": req.Email}).Warn("Authentication failed")
		utils.WriteServiceError(w, err, "Authentication failed")
		return
	}

	setTokenCookies(w, tokens)
	utils.WriteSuccess(w, http.StatusOK, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         toUserDTO(u),
	})
}

// RefreshToken mints a new token pair from a refresh token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	tokens, err := h.userService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to refresh tokens")
		return
	}

	setTokenCookies(w, tokens)
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// Me returns the authenticated user's account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
		return
	}

	u, err := h.userService.GetByID(r.Context(), actor.UserID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to load user")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toUserDTO(u))
}

func setTokenCookies(w http.ResponseWriter, tokens auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func toUserDTO(u *user.User) *dto.UserDTO {
	return &dto.UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		TenantID:  u.TenantID,
		CreatedAt: u.CreatedAt,
	}
}
