package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/auth"
)

// APIHandlers provides HTTP handlers for account endpoints.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// DeleteAccountRequest represents the delete-account request body.
type DeleteAccountRequest struct {
	UserID          int64  `json:"userId"`
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// MessageOnlyResponse carries a plain status message.
type MessageOnlyResponse struct {
	Message string `json:"message"`
}

// Register handles user registration.
// POST /register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		badRequest(c, "username, email, and password are required to register!")
		return
	case errors.Is(err, auth.ErrInvalidUsername):
		badRequest(c, "username must be between 3 and 32 characters")
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		badRequest(c, "password must be at least 6 characters")
		return
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		return
	case err != nil:
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "user created successfully",
		User:    toUserResponse(user),
	})
}

// Login handles user login.
// POST /login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		badRequest(c, "invalid request body")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.UsernameOrEmail, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		badRequest(c, "username, and password are required to login!")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case err != nil:
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Str("login", req.UsernameOrEmail).Msg("user logged in")
	c.JSON(http.StatusCreated, LoginResponse{Message: "user logged in successfully", Token: token})
}

// DeleteAccount removes the caller's account after re-checking credentials.
// POST /delete-account
func (h *APIHandlers) DeleteAccount(c *gin.Context) {
	caller, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid delete account request")
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.authService.DeleteAccount(c.Request.Context(), caller.ID, req.UserID, req.UsernameOrEmail, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		badRequest(c, "usernameOrEmail and password are required")
		return
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid username, email or password for this account"})
		return
	case err != nil:
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, MessageOnlyResponse{Message: fmt.Sprintf("goodbye %s ;(", user.Username)})
}
