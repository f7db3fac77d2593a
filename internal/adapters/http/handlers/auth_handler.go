package handlers

import (
	"time"

	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// EmailRequest represents a body carrying only an email
type EmailRequest struct {
	Email string `json:"email"`
}

// SendOTPRequest represents send OTP request body
type SendOTPRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// VerifyOTPRequest represents verify OTP request body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// CredentialsRequest represents login and create password request body
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordRequest represents reset password request body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// Register handles user registration
// @Summary Register new user
// @Description Create an inactive account and mail an activation code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	account, err := h.authService.Register(c.UserContext(), req.Email)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Account registered, check your email for the code", account)
}

// SendOTP handles sending a one-time code
// @Summary Send OTP
// @Description Mail a one-time code to an email address
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SendOTPRequest true "Recipient"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/otp/send [post]
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Subject == "" {
		req.Subject = h.cfg.OTP.Subject
	}
	if req.Message == "" {
		req.Message = h.cfg.OTP.ActivationText
	}

	if err := h.authService.SendOTP(c.UserContext(), req.Email, req.Subject, req.Message); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Code sent", nil)
}

// ResendOTP handles resending the activation code
// @Summary Resend OTP
// @Description Mail a fresh activation code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Recipient"
// @Success 200 {object} response.Response
// @Router /auth/otp/resend [post]
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.ResendOTP(c.UserContext(), req.Email); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Code sent", nil)
}

// VerifyOTP handles code verification
// @Summary Verify OTP
// @Description Check a one-time code and activate the account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "Email and code"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Code == "" {
		return response.BadRequest(c, "Email and code are required")
	}

	if err := h.authService.VerifyOTP(c.UserContext(), req.Email, req.Code); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Email verified", nil)
}

// CreatePassword handles the first password of an activated account
// @Summary Create password
// @Description Set the password of a verified account that has none
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body CredentialsRequest true "Email and password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/password/create [post]
func (h *AuthHandler) CreatePassword(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.CreatePassword(c.UserContext(), req.Email, req.Password); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Password created", nil)
}

// ForgotPassword handles password reset requests
// @Summary Forgot password
// @Description Mail a reset code to an active account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Router /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "If the account exists, a code has been sent", nil)
}

// ResetPassword handles password reset with a mailed code
// @Summary Reset password
// @Description Replace the password after verifying a reset code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Reset data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return response.FromError(c, err)
	}
	h.clearAuthCookies(c)
	return response.Success(c, "Password reset", nil)
}

// Login handles user login
// @Summary Login
// @Description Authenticate and return a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body CredentialsRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}

	h.setAuthCookies(c, result.TokenPair)
	return response.Success(c, "Login successful", result)
}

// RefreshToken handles token rotation
// @Summary Refresh token pair
// @Description Rotate the token pair; the presented refresh token stops working
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/token/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tokens, err := h.authService.RefreshToken(c.UserContext(), principal, middleware.RefreshTokenFrom(c))
	if err != nil {
		h.clearAuthCookies(c)
		return response.FromError(c, err)
	}

	h.setAuthCookies(c, *tokens)
	return response.Success(c, "Token refreshed successfully", tokens)
}

// Logout handles user logout
// @Summary Logout
// @Description Invalidate the stored refresh token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.Logout(c.UserContext(), principal); err != nil {
		return response.FromError(c, err)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, tokens domain.TokenPair) {
	h.setCookie(c, "access_token", tokens.AccessToken, int(h.cfg.JWT.AccessTTL.Seconds()))
	h.setCookie(c, "refresh_token", tokens.RefreshToken, int(h.cfg.JWT.RefreshTTL.Seconds()))
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	h.setCookie(c, "access_token", "", -1)
	h.setCookie(c, "refresh_token", "", -1)
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, maxAge int) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	}
	if maxAge < 0 {
		cookie.Expires = time.Now().Add(-1 * time.Hour)
	}
	c.Cookie(cookie)
}
