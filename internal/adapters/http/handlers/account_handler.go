package handlers

import (
	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/pagination"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// maxAvatarSize is the largest accepted profile picture
const maxAvatarSize = 5 << 20

// AccountHandler handles profile and account administration endpoints
type AccountHandler struct {
	accountService *services.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// SetRoleRequest represents set role request body
type SetRoleRequest struct {
	Role domain.Role `json:"role"`
}

// Me returns the current account
// @Summary Get profile
// @Description Get the authenticated account
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /profile [get]
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	account, err := h.accountService.Me(c.UserContext(), principal)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile retrieved successfully", account)
}

// UpdateAddress saves the delivery address
// @Summary Update address
// @Description Save the delivery address and personal details
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateAddressInput true "Address"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/address [patch]
func (h *AccountHandler) UpdateAddress(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.UpdateAddressInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	account, err := h.accountService.UpdateAddress(c.UserContext(), principal, &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Address updated successfully", account)
}

// ChangePassword changes own password
// @Summary Change password
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Passwords"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /profile/password [put]
func (h *AccountHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.accountService.ChangePassword(c.UserContext(), principal, &input); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Password changed successfully", nil)
}

// UploadAvatar replaces the profile picture
// @Summary Upload avatar
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/avatar [put]
func (h *AccountHandler) UploadAvatar(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return response.BadRequest(c, "avatar file is required")
	}
	if file.Size > maxAvatarSize {
		return response.BadRequest(c, "avatar must be 5MB or smaller")
	}

	src, err := file.Open()
	if err != nil {
		return response.BadRequest(c, "cannot read avatar")
	}
	defer src.Close()

	account, err := h.accountService.UploadAvatar(c.UserContext(), principal, file.Filename, src, file.Size, file.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Avatar updated successfully", account)
}

// ListAccounts lists accounts
// @Summary List accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/accounts [get]
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	accounts, total, err := h.accountService.ListAccounts(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Accounts retrieved successfully", pagination.NewResponse(accounts, params, total))
}

// CreateEmployee creates a staff account
// @Summary Create employee account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEmployeeInput true "Employee"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/accounts [post]
func (h *AccountHandler) CreateEmployee(c *fiber.Ctx) error {
	var input services.CreateEmployeeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	account, err := h.accountService.CreateEmployeeAccount(c.UserContext(), &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Employee account created", account)
}

// SetRole changes the role of an account
// @Summary Set role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param body body SetRoleRequest true "Role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/accounts/{id}/role [put]
func (h *AccountHandler) SetRole(c *fiber.Ctx) error {
	admin, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account ID")
	}

	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	account, err := h.accountService.SetRole(c.UserContext(), admin, id, req.Role)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role updated successfully", account)
}

// DeleteAccount deactivates an account
// @Summary Delete account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	admin, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account ID")
	}

	if err := h.accountService.DeleteAccount(c.UserContext(), admin, id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Account deleted successfully", nil)
}

// RestoreAccount reactivates an account
// @Summary Restore account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/accounts/{id}/restore [post]
func (h *AccountHandler) RestoreAccount(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account ID")
	}

	account, err := h.accountService.RestoreAccount(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Account restored successfully", account)
}
