package handlers

import (
	"context"
	"time"

	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BorrowingHandler handles borrowing lifecycle endpoints
type BorrowingHandler struct {
	borrowingService *services.BorrowingService
}

// NewBorrowingHandler creates a new borrowing handler
func NewBorrowingHandler(borrowingService *services.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{borrowingService: borrowingService}
}

// CreateBorrowingRequest represents create borrowing request.
// Dates accept YYYY-MM-DD or RFC 3339.
type CreateBorrowingRequest struct {
	BookID     uint   `json:"book_id"`
	Quantity   int    `json:"quantity"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}

// RenewRequest represents renew request
type RenewRequest struct {
	NumberOfRenewalDays int `json:"number_of_renewal_days"`
}

// parseDate returns the zero time for an empty string
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Create creates a borrow request for the caller
// @Summary Create borrowing
// @Description Request copies of a book; inventory is reserved when a librarian accepts
// @Tags Borrowings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBorrowingRequest true "Borrowing data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings [post]
func (h *BorrowingHandler) Create(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateBorrowingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	borrowDate, err := parseDate(req.BorrowDate)
	if err != nil {
		return response.BadRequest(c, "Invalid borrow_date")
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return response.BadRequest(c, "Invalid due_date")
	}

	rec, err := h.borrowingService.Create(c.UserContext(), &services.CreateBorrowingInput{
		UserID:     principal.AccountID,
		BookID:     req.BookID,
		Quantity:   req.Quantity,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Borrowing requested successfully", rec)
}

// List lists borrowing records
// @Summary List borrowings
// @Description List every record, optionally filtered by status (Librarian/Admin)
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /borrowings [get]
func (h *BorrowingHandler) List(c *fiber.Ctx) error {
	var status *domain.BorrowingStatus
	if raw := c.Query("status"); raw != "" {
		st, err := domain.ParseBorrowingStatus(raw)
		if err != nil {
			return response.FromError(c, err)
		}
		status = &st
	}

	items, err := h.borrowingService.List(c.UserContext(), status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Borrowings retrieved successfully", items)
}

// GetMine lists the caller's records
// @Summary My borrowings
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /borrowings/me [get]
func (h *BorrowingHandler) GetMine(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	items, err := h.borrowingService.ListByUser(c.UserContext(), principal, principal.AccountID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Borrowings retrieved successfully", items)
}

// GetByUser lists the records of one user
// @Summary Borrowings of a user
// @Description Librarians and admins may read anyone, users only themselves
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /borrowings/user/{id} [get]
func (h *BorrowingHandler) GetByUser(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	items, err := h.borrowingService.ListByUser(c.UserContext(), principal, userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Borrowings retrieved successfully", items)
}

// GetByID gets one record
// @Summary Get borrowing
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrowings/{id} [get]
func (h *BorrowingHandler) GetByID(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid borrowing ID")
	}

	rec, err := h.borrowingService.GetByID(c.UserContext(), principal, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Borrowing retrieved successfully", rec)
}

// GetHistory returns the audit trail of one record
// @Summary Borrowing history
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrowings/{id}/history [get]
func (h *BorrowingHandler) GetHistory(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid borrowing ID")
	}

	events, err := h.borrowingService.History(c.UserContext(), principal, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "History retrieved successfully", events)
}

type transitionFunc func(ctx context.Context, p domain.Principal, id uint) (*models.BorrowingResponse, error)

// transition runs a lifecycle action against the :id record
func (h *BorrowingHandler) transition(c *fiber.Ctx, fn transitionFunc, message string) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid borrowing ID")
	}

	rec, err := fn(c.UserContext(), principal, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, message, rec)
}

// Accept approves a pending request
// @Summary Accept borrowing
// @Description pending -> delivery, takes the copies off the shelf (Librarian/Admin)
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings/{id}/accept [patch]
func (h *BorrowingHandler) Accept(c *fiber.Ctx) error {
	return h.transition(c, h.borrowingService.Accept, "Borrowing accepted")
}

// Reject declines a pending request
// @Summary Reject borrowing
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings/{id}/reject [patch]
func (h *BorrowingHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.borrowingService.Reject, "Borrowing rejected")
}

// Receive confirms delivery
// @Summary Receive borrowing
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings/{id}/receive [patch]
func (h *BorrowingHandler) Receive(c *fiber.Ctx) error {
	return h.transition(c, h.borrowingService.Receive, "Borrowing received")
}

// Return gives the copies back
// @Summary Return borrowing
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings/{id}/return [patch]
func (h *BorrowingHandler) Return(c *fiber.Ctx) error {
	return h.transition(c, h.borrowingService.Return, "Borrowing returned")
}

// Cancel withdraws a request or gives back copies in hand
// @Summary Cancel borrowing
// @Tags Borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings/{id}/cancel [patch]
func (h *BorrowingHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.borrowingService.Cancel, "Borrowing cancelled")
}

// Renew extends the due date
// @Summary Renew borrowing
// @Tags Borrowings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrowing ID"
// @Param body body RenewRequest true "Renewal"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /borrowings/{id}/renew [patch]
func (h *BorrowingHandler) Renew(c *fiber.Ctx) error {
	var req RenewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	return h.transition(c, func(ctx context.Context, p domain.Principal, id uint) (*models.BorrowingResponse, error) {
		return h.borrowingService.Renew(ctx, p, id, req.NumberOfRenewalDays)
	}, "Borrowing renewed")
}
