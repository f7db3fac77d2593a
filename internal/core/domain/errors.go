package domain

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying the HTTP status it maps to at the boundary
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a domain error
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error { return NewError(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return NewError(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error { return NewError(http.StatusForbidden, message) }
func NotFound(message string) *Error { return NewError(http.StatusNotFound, message) }
func Conflict(message string) *Error { return NewError(http.StatusConflict, message) }
func Unprocessable(message string) *Error { return NewError(http.StatusUnprocessableEntity, message) }

// StatusOf returns the HTTP status for err, 500 when err is not a domain error
func StatusOf(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.Status
	}
	return http.StatusInternalServerError
}

// Account errors
var (
	ErrAccountNotFound     = NotFound("account not found")
	ErrEmailAlreadyExists  = Conflict("email already exists")
	ErrInvalidCredentials  = Forbidden("incorrect email or password")
	ErrInvalidOTP          = Forbidden("invalid email or code")
	ErrAccessDenied        = Forbidden("access denied")
	ErrAccountInactive     = Forbidden("account is inactive")
	ErrRefreshTokenInvalid = Forbidden("refresh token is no longer valid")
	ErrOldPasswordWrong    = Forbidden("old password is incorrect")
	ErrPasswordTooShort    = BadRequest("password must be at least 8 characters")
	ErrEmailRequired       = BadRequest("email is required")
	ErrInvalidRole         = BadRequest("invalid role")
	ErrCannotDeleteSelf    = Forbidden("cannot delete your own account")
	ErrCannotChangeOwnRole = Forbidden("cannot change your own role")
)

// Catalog errors
var (
	ErrBookNotFound         = NotFound("book not found")
	ErrAuthorNotFound       = NotFound("author not found")
	ErrPublisherNotFound    = NotFound("publisher not found")
	ErrInsufficientQuantity = Unprocessable("the current quantity of books is insufficient")
)

// Borrowing errors
var (
	ErrBorrowingNotFound    = NotFound("borrowing record not found")
	ErrMissingBorrowingData = BadRequest("missing data to create borrowing")
	ErrQuantityLimit        = BadRequest("quantity must be between 1 and 2")
	ErrInvalidDueDate       = BadRequest("due date must be after borrow date")
	ErrInvalidRenewalDays   = BadRequest("invalid number of renewal days")
	ErrInvalidStatus        = BadRequest("invalid status")
	ErrAddressRequired      = Forbidden("please save a delivery address before borrowing")
	ErrNotBorrowingOwner    = Forbidden("you do not own this borrowing record")
	ErrDuplicateBorrowing   = Conflict("you can't borrow the same book twice in 1 day")
	ErrStaleBorrowingStatus = Conflict("borrowing record was changed by another request")
	ErrInvalidTransition    = Unprocessable("invalid status transition")
)
