package services

import (
	"libraryhub/internal/core/domain"
)

// TokenValidator turns bearer tokens into principals (used by the auth middleware)
type TokenValidator interface {
	ValidateAccessToken(token string) (domain.Principal, error)
	ValidateRefreshToken(token string) (domain.Principal, error)
}

var (
	_ TokenValidator     = (*AuthService)(nil)
	_ NotificationSender = (*LogSender)(nil)
)
