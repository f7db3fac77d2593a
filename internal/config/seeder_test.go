package config

import (
	"io"
	"testing"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/password"
	"libraryhub/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeeder_RunIsIdempotent(t *testing.T) {
	password.Cost = bcrypt.MinCost
	t.Cleanup(func() { password.Cost = password.DefaultCost })

	db := testutil.NewDB(t)
	s := NewSeeder(db, zerolog.New(io.Discard))
	seed := SeedConfig{AdminEmail: "root@example.com", AdminPassword: "supersecret"}

	require.NoError(t, s.Run(seed))
	require.NoError(t, s.Run(seed))

	var admins int64
	db.Model(&models.Account{}).Where("role = ?", domain.RoleAdmin).Count(&admins)
	assert.Equal(t, int64(1), admins)

	var books int64
	db.Model(&models.Book{}).Count(&books)
	assert.Equal(t, int64(4), books)

	var dune models.Book
	require.NoError(t, db.Where("slug = ?", "dune").First(&dune).Error)
	assert.Equal(t, 1, dune.Quantity)
}

func TestSeeder_EnsureAdminPromotes(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSeeder(db, zerolog.New(io.Discard))
	acc := testutil.SeedAccount(t, db, "lib@example.com", domain.RoleLibrarian)

	created, err := s.EnsureAdmin("lib@example.com", "")
	require.NoError(t, err)
	assert.False(t, created)

	var got models.Account
	require.NoError(t, db.First(&got, acc.ID).Error)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	_, err = s.EnsureAdmin("new@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}
