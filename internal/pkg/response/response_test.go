package response

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"libraryhub/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(buf *bytes.Buffer, err error) *fiber.App {
	log := zerolog.New(buf)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(log.WithContext(c.UserContext()))
		return c.Next()
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return FromError(c, err)
	})
	return app
}

func TestFromError_logsInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(&buf, errors.New("connection refused"))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "connection refused")

	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestFromError_domainErrorsAreNotLogged(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(&buf, domain.ErrBookNotFound)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, buf.String())
}
