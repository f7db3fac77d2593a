package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"libraryhub/internal/adapters/http/handlers"
	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/jwt"
	"libraryhub/internal/pkg/response"
	"libraryhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiFixture struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := zerolog.Nop()
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:        "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    time.Hour,
		},
		OTP:       config.OTPConfig{TTL: 5 * time.Minute, Length: 6},
		Borrowing: config.BorrowingConfig{MaxRenewalDays: 30},
	}

	accountRepo := repositories.NewAccountRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	notifier := services.NewNotificationService(services.NewLogSender(log), cfg.Mail, log)
	t.Cleanup(notifier.Wait)
	otp := services.NewOTPService(repositories.NewOTPRepository(db), notifier, cfg.OTP, log)
	auth := services.NewAuthService(accountRepo, otp, cfg, log)
	borrowings := services.NewBorrowingService(
		repositories.NewBorrowingRepository(db), bookRepo, accountRepo,
		repositories.NewTransactor(db), cfg.Borrowing, log,
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, Handlers{
		Health:    handlers.NewHealthHandler(nil),
		Auth:      handlers.NewAuthHandler(auth, cfg),
		Account:   handlers.NewAccountHandler(services.NewAccountService(accountRepo, otp, nil, cfg, log)),
		Book:      handlers.NewBookHandler(services.NewBookService(bookRepo, repositories.NewCatalogRepository(db), log)),
		Borrowing: handlers.NewBorrowingHandler(borrowings),
		Dashboard: handlers.NewDashboardHandler(services.NewDashboardService(db)),
	}, auth)

	return &apiFixture{app: app, db: db, cfg: cfg}
}

func (f *apiFixture) token(t *testing.T, account *models.Account) string {
	t.Helper()
	token, err := jwt.Generate(account.ID, account.Email, string(account.Role), f.cfg.JWT.Secret, f.cfg.JWT.AccessTTL)
	require.NoError(t, err)
	return token
}

// call sends body as JSON and decodes the envelope; data is decoded into out when non-nil
func (f *apiFixture) call(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		env := response.Response{Data: out}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode
}

func TestBorrowingLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	book := testutil.SeedBook(t, f.db, "Dune", 3)
	reader := testutil.SeedAccount(t, f.db, "reader@example.com", domain.RoleUser)
	librarian := testutil.SeedAccount(t, f.db, "librarian@example.com", domain.RoleLibrarian)
	readerToken, staffToken := f.token(t, reader), f.token(t, librarian)

	today := time.Now().UTC().Format(time.DateOnly)
	due := time.Now().UTC().AddDate(0, 0, 14).Format(time.DateOnly)

	var created models.BorrowingResponse
	status := f.call(t, "POST", "/api/v1/borrowings", readerToken, handlers.CreateBorrowingRequest{
		BookID: book.ID, Quantity: 2, BorrowDate: today, DueDate: due,
	}, &created)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, 3, testutil.BookQuantity(t, f.db, book.ID))

	base := fmt.Sprintf("/api/v1/borrowings/%d", created.ID)

	// only staff accept
	assert.Equal(t, fiber.StatusForbidden, f.call(t, "PATCH", base+"/accept", readerToken, nil, nil))
	require.Equal(t, fiber.StatusOK, f.call(t, "PATCH", base+"/accept", staffToken, nil, nil))
	assert.Equal(t, 1, testutil.BookQuantity(t, f.db, book.ID))

	// the librarian does not own the record
	assert.Equal(t, fiber.StatusForbidden, f.call(t, "PATCH", base+"/receive", staffToken, nil, nil))
	require.Equal(t, fiber.StatusOK, f.call(t, "PATCH", base+"/receive", readerToken, nil, nil))

	var returned models.BorrowingResponse
	require.Equal(t, fiber.StatusOK, f.call(t, "PATCH", base+"/return", readerToken, nil, &returned))
	assert.Equal(t, domain.StatusReturned, returned.Status)
	assert.Equal(t, 3, testutil.BookQuantity(t, f.db, book.ID))

	// terminal
	assert.Equal(t, fiber.StatusUnprocessableEntity, f.call(t, "PATCH", base+"/cancel", readerToken, nil, nil))

	var history []models.BorrowingEvent
	require.Equal(t, fiber.StatusOK, f.call(t, "GET", base+"/history", readerToken, nil, &history))
	assert.Len(t, history, 4)
}

func TestAccessRules(t *testing.T) {
	f := newAPIFixture(t)
	testutil.SeedBook(t, f.db, "Emma", 1)
	reader := testutil.SeedAccount(t, f.db, "reader@example.com", domain.RoleUser)
	librarian := testutil.SeedAccount(t, f.db, "librarian@example.com", domain.RoleLibrarian)
	admin := testutil.SeedAccount(t, f.db, "admin@example.com", domain.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"books are public", "GET", "/api/v1/books", "", fiber.StatusOK},
		{"authors are public", "GET", "/api/v1/authors", "", fiber.StatusOK},
		{"profile needs a token", "GET", "/api/v1/profile", "", fiber.StatusUnauthorized},
		{"profile", "GET", "/api/v1/profile", f.token(t, reader), fiber.StatusOK},
		{"users cannot list all borrowings", "GET", "/api/v1/borrowings", f.token(t, reader), fiber.StatusForbidden},
		{"staff list borrowings", "GET", "/api/v1/borrowings", f.token(t, librarian), fiber.StatusOK},
		{"unknown status filter", "GET", "/api/v1/borrowings?status=Pending", f.token(t, librarian), fiber.StatusBadRequest},
		{"users cannot read others", "GET", fmt.Sprintf("/api/v1/borrowings/user/%d", librarian.ID), f.token(t, reader), fiber.StatusForbidden},
		{"own records", "GET", "/api/v1/borrowings/me", f.token(t, reader), fiber.StatusOK},
		{"users cannot create books", "POST", "/api/v1/books", f.token(t, reader), fiber.StatusForbidden},
		{"librarians are not admins", "GET", "/api/v1/admin/accounts", f.token(t, librarian), fiber.StatusForbidden},
		{"admin lists accounts", "GET", "/api/v1/admin/accounts", f.token(t, admin), fiber.StatusOK},
		{"dashboard is staff only", "GET", "/api/v1/dashboard", f.token(t, reader), fiber.StatusForbidden},
		{"dashboard", "GET", "/api/v1/dashboard", f.token(t, librarian), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.call(t, tt.method, tt.path, tt.token, nil, nil))
		})
	}
}
