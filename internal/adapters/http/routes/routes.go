package routes

import (
	"time"

	"libraryhub/internal/adapters/http/handlers"
	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Handlers groups the HTTP handlers mounted by Setup
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Account   *handlers.AccountHandler
	Book      *handlers.BookHandler
	Borrowing *handlers.BorrowingHandler
	Dashboard *handlers.DashboardHandler
}

// Setup configures all routes for the application
func Setup(app *fiber.App, h Handlers, tokens services.TokenValidator) {
	// Health check & root routes
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", h.Health.APIInfo)

	auth := middleware.AuthMiddleware(tokens)

	setupAuthRoutes(apiV1.Group("/auth"), h.Auth, tokens)
	setupProfileRoutes(apiV1.Group("/profile", auth, middleware.NoStore()), h.Account)
	setupCatalogRoutes(apiV1, h.Book, auth)
	setupBorrowingRoutes(apiV1.Group("/borrowings", auth, middleware.NoStore()), h.Borrowing)
	setupAdminRoutes(apiV1.Group("/admin", auth, middleware.AdminOnly()), h.Account)

	apiV1.Get("/dashboard", auth, middleware.StaffOnly(), h.Dashboard.GetStaffDashboard)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, tokens services.TokenValidator) {
	// Public routes; code delivery is limited harder than login
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/otp/send", middleware.StrictRateLimiter(), handler.SendOTP)
	router.Post("/otp/resend", middleware.StrictRateLimiter(), handler.ResendOTP)
	router.Post("/otp/verify", middleware.AuthRateLimiter(), handler.VerifyOTP)
	router.Post("/password/create", middleware.AuthRateLimiter(), handler.CreatePassword)
	router.Post("/password/forgot", middleware.StrictRateLimiter(), handler.ForgotPassword)
	router.Post("/password/reset", middleware.AuthRateLimiter(), handler.ResetPassword)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)

	// Protected routes
	router.Post("/token/refresh", middleware.RefreshAuth(tokens), handler.RefreshToken)
	router.Post("/logout", middleware.AuthMiddleware(tokens), handler.Logout)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.AccountHandler) {
	router.Get("/", handler.Me)
	router.Patch("/address", handler.UpdateAddress)
	router.Put("/password", handler.ChangePassword)
	router.Put("/avatar", handler.UploadAvatar)
}

// setupCatalogRoutes configures book, author and publisher routes.
// Reads are public; writes need a librarian or admin.
func setupCatalogRoutes(router fiber.Router, handler *handlers.BookHandler, auth fiber.Handler) {
	staff := []fiber.Handler{auth, middleware.StaffOnly()}
	cache := middleware.CacheControl(time.Minute)

	books := router.Group("/books")
	books.Get("/", cache, handler.ListBooks)
	books.Get("/slug/:slug", cache, handler.GetBookBySlug)
	books.Get("/:id", cache, handler.GetBook)
	books.Post("/", append(staff, handler.CreateBook)...)
	books.Patch("/:id/quantity", append(staff, handler.RestockBook)...)

	router.Get("/authors", cache, handler.ListAuthors)
	router.Post("/authors", append(staff, handler.CreateAuthor)...)
	router.Get("/publishers", cache, handler.ListPublishers)
	router.Post("/publishers", append(staff, handler.CreatePublisher)...)
}

// setupBorrowingRoutes configures borrowing routes (Authenticated).
// Ownership of a record is checked by the service.
func setupBorrowingRoutes(router fiber.Router, handler *handlers.BorrowingHandler) {
	router.Post("/", handler.Create)
	router.Get("/me", handler.GetMine)
	router.Get("/user/:id", handler.GetByUser)
	router.Get("/:id", handler.GetByID)
	router.Get("/:id/history", handler.GetHistory)

	// Borrower actions
	router.Patch("/:id/receive", handler.Receive)
	router.Patch("/:id/return", handler.Return)
	router.Patch("/:id/renew", handler.Renew)
	router.Patch("/:id/cancel", handler.Cancel)

	// Librarian/Admin routes
	router.Get("/", middleware.StaffOnly(), handler.List)
	router.Patch("/:id/accept", middleware.StaffOnly(), handler.Accept)
	router.Patch("/:id/reject", middleware.StaffOnly(), handler.Reject)
}

// setupAdminRoutes configures account administration routes (Admin only)
func setupAdminRoutes(router fiber.Router, handler *handlers.AccountHandler) {
	router.Get("/accounts", handler.ListAccounts)
	router.Post("/accounts", handler.CreateEmployee)
	router.Put("/accounts/:id/role", handler.SetRole)
	router.Delete("/accounts/:id", handler.DeleteAccount)
	router.Post("/accounts/:id/restore", handler.RestoreAccount)
}
