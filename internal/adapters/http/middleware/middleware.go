package middleware

import (
	"fmt"
	"time"

	"libraryhub/internal/config"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// Setup configures all middlewares for the application
func Setup(app *fiber.App, cfg *config.Config, log zerolog.Logger) {
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  func() string { return ksuid.New().String() },
		ContextKey: "requestid",
	}))

	// Recover middleware - catches panics
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error().
				Str("request_id", requestID(c)).
				Str("panic", fmt.Sprint(e)).
				Msg("panic recovered")
		},
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Swagger UI loads its assets cross-origin, so embedding stays permissive
	app.Use(helmet.New(helmet.Config{
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "no-referrer",
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(ipLimiter(100, "", "Too many requests"))

	app.Use(RequestLogger(log))

	// Credentials cannot be combined with a wildcard origin
	origins := cfg.GetAllowedOrigins()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders:    fiber.HeaderXRequestID,
		AllowCredentials: origins != "*",
	}))
}

// RequestLogger writes one structured line per request and makes a logger
// tagged with the request id available through zerolog.Ctx(c.UserContext())
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := log.With().Str("request_id", requestID(c)).Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// let the error handler write the status before it is logged
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("client_ip", c.IP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", requestID(c)).
			Msg("http request")
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// ipLimiter allows max requests per minute per client IP. Limiters with
// different suffixes count separately.
func ipLimiter(limit int, suffix, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + suffix
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// AuthRateLimiter allows 5 requests per minute per IP (login, verification)
func AuthRateLimiter() fiber.Handler {
	return ipLimiter(5, "-auth", "Too many attempts, please wait a minute")
}

// StrictRateLimiter allows 3 requests per minute per IP (anything that sends mail)
func StrictRateLimiter() fiber.Handler {
	return ipLimiter(3, "-strict", "Rate limit exceeded")
}

// CustomErrorHandler handles errors globally
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	return response.FromError(c, err)
}
