package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Accounts *handlers.AccountHandler
	Kakao    *handlers.KakaoHandler
	Health   *handlers.HealthHandler
}

// Setup registers the route table. Credential endpoints get a stricter
// per-IP rate limit when authLimit is positive.
func Setup(app *fiber.App, h Handlers, authLimit int) {
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	credentials := []fiber.Handler{}
	if authLimit > 0 {
		credentials = append(credentials, limiter.New(limiter.Config{
			Max:               authLimit,
			Expiration:        1 * time.Minute,
			LimiterMiddleware: limiter.SlidingWindow{},
			KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		}))
	}

	app.Post("/accounts", append(credentials, h.Accounts.SignUp)...)
	app.Get("/accounts", h.Accounts.List)

	accounts := app.Group("/accounts")
	accounts.Post("/sign-in", append(credentials, h.Accounts.SignIn)...)

	// Kakao
	accounts.Get("/sign-up/kakao", h.Kakao.Authorize(services.KakaoSignUp))
	accounts.Get("/sign-up/kakao-callback", h.Kakao.Callback(services.KakaoSignUp))
	accounts.Post("/sign-up/kakao-profile", h.Kakao.Profile)
	accounts.Get("/sign-in/kakao", h.Kakao.Authorize(services.KakaoSignIn))
	accounts.Get("/sign-in/kakao-callback", h.Kakao.Callback(services.KakaoSignIn))

	accounts.Get("/:id", h.Accounts.Retrieve)
}
