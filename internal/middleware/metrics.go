package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency by route template.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the app error handler has not run yet
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		// unmatched requests only reach the global middleware mounted at "/"
		path := c.Route().Path
		if path == "" || (path == "/" && c.Path() != "/") {
			path = "unmatched"
		}
		code := strconv.Itoa(status)

		metrics.RequestCounter.WithLabelValues(c.Method(), path, code).Inc()
		metrics.RequestDuration.WithLabelValues(c.Method(), path, code).Observe(time.Since(start).Seconds())
		if category := metrics.StatusCategory(status); category != "" {
			metrics.StatusCategoryCounter.WithLabelValues(category).Inc()
		}
		return err
	}
}
