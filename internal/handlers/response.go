package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const (
	MsgSuccess   = "SUCCESS"
	MsgNoContent = "NO_CONTENT"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errInvalidID   = errors.New("invalid account id")
)

func success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(dto.Response{Msg: MsgSuccess, Data: data})
}

// fail writes the error envelope. Server-side failures are logged, sent to
// Sentry and never leak driver details to the client.
func fail(c *fiber.Ctx, status int, err error) error {
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			"request_id", RequestID(c),
			"action", c.Method()+" "+c.Route().Path,
			"error", err.Error(),
		)
		capture(c, err)
		msg = publicMessage(err)
	}
	return c.Status(status).JSON(dto.ErrorResponse{ErrMsg: msg})
}

func publicMessage(err error) string {
	for _, known := range []error{
		services.ErrProviderRejected,
		services.ErrProviderUnavailable,
		services.ErrConfiguration,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "Internal server error"
}

func capture(c *fiber.Ctx, err error) {
	hub := sentryfiber.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// RequestID returns the id assigned by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}

// ErrorHandler converts errors that escape a handler into the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled server error",
			"request_id", RequestID(c),
			"action", c.Method()+" "+c.Path(),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{ErrMsg: message})
}
