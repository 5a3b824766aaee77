package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type KakaoHandler struct {
	kakao    *services.KakaoClient
	fallback string
}

func NewKakaoHandler(kakao *services.KakaoClient, fallback string) *KakaoHandler {
	if fallback == "" {
		fallback = "/"
	}
	return &KakaoHandler{kakao: kakao, fallback: fallback}
}

// Authorize sends the browser to the Kakao consent page. A broken
// configuration sends it to the fallback location instead.
func (h *KakaoHandler) Authorize(purpose services.KakaoPurpose) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target, err := h.kakao.BuildAuthorizationRedirect(purpose)
		if err != nil {
			slog.ErrorContext(c.UserContext(), "kakao authorize redirect unavailable",
				"request_id", RequestID(c),
				"action", "kakao_authorize_"+purpose.String(),
				"error", err.Error(),
			)
			capture(c, err)
			return c.Redirect(h.fallback, fiber.StatusFound)
		}
		return c.Redirect(target, fiber.StatusFound)
	}
}

// Callback exchanges the authorization code the provider redirected back with.
func (h *KakaoHandler) Callback(purpose services.KakaoPurpose) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if denied := c.Query("error"); denied != "" {
			slog.InfoContext(c.UserContext(), "kakao consent denied",
				"request_id", RequestID(c),
				"error", denied,
				"description", c.Query("error_description"),
			)
		}

		token, err := h.kakao.ExchangeCodeForToken(c.UserContext(), c.Query("code"), c.Query("state"), purpose)
		if err != nil {
			return fail(c, providerStatus(err), err)
		}

		return success(c, fiber.StatusOK, dto.KakaoTokenResponse{AccessToken: token.AccessToken})
	}
}

func (h *KakaoHandler) Profile(c *fiber.Ctx) error {
	var req dto.KakaoProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, errInvalidBody)
	}
	if req.AccessToken == nil || strings.TrimSpace(*req.AccessToken) == "" {
		return fail(c, fiber.StatusBadRequest, &services.MissingFieldError{Field: "access_token"})
	}

	email, err := h.kakao.FetchProfileEmail(c.UserContext(), *req.AccessToken)
	if err != nil {
		return fail(c, providerStatus(err), err)
	}

	return success(c, fiber.StatusOK, dto.KakaoProfileResponse{Email: email})
}

// providerStatus maps Kakao client errors. Upstream failures are 503, not 4xx.
func providerStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrMalformedInput),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrProfileFieldMissing):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrProviderRejected),
		errors.Is(err, services.ErrProviderUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
