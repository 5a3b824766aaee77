package handlers

import (
	"errors"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) SignUp(c *fiber.Ctx) error {
	var req dto.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, errInvalidBody)
	}

	resp, err := h.accounts.SignUp(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountDeleted):
			// a soft-deleted row blocks the email; the status carries no body
			return c.SendStatus(fiber.StatusNoContent)
		case errors.Is(err, services.ErrMalformedInput),
			errors.Is(err, services.ErrMissingField),
			errors.Is(err, services.ErrAccountExists):
			return fail(c, fiber.StatusBadRequest, err)
		}
		return fail(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusCreated, resp)
}

func (h *AccountHandler) SignIn(c *fiber.Ctx) error {
	var req dto.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, errInvalidBody)
	}

	resp, err := h.accounts.SignIn(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			return fail(c, fiber.StatusConflict, err)
		case errors.Is(err, services.ErrAccountDeleted):
			return fail(c, fiber.StatusForbidden, err)
		case errors.Is(err, services.ErrPasswordMismatch),
			errors.Is(err, services.ErrMalformedInput),
			errors.Is(err, services.ErrMissingField):
			return fail(c, fiber.StatusBadRequest, err)
		}
		return fail(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusOK, resp)
}

func (h *AccountHandler) Retrieve(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, fiber.StatusBadRequest, errInvalidID)
	}

	resp, err := h.accounts.Retrieve(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return fail(c, fiber.StatusNotFound, err)
		}
		return fail(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusOK, resp)
}

func (h *AccountHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", services.DefaultPageSize)

	result, err := h.accounts.List(c.UserContext(), page, pageSize)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}

	if result.Count == 0 {
		return c.JSON(dto.Response{Msg: MsgNoContent, Data: result})
	}
	return success(c, fiber.StatusOK, result)
}
