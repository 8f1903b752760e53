package handlers

import (
	"encoding/json"
	"errors"

	"github.com/Joaovitor12j/simplified-platform/internal/money"
	"github.com/Joaovitor12j/simplified-platform/internal/repositories"
	"github.com/Joaovitor12j/simplified-platform/internal/services/authorization"
	"github.com/Joaovitor12j/simplified-platform/internal/services/transfer"
	"github.com/Joaovitor12j/simplified-platform/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TransferHandler exposes the transfer endpoint.
type TransferHandler struct {
	service transfer.Service
	logger  *logrus.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(s transfer.Service, logger *logrus.Logger) *TransferHandler {
	return &TransferHandler{service: s, logger: logger}
}

type transferRequest struct {
	Payer string      `json:"payer"`
	Payee string      `json:"payee"`
	Value json.Number `json:"value"`
}

// Transfer handles POST /transfer requests.
func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body")
	}

	payerID, err := uuid.Parse(req.Payer)
	if err != nil {
		return response.ValidationError(c, "payer must be a valid uuid")
	}
	payeeID, err := uuid.Parse(req.Payee)
	if err != nil {
		return response.ValidationError(c, "payee must be a valid uuid")
	}
	amount, err := money.Parse(req.Value.String())
	if err != nil {
		return response.ValidationError(c, "value must be a non-negative number")
	}

	txn, err := h.service.Execute(c.Context(), payerID, payeeID, amount)
	if err != nil {
		return h.transferError(c, err)
	}
	return response.Created(c, txn)
}

func (h *TransferHandler) transferError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, transfer.ErrInsufficientBalance):
		return response.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, transfer.ErrMerchantPayer),
		errors.Is(err, authorization.ErrUnauthorized):
		return response.Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, repositories.ErrWalletNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		return response.Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, transfer.ErrSelfTransfer),
		errors.Is(err, transfer.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidAmount):
		return response.ValidationError(c, err.Error())
	case errors.Is(err, authorization.ErrServiceUnavailable):
		return response.Error(c, fiber.StatusBadGateway, err.Error())
	default:
		h.logger.WithFields(logrus.Fields{
			"path":  c.Path(),
			"error": err.Error(),
		}).Error("transfer failed with unclassified error")
		return response.ServerError(c)
	}
}
