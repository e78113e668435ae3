package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/relawanhub/relawan/internal/maplink"
)

const codeInvalidArgument = "RELAWAN_INVALID_ARGUMENT"

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, codeInvalidArgument, msg)
}

// errParse reports a map link the parser refused.
func errParse(c *fiber.Ctx, err error) error {
	return newError(c, fiber.StatusUnprocessableEntity, maplink.Code(err), maplink.Reason(err))
}
