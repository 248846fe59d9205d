package handlers

import (
	"vmtracker/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
)

const genericErrorMessage = "An unexpected error occurred."

// handleError writes the response for an error returned by a controller.
// Domain errors carry a message meant for the caller. Anything else is
// logged and replaced with a generic 500.
func handleError(c *fiber.Ctx, log logger.Logger, err error) error {
	switch {
	case errors.Is(err, types.ErrInUse):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":       err.Error(),
			"detail":        "Remove the records that reference it first.",
			"hasReferences": true,
		})
	case errors.Is(err, types.ErrInvalidTransition):
		return errorResponse(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, errors.NotFound):
		return errorResponse(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, errors.AlreadyExists), errors.Is(err, errors.NotValid):
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, errors.Unauthorized):
		return errorResponse(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, errors.Forbidden):
		return errorResponse(c, fiber.StatusForbidden, err.Error())
	}

	log.Er("unhandled error", err, "path", c.Path(), "method", c.Method())
	return errorResponse(c, fiber.StatusInternalServerError, genericErrorMessage)
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// ErrorHandler replaces fiber's plain text error page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return errorResponse(c, fiberErr.Code, fiberErr.Message)
	}

	logger.New("handlers").
		TraceFromContext(c.UserContext()).
		Function("ErrorHandler").
		Er("request failed", err, "path", c.Path())
	return errorResponse(c, fiber.StatusInternalServerError, genericErrorMessage)
}

func paramID(c *fiber.Ctx, name string) (int, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, errors.NotValidf("%s %q", name, c.Params(name))
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, log logger.Logger, out any) error {
	if err := c.BodyParser(out); err != nil {
		log.Warn("Invalid request body", "error", err)
		return errors.NewNotValid(nil, "invalid request body")
	}
	return nil
}
