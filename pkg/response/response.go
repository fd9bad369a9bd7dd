package response

import "github.com/gofiber/fiber/v2"

// Client-facing messages
const (
	MsgPromptRequired      = "Prompt is required"
	MsgGenerateImageFailed = "Failed to generate image"
	MsgSceneNotFound       = "Scene not found"
	MsgSceneBusy           = "Scene is already generating"
	MsgBatchNotFound       = "Batch not found"
	MsgBatchInFlight       = "A batch is already in progress"
	MsgInternalError       = "Internal server error"
	MsgInvalidSceneID      = "Invalid scene id"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func Error(c *fiber.Ctx, status int, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, message, details)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message, nil)
}

func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message, nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message, nil)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}
