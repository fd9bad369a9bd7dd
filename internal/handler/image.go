package handler

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/scenegen/internal/model"
	"github.com/makeasinger/scenegen/internal/service"
	"github.com/makeasinger/scenegen/pkg/response"
)

var errNullBody = errors.New("request body is null")

type ImageHandler struct {
	generator service.ImageGenerator
	validator *validator.Validate
}

func NewImageHandler(generator service.ImageGenerator, v *validator.Validate) *ImageHandler {
	return &ImageHandler{
		generator: generator,
		validator: v,
	}
}

// Generate handles POST /api/generate-image. The body is read as JSON
// whatever the Content-Type says.
func (h *ImageHandler) Generate(c *fiber.Ctx) error {
	prompt, err := promptFromBody(c.Body())
	if err != nil {
		// An unreadable body is a generation failure, not a validation error.
		log.Printf("Error generating image: %v", err)
		return response.ServiceError(c, response.MsgGenerateImageFailed)
	}

	req := model.GenerateImageRequest{Prompt: prompt}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, response.MsgPromptRequired, nil)
	}

	result, err := h.generator.Generate(c.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return response.ValidationError(c, response.MsgPromptRequired, nil)
		}
		log.Printf("Error generating image: %v", err)
		return response.ServiceError(c, response.MsgGenerateImageFailed)
	}

	return response.OK(c, result)
}

// promptFromBody returns the prompt field of a JSON body. Falsy prompts
// (missing, null, false, 0, "") come back empty. A body that is valid JSON
// but not an object has no prompt; a null body is an error.
func promptFromBody(body []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", err
	}
	if doc == nil {
		return "", errNullBody
	}

	fields, ok := doc.(map[string]interface{})
	if !ok {
		return "", nil
	}

	switch p := fields["prompt"].(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case bool:
		if !p {
			return "", nil
		}
		return "true", nil
	case float64:
		if p == 0 {
			return "", nil
		}
		return strconv.FormatFloat(p, 'f', -1, 64), nil
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}
