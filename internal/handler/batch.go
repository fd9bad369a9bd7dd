package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/scenegen/internal/service"
	"github.com/makeasinger/scenegen/internal/store"
	"github.com/makeasinger/scenegen/pkg/response"
)

type BatchHandler struct {
	service *service.BatchService
}

func NewBatchHandler(svc *service.BatchService) *BatchHandler {
	return &BatchHandler{service: svc}
}

// Status handles GET /api/batches/:batchId
func (h *BatchHandler) Status(c *fiber.Ctx) error {
	batchID := c.Params("batchId")
	if batchID == "" {
		return response.ValidationError(c, "Batch ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), batchID)
	if err != nil {
		if errors.Is(err, store.ErrBatchNotFound) {
			return response.NotFound(c, response.MsgBatchNotFound)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
