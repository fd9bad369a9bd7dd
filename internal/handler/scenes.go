package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/scenegen/internal/service"
	"github.com/makeasinger/scenegen/pkg/response"
)

type SceneHandler struct {
	orchestrator *service.SceneOrchestrator
	batchService *service.BatchService
}

func NewSceneHandler(orchestrator *service.SceneOrchestrator, batchService *service.BatchService) *SceneHandler {
	return &SceneHandler{
		orchestrator: orchestrator,
		batchService: batchService,
	}
}

// List handles GET /api/scenes
func (h *SceneHandler) List(c *fiber.Ctx) error {
	return response.OK(c, h.orchestrator.Board())
}

// Get handles GET /api/scenes/:id
func (h *SceneHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.ValidationError(c, response.MsgInvalidSceneID, nil)
	}

	scene, err := h.orchestrator.Scene(id)
	if err != nil {
		return response.NotFound(c, response.MsgSceneNotFound)
	}

	return response.OK(c, scene)
}

// Generate handles POST /api/scenes/:id/generate. The request stays open
// until the scene settles.
func (h *SceneHandler) Generate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.ValidationError(c, response.MsgInvalidSceneID, nil)
	}

	scene, err := h.orchestrator.GenerateOne(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSceneNotFound):
			return response.NotFound(c, response.MsgSceneNotFound)
		case errors.Is(err, service.ErrSceneBusy):
			return response.Conflict(c, response.MsgSceneBusy)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, scene)
}

// GenerateAll handles POST /api/scenes/generate
func (h *SceneHandler) GenerateAll(c *fiber.Ctx) error {
	result, err := h.batchService.StartBatch(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrBatchInFlight) {
			return response.Conflict(c, response.MsgBatchInFlight)
		}
		log.Printf("Failed to start batch: %v", err)
		return response.ServiceError(c, response.MsgInternalError)
	}

	return response.Accepted(c, result)
}
