package service

import "errors"

var (
	// ErrInvalidInput is returned when a generation request has no prompt
	ErrInvalidInput = errors.New("prompt is required")
	// ErrGenerationFailed wraps any fault raised while producing an image
	ErrGenerationFailed = errors.New("failed to generate image")
	// ErrSceneNotFound is returned for an unknown scene ID
	ErrSceneNotFound = errors.New("scene not found")
	// ErrSceneBusy is returned when a scene already has a generation in flight
	ErrSceneBusy = errors.New("scene is already generating")
	// ErrBatchInFlight is returned when a batch is already queued or running
	ErrBatchInFlight = errors.New("batch already in progress")
)
