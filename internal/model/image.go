package model

// GenerateImageRequest is the body of POST /api/generate-image
type GenerateImageRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// ImageResult is returned by an image generator on success
type ImageResult struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}
