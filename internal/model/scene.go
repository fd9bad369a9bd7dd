package model

import "time"

// SceneDefinition is one entry of a storyboard before it is assigned an ID
type SceneDefinition struct {
	Title  string `yaml:"title" json:"title" validate:"required"`
	Prompt string `yaml:"prompt" json:"prompt" validate:"required"`
}

// Scene is a single unit of work: a title, a prompt and its generation state.
// ImageURL is non-empty only while Status is SceneStatusCompleted.
type Scene struct {
	ID        int         `json:"id"`
	Title     string      `json:"title"`
	Prompt    string      `json:"prompt"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	Status    SceneStatus `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SceneBoard is a point-in-time snapshot of every scene plus batch progress
type SceneBoard struct {
	Scenes        []Scene `json:"scenes"`
	ActiveIndex   int     `json:"activeIndex"`
	BatchInFlight bool    `json:"batchInFlight"`
	Version       uint64  `json:"version"`
}
